// Package expr implements the symbolic linear Expression of spec.md §3:
// c0 + Σ ci·vi over a pool of fresh variables, used by internal/proof to
// generalize observed tape configurations into proven rewrite rules.
package expr

import "math/big"

// VarID identifies one variable. IDs are unique within the Pool that
// minted them and are never recycled (spec.md §3's Expression invariant).
type VarID int

// Pool mints fresh variable identifiers for one ProofSystem instance.
// Scoping the pool per instance (rather than a process-wide counter)
// preserves determinism across concurrent workers; see spec.md §9 and
// DESIGN.md's Open Question notes.
type Pool struct {
	next VarID
}

// NewPool returns an empty variable pool.
func NewPool() *Pool { return &Pool{} }

// Fresh mints and returns a new, never-before-seen VarID.
func (p *Pool) Fresh() VarID {
	id := p.next
	p.next++
	return id
}

// Expression is a linear combination c0 + Σ ci·vi with small integer
// coefficients and a big-integer constant term, or the distinguished
// Infinity sentinel. Infinity never participates in affine arithmetic: any
// operation involving it returns Infinity without touching Const/Coeffs.
//
// spec.md §9 Open Question (b): this Infinity is a variant of Expression,
// wholly distinct from an undefined tm.Transition -- the two sentinels are
// never compared against each other anywhere in this codebase.
type Expression struct {
	infinite bool
	Const    *big.Int
	Coeffs   map[VarID]int64
}

// Zero is the constant expression 0.
func Zero() Expression {
	return Expression{Const: big.NewInt(0), Coeffs: map[VarID]int64{}}
}

// Infinity is the distinguished sentinel Expression representing an
// unbounded run-length count (spec.md §3: "∞ is represented as a specific
// constant the implementation must preserve through arithmetic").
func Infinity() Expression {
	return Expression{infinite: true}
}

// IsInfinite reports whether e is the Infinity sentinel.
func (e Expression) IsInfinite() bool { return e.infinite }

// FromConst returns the constant expression c.
func FromConst(c int64) Expression {
	return Expression{Const: big.NewInt(c), Coeffs: map[VarID]int64{}}
}

// FromVar returns the expression 1·v (constant 0, coefficient 1 on v), the
// shape used when a fresh variable first stands in for an observed run
// count in internal/proof.compare.
func FromVar(v VarID) Expression {
	return Expression{Const: big.NewInt(0), Coeffs: map[VarID]int64{v: 1}}
}

func (e Expression) clone() Expression {
	if e.infinite {
		return Infinity()
	}
	cp := Expression{Const: new(big.Int).Set(e.Const), Coeffs: make(map[VarID]int64, len(e.Coeffs))}
	for k, v := range e.Coeffs {
		if v != 0 {
			cp.Coeffs[k] = v
		}
	}
	return cp
}

// Add returns e + other.
func (e Expression) Add(other Expression) Expression {
	if e.infinite || other.infinite {
		return Infinity()
	}
	out := e.clone()
	out.Const.Add(out.Const, other.Const)
	for k, v := range other.Coeffs {
		out.Coeffs[k] += v
		if out.Coeffs[k] == 0 {
			delete(out.Coeffs, k)
		}
	}
	return out
}

// Sub returns e - other.
func (e Expression) Sub(other Expression) Expression {
	if e.infinite || other.infinite {
		return Infinity()
	}
	return e.Add(other.Scale(-1))
}

// Scale returns e scaled by a constant integer factor k.
func (e Expression) Scale(k int64) Expression {
	if e.infinite {
		return Infinity()
	}
	out := Expression{Const: new(big.Int).Mul(e.Const, big.NewInt(k)), Coeffs: make(map[VarID]int64, len(e.Coeffs))}
	for v, c := range e.Coeffs {
		scaled := c * k
		if scaled != 0 {
			out.Coeffs[v] = scaled
		}
	}
	return out
}

// ScaleBig returns e scaled by a big-integer factor, used when applying a
// rule whose multiplicity m came from a run-length count that may not fit
// in an int64 (spec.md §9's "a process that runs 10^100 steps is routine").
func (e Expression) ScaleBig(k *big.Int) Expression {
	if e.infinite {
		return Infinity()
	}
	out := Expression{Const: new(big.Int).Mul(e.Const, k), Coeffs: make(map[VarID]int64, len(e.Coeffs))}
	kInt64 := k.Int64() // coefficients are always small per spec.md §9; constant uses full precision above
	for v, c := range e.Coeffs {
		scaled := c * kInt64
		if scaled != 0 {
			out.Coeffs[v] = scaled
		}
	}
	return out
}

// Substitute evaluates e with each variable replaced by the concrete value
// in assignment, returning the resulting big.Int. Panics if e is Infinite
// or references a variable missing from assignment -- both are caller
// bugs: Infinity is handled specially by internal/proof before reaching
// Substitute, and every variable in a Rule's tapes always has an assignment
// derived from the concrete tape it was read off of.
func (e Expression) Substitute(assignment map[VarID]*big.Int) *big.Int {
	if e.infinite {
		panic("expr: Substitute called on Infinity")
	}
	out := new(big.Int).Set(e.Const)
	for v, c := range e.Coeffs {
		val, ok := assignment[v]
		if !ok {
			panic("expr: Substitute missing assignment for variable")
		}
		term := new(big.Int).Mul(val, big.NewInt(c))
		out.Add(out, term)
	}
	return out
}

// CmpOne compares e to the constant 1, satisfying rle.Count for symbolic
// tapes. Only meaningful for constant expressions; a non-constant
// Expression's count is, by this proof system's invariants, always backed
// by a variable with a recorded lower bound of at least 1 (internal/proof's
// compare() enforces this when minting the variable), so it is reported as
// "greater than one" rather than attempting symbolic comparison.
func (e Expression) CmpOne() int {
	if e.infinite {
		panic("expr: CmpOne called on Infinity")
	}
	if e.IsConstant() {
		return e.Const.Cmp(big.NewInt(1))
	}
	return 1
}

// IsZero reports whether e is the constant 0.
func (e Expression) IsZero() bool {
	if e.infinite {
		return false
	}
	return e.IsConstant() && e.Const.Sign() == 0
}

// One returns the constant expression 1.
func (e Expression) One() Expression { return FromConst(1) }

// MulInt returns e scaled by a small integer factor k, satisfying rle.Count.
func (e Expression) MulInt(k int64) Expression { return e.Scale(k) }

// IsConstant reports whether e has no variable terms.
func (e Expression) IsConstant() bool {
	if e.infinite {
		return false
	}
	return len(e.Coeffs) == 0
}

// CoeffOf returns the coefficient of v in e (0 if absent).
func (e Expression) CoeffOf(v VarID) int64 {
	if e.infinite {
		return 0
	}
	return e.Coeffs[v]
}

// Equal reports structural equality.
func (e Expression) Equal(other Expression) bool {
	if e.infinite != other.infinite {
		return false
	}
	if e.infinite {
		return true
	}
	if e.Const.Cmp(other.Const) != 0 {
		return false
	}
	if len(e.Coeffs) != len(other.Coeffs) {
		return false
	}
	for k, v := range e.Coeffs {
		if other.Coeffs[k] != v {
			return false
		}
	}
	return true
}
