// Package rle implements RunLengthTape<T> (spec.md §3, §4.2): two ordered
// half-tapes of (symbol, count) blocks, generic over the count domain T --
// rle.BigCount for the concrete ChainSimulator, expr.Expression for the
// symbolic GeneralChainSimulator used by the proof system.
package rle

import "bbsearch/internal/tm"

// Count is the numeric interface a RunLengthTape's block counts must
// satisfy: addition, subtraction, comparison with 1, zero-ness, the
// multiplicative/additive unit, and whether a value is the domain's
// Infinity sentinel (spec.md §4.2).
type Count[T any] interface {
	// IsInfinite reports whether this value is the domain's Infinity
	// sentinel (never a legitimate finite count).
	IsInfinite() bool
	// Add returns the sum of this value and other.
	Add(other T) T
	// Sub returns this value minus other.
	Sub(other T) T
	// CmpOne returns -1, 0, or +1 comparing this value to the constant 1.
	// Calling CmpOne on an Infinite value is a caller bug.
	CmpOne() int
	// IsZero reports whether this value is exactly the finite zero.
	IsZero() bool
	// One returns the domain's finite value 1 (used to decrement by one
	// and to seed a fresh single-cell write).
	One() T
	// MulInt returns this value scaled by a small integer factor, used by
	// NumNonzero to weigh a block's count by a MachineAdapter's per-symbol
	// contribution (spec.md §4.2's num_nonzero).
	MulInt(k int64) T
}

// Block is one run of a single repeated symbol.
type Block[T Count[T]] struct {
	Symbol tm.Symbol
	Count  T
	// Infinite marks the outermost blank block of each half; Count is
	// unused (conceptually "∞") when this is set. Kept as an explicit
	// bool rather than relying on T.IsInfinite so the outermost block can
	// be built before any domain value is known.
	Infinite bool
}

// Dir identifies which half is currently "on top" under the head. It is a
// direct mirror of tm.Direction: spec.md §4.2 sets m_dir to the transition's
// direction on every move, so DirLeft/DirRight correspond 1:1 to
// tm.Left/tm.Right rather than toggling independently.
type Dir int

const (
	DirLeft Dir = iota
	DirRight
)

func dirOf(d tm.Direction) Dir {
	if d == tm.Right {
		return DirRight
	}
	return DirLeft
}

// Tape is a RunLengthTape<T>: two half-tapes (left, right) of Blocks, the
// current direction, and net head displacement.
type Tape[T Count[T]] struct {
	halves   [2][]Block[T] // index by Dir; halves[d][len-1] is topmost (under/nearest the head)
	dir      Dir
	blank    tm.Symbol
	one      T
	displace T // net head motion, positive = rightward
}

// New builds a RunLengthTape whose both halves start with a single
// infinite blank block, per spec.md §4.2's define(). blank is the blank
// symbol; one is the domain's finite value 1; dir is the direction of the
// machine's very first move (next_move_left_ok forces this Right for the
// initial empty machine, per spec.md §3).
func New[T Count[T]](blank tm.Symbol, one T, dir Dir) *Tape[T] {
	t := &Tape[T]{blank: blank, one: one, dir: dir, displace: one.Sub(one)}
	t.halves[DirLeft] = []Block[T]{{Symbol: blank, Infinite: true}}
	t.halves[DirRight] = []Block[T]{{Symbol: blank, Infinite: true}}
	return t
}

// NewFromBlocks reconstructs a Tape from explicit half-tape block lists,
// used by internal/proof to build the symbolic tape a GeneralChainSimulator
// runs from when generalizing an observed configuration into a Rule. left
// and right are copied, outermost block first, matching the Halves order.
func NewFromBlocks[T Count[T]](blank tm.Symbol, one T, dir Dir, left, right []Block[T], displace T) *Tape[T] {
	t := &Tape[T]{blank: blank, one: one, dir: dir, displace: displace}
	t.halves[DirLeft] = append([]Block[T](nil), left...)
	t.halves[DirRight] = append([]Block[T](nil), right...)
	return t
}

// Dir reports the half currently on top (under the head).
func (t *Tape[T]) Dir() Dir { return t.dir }

// Displace returns net head motion since construction (positive rightward).
func (t *Tape[T]) Displace() T { return t.displace }

// TopBlock returns the block currently under the head (the topmost block
// of the current-direction half).
func (t *Tape[T]) TopBlock() Block[T] {
	half := t.halves[t.dir]
	return half[len(half)-1]
}

// TopSymbol returns the symbol of the block under the head.
func (t *Tape[T]) TopSymbol() tm.Symbol { return t.TopBlock().Symbol }

// Halves exposes both half-tapes read-only, outermost-block-first, for
// stripping into a StrippedConfig (internal/proof) and for NumNonzero.
func (t *Tape[T]) Halves() (left, right []Block[T]) {
	return append([]Block[T](nil), t.halves[DirLeft]...), append([]Block[T](nil), t.halves[DirRight]...)
}

func opposite(d Dir) Dir {
	if d == DirLeft {
		return DirRight
	}
	return DirLeft
}

// ApplySingleMove performs one base step in the expanded semantics
// (spec.md §4.2 apply_single_move): decrement (or drop) the top block of
// the current (pre-move) half, then push the written symbol onto the half
// opposite the *new* direction (coalescing if it matches the top there),
// and adjust displacement by one step in the move direction.
//
// The two-half tape is head-centered: the half named by the current
// direction holds the cell under the head on top, extending away from the
// head in that direction; the other half holds everything on the far side.
// When a move keeps the same direction, the just-written cell falls behind
// the head on the side the machine is leaving, i.e. the opposite half. When
// a move reverses direction, the just-written cell ends up back on the
// same half that was just decremented (push and decrement target the same
// half), because the new head position was already the top of the other
// half before this step.
func (t *Tape[T]) ApplySingleMove(writeSymbol tm.Symbol, moveDir tm.Direction) {
	cur := t.halves[t.dir]
	top := cur[len(cur)-1]
	if !top.Infinite {
		if top.Count.CmpOne() == 0 {
			cur = cur[:len(cur)-1]
		} else {
			top.Count = top.Count.Sub(t.one)
			cur[len(cur)-1] = top
		}
		t.halves[t.dir] = cur
	}

	newDir := dirOf(moveDir)
	t.push(opposite(newDir), writeSymbol, t.one)
	t.dir = newDir
	if moveDir == tm.Right {
		t.displace = t.displace.Add(t.one)
	} else {
		t.displace = t.displace.Sub(t.one)
	}
}

// push appends symbol with the given count onto the named half's top,
// coalescing with the existing top block if its symbol matches. A push of
// the blank symbol onto a half whose top is still the infinite blank block
// is a no-op: the tape is already blank there.
func (t *Tape[T]) push(side Dir, symbol tm.Symbol, count T) {
	half := t.halves[side]
	n := len(half)
	if n > 0 {
		top := half[n-1]
		if top.Infinite {
			if symbol == t.blank {
				return
			}
			t.halves[side] = append(half, Block[T]{Symbol: symbol, Count: count})
			return
		}
		if top.Symbol == symbol {
			top.Count = top.Count.Add(count)
			half[n-1] = top
			t.halves[side] = half
			return
		}
	}
	t.halves[side] = append(half, Block[T]{Symbol: symbol, Count: count})
}

// ChainResult is the outcome of ApplyChainMove.
type ChainResult[T Count[T]] struct {
	// Infinite is true if the top block had infinite count: the chain
	// move would run forever in this direction (spec.md §4.2).
	Infinite bool
	// Count is the (finite) run length consumed, valid when !Infinite.
	Count T
}

// ApplyChainMove performs the chain-move shortcut of spec.md §4.2: used
// when the machine would step in place (same state, same direction) while
// the head symbol block has some count n. If n is infinite, report that
// without mutating the tape. Else remove the whole top block and push
// (newSymbol, n) onto the opposite half with coalescing, advancing
// displacement by n in the move direction.
func (t *Tape[T]) ApplyChainMove(newSymbol tm.Symbol, moveDir tm.Direction) ChainResult[T] {
	top := t.TopBlock()
	if top.Infinite {
		return ChainResult[T]{Infinite: true}
	}
	cur := t.halves[t.dir]
	t.halves[t.dir] = cur[:len(cur)-1]

	t.push(opposite(t.dir), newSymbol, top.Count)

	if moveDir == tm.Right {
		t.displace = t.displace.Add(top.Count)
	} else {
		t.displace = t.displace.Sub(top.Count)
	}
	t.dir = dirOf(moveDir)
	return ChainResult[T]{Count: top.Count}
}

// Weigher is the minimal capability NumNonzero needs from a MachineAdapter:
// its eval_symbol/eval_state overrides (spec.md §4.2, §4.3), which report
// the per-cell and per-state contribution to the Sigma score -- for Simple
// this is just "is the symbol non-blank", while Backsymbol folds in the
// symbol stored behind the head.
type Weigher interface {
	EvalSymbol(sym tm.Symbol) int
	EvalState(state tm.State) int
}

// NumNonzero sums machine.eval_symbol(sym)*count over every finite block on
// both halves and adds machine.eval_state(state) (spec.md §4.2). This is
// the only definition of Sigma anywhere in this codebase -- spec.md §9 Open
// Question (a) resolves in favor of this derivation, not a running counter.
func (t *Tape[T]) NumNonzero(w Weigher, state tm.State) T {
	sum := t.one.MulInt(int64(w.EvalState(state)))
	for side := 0; side < 2; side++ {
		for _, b := range t.halves[side] {
			if b.Infinite {
				continue
			}
			sum = sum.Add(b.Count.MulInt(int64(w.EvalSymbol(b.Symbol))))
		}
	}
	return sum
}

// Coalesced reports whether the tape currently satisfies spec.md §8
// property 1: no two adjacent blocks on either half share a symbol, and
// only the outermost block of each half is infinite. Used by tests and by
// internal assertions after mutating operations.
func (t *Tape[T]) Coalesced() bool {
	for side := 0; side < 2; side++ {
		half := t.halves[side]
		for i, b := range half {
			if b.Infinite && i != 0 {
				return false
			}
			if !b.Infinite && i == 0 {
				return false
			}
			if i > 0 && !half[i-1].Infinite && half[i-1].Symbol == b.Symbol {
				return false
			}
		}
	}
	return true
}
