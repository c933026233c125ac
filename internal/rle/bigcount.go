package rle

import "math/big"

// BigCount adapts *big.Int to rle.Count[BigCount], the concrete count
// domain ChainSimulator's RunLengthTape uses (spec.md §9: "a process that
// runs 10^100 steps is routine", hence arbitrary precision).
//
// infinite is a distinct boolean flag rather than a sentinel *big.Int
// value: spec.md §9 Open Question (b) requires Infinity never be confused
// with any ordinary encoding (the original C++ overloads -1 for both
// "infinite" and "undefined write symbol"; this type keeps the two apart).
type BigCount struct {
	v        *big.Int
	infinite bool
}

// NewBigCount wraps a concrete *big.Int value.
func NewBigCount(v *big.Int) BigCount { return BigCount{v: v} }

// BigCountN is a convenience constructor from an int64.
func BigCountN(n int64) BigCount { return BigCount{v: big.NewInt(n)} }

// InfiniteBigCount is the Infinity sentinel for the BigCount domain.
func InfiniteBigCount() BigCount { return BigCount{infinite: true} }

// Int returns the underlying big.Int. Panics if called on Infinity.
func (b BigCount) Int() *big.Int {
	if b.infinite {
		panic("rle: Int() called on infinite BigCount")
	}
	return b.v
}

func (b BigCount) IsInfinite() bool { return b.infinite }

func (b BigCount) Add(other BigCount) BigCount {
	if b.infinite || other.infinite {
		return InfiniteBigCount()
	}
	return BigCount{v: new(big.Int).Add(b.v, other.v)}
}

func (b BigCount) Sub(other BigCount) BigCount {
	if b.infinite || other.infinite {
		return InfiniteBigCount()
	}
	return BigCount{v: new(big.Int).Sub(b.v, other.v)}
}

func (b BigCount) CmpOne() int {
	if b.infinite {
		panic("rle: CmpOne() called on infinite BigCount")
	}
	return b.v.Cmp(big.NewInt(1))
}

func (b BigCount) IsZero() bool {
	if b.infinite {
		return false
	}
	return b.v.Sign() == 0
}

func (b BigCount) One() BigCount { return BigCountN(1) }

func (b BigCount) MulInt(k int64) BigCount {
	if b.infinite {
		if k == 0 {
			return BigCountN(0)
		}
		return InfiniteBigCount()
	}
	return BigCount{v: new(big.Int).Mul(b.v, big.NewInt(k))}
}

// Cmp compares two finite BigCounts the way big.Int.Cmp does.
func (b BigCount) Cmp(other BigCount) int {
	if b.infinite || other.infinite {
		panic("rle: Cmp() called with an infinite BigCount")
	}
	return b.v.Cmp(other.v)
}
