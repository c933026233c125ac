package adapter

import "bbsearch/internal/tm"

// Macro clumps k adjacent base cells into one block symbol, simulating the
// wrapped adapter over a fresh length-k tape pre-loaded with the incoming
// block until the base machine walks off one end (spec.md §4.3).
//
// The block itself is a tuple of k inner symbols, but Macro packs it into a
// single base-S integer (S = inner's alphabet size) before handing it back:
// rle.Tape stores plain tm.Symbol values and has no notion of tuples, so
// every adapter layer -- however many base cells it represents -- must speak
// that same flat integer alphabet.
type Macro struct {
	inner       Adapter
	k           int
	innerAlpha  int    // S, the wrapped adapter's alphabet size
	maxSteps    uint64 // k * N * S^k, the block-local-cycle budget
	blankPacked Symbol
}

// NewMacro wraps inner into a block-k adapter. numStates and numSymbols are
// the *base* machine's N and S, used to size the step budget and the
// packing base.
func NewMacro(inner Adapter, k, numStates, numSymbols int) *Macro {
	sToK := uint64(1)
	for i := 0; i < k; i++ {
		sToK *= uint64(numSymbols)
	}
	return &Macro{
		inner:       inner,
		k:           k,
		innerAlpha:  numSymbols,
		maxSteps:    uint64(k) * uint64(numStates) * sToK,
		blankPacked: 0, // the all-blank tuple packs to 0 in any base
	}
}

// unpack decodes a packed block symbol into its k inner symbols, most
// significant (leftmost tape cell) digit first.
func (m *Macro) unpack(sym Symbol) []tm.Symbol {
	digits := make([]tm.Symbol, m.k)
	v := int(sym)
	for i := m.k - 1; i >= 0; i-- {
		digits[i] = tm.Symbol(v % m.innerAlpha)
		v /= m.innerAlpha
	}
	return digits
}

// pack encodes k inner symbols into one base-S integer.
func (m *Macro) pack(digits []tm.Symbol) Symbol {
	v := 0
	for _, d := range digits {
		v = v*m.innerAlpha + int(d)
	}
	return Symbol(v)
}

// EvalSymbol sums the wrapped adapter's per-cell score over the block.
func (m *Macro) EvalSymbol(sym Symbol) int {
	sum := 0
	for _, d := range m.unpack(sym) {
		sum += m.inner.EvalSymbol(d)
	}
	return sum
}

// EvalState contributes nothing of its own: "Block Macro Machines
// contribute nothing from state, but the base machine" (spec.md §4.3).
func (m *Macro) EvalState(state State) int { return m.inner.EvalState(state) }

func (m *Macro) InitTransition() Transition {
	initTrans := m.inner.InitTransition()
	return Transition{Symbol: m.blankPacked, Dir: initTrans.Dir, State: initTrans.State}
}

func (m *Macro) GetTransition(curSymbol Symbol, prevState State, prevDir tm.Direction, peek Symbol) (RunState, Transition, uint64) {
	block := m.unpack(curSymbol)
	state := prevState
	dir := prevDir
	var pos int
	if prevDir == tm.Right {
		pos = 0
	} else {
		pos = m.k - 1
	}

	var totalSteps uint64
	for pos >= 0 && pos < m.k {
		runState, out, steps := m.inner.GetTransition(block[pos], state, dir, 0)
		totalSteps += steps

		block[pos] = out.Symbol
		state = out.State
		dir = out.Dir

		if runState != Running {
			return runState, Transition{Symbol: m.pack(block), Dir: dir, State: state}, totalSteps
		}

		if totalSteps > m.maxSteps {
			return Infinite, Transition{Symbol: m.pack(block), Dir: dir, State: state}, totalSteps
		}

		if dir == tm.Right {
			pos++
		} else {
			pos--
		}
	}

	return Running, Transition{Symbol: m.pack(block), Dir: dir, State: state}, totalSteps
}
