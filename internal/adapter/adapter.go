// Package adapter implements the MachineAdapter capability set of spec.md
// §4.3: a closed tagged union of three variants -- Simple, Macro(k), and
// Backsymbol -- each exposing {EvalSymbol, EvalState, GetTransition} and
// composed by wrapping rather than by subclassing, per DESIGN NOTES'
// preference for "an outer enum with a boxed inner adapter."
package adapter

import "bbsearch/internal/tm"

// RunState is the three-or-four-way outcome of one GetTransition call.
type RunState int

const (
	Running RunState = iota
	Halted
	Undecided
	// Infinite is reported only by Macro when its bounded inner simulation
	// exceeds its step budget without the base machine walking off the
	// block (a block-local cycle, spec.md §4.3).
	Infinite
)

func (r RunState) String() string {
	switch r {
	case Running:
		return "Running"
	case Halted:
		return "Halted"
	case Undecided:
		return "Undecided"
	case Infinite:
		return "Infinite"
	default:
		return "Unknown"
	}
}

// Symbol is a single value in an adapter's output alphabet. For Simple this
// is a base symbol; Macro(k) packs its k-tuple of base symbols into one
// integer in base S (S = the wrapped adapter's alphabet size), so the tape
// underneath -- rle.Tape, which only ever stores tm.Symbol -- never needs to
// know whether it is holding a base symbol or a packed block.
type Symbol = tm.Symbol

// State is the composite "state" an adapter hands back and forth: the
// underlying machine state plus, once a Backsymbol layer is in play, the
// symbol recorded as lying immediately behind the head (spec.md §4.3). Base
// and Back together are exactly what a chain move's "same state" test must
// compare -- two States are the same state only if both fields match.
type State struct {
	Base tm.State
	Back Symbol // only meaningful under a Backsymbol layer
}

// Equal reports whether two States denote the same composite state.
func (s State) Equal(other State) bool {
	return s.Base == other.Base && s.Back == other.Back
}

// Transition is the outer (symbol, direction, state) triple an adapter
// reports: the block to write, the direction moved, and the state/back-symbol
// landed in. Next == tm.Halt (inside State.Base) signals halting.
type Transition struct {
	Symbol Symbol
	Dir    tm.Direction
	State  State
}

// Adapter is the capability set of spec.md §4.3. peek is the symbol the
// caller (ChainSimulator) has already read from the tape's opposite half --
// the cell that would become the new back-symbol if this step reverses
// direction. Simple and Macro ignore it; only Backsymbol reads it, on a
// direction reversal, to satisfy "the back symbol is re-read from the tape."
type Adapter interface {
	EvalSymbol(sym Symbol) int
	EvalState(state State) int
	// InitTransition is m_init_trans: the (blank symbol, initial direction,
	// initial state) triple a ChainSimulator uses to define() its tape.
	InitTransition() Transition
	GetTransition(curSymbol Symbol, prevState State, prevDir tm.Direction, peek Symbol) (RunState, Transition, uint64)
}
