package adapter

import "bbsearch/internal/tm"

// Backsymbol folds the symbol immediately behind the head into the state:
// the composite state becomes (inner state, back symbol), so the head sees
// the next symbol and simultaneously remembers the symbol it is stepping
// away from (spec.md §4.3).
//
// The written tape content is unaffected -- only the composite State grows
// a Back field -- so GetTransition's out.Symbol is always exactly what the
// wrapped adapter decided to write. When the wrapped adapter's direction
// doesn't change, the new back symbol is the one just written (it has
// fallen in behind the new head position); when direction reverses, the old
// back symbol is no longer behind the head at all, so the real one must be
// re-read from the tape, which is why GetTransition takes peek.
type Backsymbol struct {
	inner Adapter
}

// NewBacksymbol wraps inner with a back-symbol layer.
func NewBacksymbol(inner Adapter) *Backsymbol {
	return &Backsymbol{inner: inner}
}

func (b *Backsymbol) EvalSymbol(sym Symbol) int { return b.inner.EvalSymbol(sym) }

// EvalState returns the wrapped adapter's symbol evaluation of the back
// symbol, so tape scoring still reflects the cell that back-symbol folding
// removed from the visible tape (spec.md §4.3).
func (b *Backsymbol) EvalState(state State) int { return b.inner.EvalSymbol(state.Back) }

func (b *Backsymbol) InitTransition() Transition {
	init := b.inner.InitTransition()
	return Transition{
		Symbol: init.Symbol,
		Dir:    init.Dir,
		State:  State{Base: init.State.Base, Back: 0},
	}
}

func (b *Backsymbol) GetTransition(curSymbol Symbol, prevState State, prevDir tm.Direction, peek Symbol) (RunState, Transition, uint64) {
	runState, out, steps := b.inner.GetTransition(curSymbol, State{Base: prevState.Base}, prevDir, 0)

	newBack := prevState.Back
	if out.Dir == prevDir {
		// Continuing the same direction: the cell we just wrote falls in
		// immediately behind the new head position.
		newBack = out.Symbol
	} else if runState == Running {
		// Reversed: the actual neighbor is whatever the caller peeked from
		// the tape's other half, not derivable from state alone.
		newBack = peek
	}

	composite := Transition{
		Symbol: out.Symbol,
		Dir:    out.Dir,
		State:  State{Base: out.State.Base, Back: newBack},
	}
	return runState, composite, steps
}
