package adapter

import "bbsearch/internal/tm"

// Simple wraps a tm.Table directly: num_steps = 1, one base cell per block
// (spec.md §4.3).
type Simple struct {
	table *tm.Table
	blank tm.Symbol
}

// NewSimple builds a Simple adapter over table. blank is the tape's blank
// symbol (conventionally 0).
func NewSimple(table *tm.Table, blank tm.Symbol) *Simple {
	return &Simple{table: table, blank: blank}
}

func (s *Simple) EvalSymbol(sym Symbol) int {
	if sym != s.blank {
		return 1
	}
	return 0
}

// EvalState contributes nothing: the base machine has no state bonus of its
// own, only what a wrapping Backsymbol layer adds.
func (s *Simple) EvalState(State) int { return 0 }

func (s *Simple) InitTransition() Transition {
	return Transition{Symbol: s.blank, Dir: tm.Right, State: State{Base: 0}}
}

func (s *Simple) GetTransition(curSymbol Symbol, prevState State, prevDir tm.Direction, peek Symbol) (RunState, Transition, uint64) {
	trans := s.table.Lookup(prevState.Base, curSymbol)
	if !trans.Defined {
		return Undecided, Transition{Symbol: curSymbol, Dir: prevDir, State: prevState}, 0
	}
	out := Transition{Symbol: trans.Write, Dir: trans.Move, State: State{Base: trans.Next}}
	if trans.Next == tm.Halt {
		return Halted, out, 1
	}
	return Running, out, 1
}
