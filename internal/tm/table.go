// Package tm holds the immutable data model for Turing machines under
// enumeration: symbols, states, directions, transitions, and the
// TransitionTable they compose into.
//
// A TransitionTable is read-only once built (spec.md §3's "Invariant:
// read-only after construction"); machines are never mutated in place,
// only rebuilt as children via WithCell.
package tm

import "fmt"

// Symbol is a non-negative integer in [0, S). The base alphabet size S is
// fixed per run.
type Symbol int

// State is a non-negative integer in [0, N). Halt is the distinct sentinel
// meaning "the machine has halted", never a valid index into a table's rows.
type State int

// Halt is the sentinel next-state meaning the machine has halted.
const Halt State = -1

// Direction is the head's move, Left or Right.
type Direction int8

const (
	Left Direction = iota
	Right
)

func (d Direction) String() string {
	if d == Left {
		return "L"
	}
	return "R"
}

// Transition is either Undefined, or a triple (Write, Move, Next). Next may
// be Halt. The zero value is the undefined transition.
type Transition struct {
	Defined bool
	Write   Symbol
	Move    Direction
	Next    State
}

// Undefined is the zero-value undefined transition, named for readability
// at call sites.
var Undefined = Transition{}

// NewTransition builds a defined transition.
func NewTransition(write Symbol, move Direction, next State) Transition {
	return Transition{Defined: true, Write: write, Move: move, Next: next}
}

// Table is an immutable N×S transition table. Keys are exhaustive: every
// (State, Symbol) pair in range has an entry, possibly Undefined.
type Table struct {
	numStates  int
	numSymbols int
	cells      []Transition // row-major, len == numStates*numSymbols
}

// NewTable builds an empty (all-Undefined) table of the given dimensions.
func NewTable(numStates, numSymbols int) *Table {
	if numStates <= 0 || numSymbols <= 0 {
		panic("tm: NewTable requires positive dimensions")
	}
	return &Table{
		numStates:  numStates,
		numSymbols: numSymbols,
		cells:      make([]Transition, numStates*numSymbols),
	}
}

// NewTableFrom copies cells into a new table of the given dimensions,
// validating that every transition lies within range. Used for loading
// text-format tables (internal/tm/format.go) and legacy bracketed tables.
func NewTableFrom(numStates, numSymbols int, cells []Transition) (*Table, error) {
	if len(cells) != numStates*numSymbols {
		return nil, fmt.Errorf("tm: expected %d cells, got %d", numStates*numSymbols, len(cells))
	}
	t := &Table{numStates: numStates, numSymbols: numSymbols, cells: append([]Transition(nil), cells...)}
	for _, c := range t.cells {
		if !c.Defined {
			continue
		}
		if int(c.Write) < 0 || int(c.Write) >= numSymbols {
			return nil, fmt.Errorf("tm: write symbol %d out of range [0,%d)", c.Write, numSymbols)
		}
		if c.Next != Halt && (int(c.Next) < 0 || int(c.Next) >= numStates) {
			return nil, fmt.Errorf("tm: next state %d out of range [0,%d)", c.Next, numStates)
		}
	}
	return t, nil
}

// NumStates is N.
func (t *Table) NumStates() int { return t.numStates }

// NumSymbols is S.
func (t *Table) NumSymbols() int { return t.numSymbols }

// Lookup returns the transition recorded for (state, symbol). Panics if
// state or symbol is out of range; Halt is never a valid lookup state.
func (t *Table) Lookup(state State, symbol Symbol) Transition {
	if int(state) < 0 || int(state) >= t.numStates {
		panic(fmt.Sprintf("tm: state %d out of range", state))
	}
	if int(symbol) < 0 || int(symbol) >= t.numSymbols {
		panic(fmt.Sprintf("tm: symbol %d out of range", symbol))
	}
	return t.cells[int(state)*t.numSymbols+int(symbol)]
}

// WithCell returns a new Table equal to t except cell (state, symbol) is
// set to trans. Tables are immutable, so every edit of the in-progress
// enumeration (filling an undefined cell to produce a child) goes through
// this copy-on-write path; see enumerate.Machine.Expand.
func (t *Table) WithCell(state State, symbol Symbol, trans Transition) *Table {
	cells := append([]Transition(nil), t.cells...)
	cells[int(state)*t.numSymbols+int(symbol)] = trans
	return &Table{numStates: t.numStates, numSymbols: t.numSymbols, cells: cells}
}

// NumHalts counts still-undefined cells: the potential halting transitions
// of spec.md §3's `num_halts`.
func (t *Table) NumHalts() int {
	n := 0
	for _, c := range t.cells {
		if !c.Defined {
			n++
		}
	}
	return n
}

// FirstUndefined returns the first (state, symbol) in (state outer, symbol
// inner) order whose cell is Undefined, and true if one exists. This is the
// cell the Enumerator expands when a filter reports Undefined (spec.md §4.7).
func (t *Table) FirstUndefined() (State, Symbol, bool) {
	for s := 0; s < t.numStates; s++ {
		for a := 0; a < t.numSymbols; a++ {
			if !t.cells[s*t.numSymbols+a].Defined {
				return State(s), Symbol(a), true
			}
		}
	}
	return 0, 0, false
}
