// Package enumerate implements Machine, Enumerator, and Filter (spec.md
// §4.7): the Tree Normal Form depth-first search that builds Turing
// machines one transition at a time and hands each one to a Filter before
// deciding whether to expand it further.
package enumerate

import (
	"strconv"

	"bbsearch/internal/tm"
)

// Machine is one node of the TNF search tree: an in-progress transition
// table plus the bookkeeping TNF needs to bound a child's candidate
// transitions to states and symbols already seen (or one beyond), so the
// search never revisits machines related by a mere relabeling of states or
// symbols.
//
// Grounded directly on turing_machine.h/.cpp's TuringMachine: MaxNextState,
// MaxNextSymbol, and NextMoveLeftOK are exactly its max_next_state_,
// max_next_symbol_, and next_move_left_ok_ fields. num_halts_ is not
// tracked separately here; tm.Table.NumHalts() (a count of still-undefined
// cells) is the same quantity by construction, since every expansion fills
// exactly one more cell.
type Machine struct {
	Table *tm.Table

	MaxNextState   tm.State
	MaxNextSymbol  tm.Symbol
	NextMoveLeftOK bool

	// HereditaryName traces the path from the root machine to this one as
	// comma-joined child-order indices, matching hereditary_name_. The root
	// machine's name is "", so its first child's name is ",0" -- a faithful
	// quirk of the original numbering, not a formatting bug.
	HereditaryName string
}

// NewEmpty builds the root of the search tree: every cell undefined, no
// symbol or state beyond A/0 and B/1 admitted yet, and no leftward move
// admitted until some child has used one (turing_machine.cpp's empty-TM
// constructor).
func NewEmpty(numStates, numSymbols int) *Machine {
	return &Machine{
		Table:          tm.NewTable(numStates, numSymbols),
		MaxNextState:   1,
		MaxNextSymbol:  1,
		NextMoveLeftOK: false,
		HereditaryName: "",
	}
}

// Expand generates every child of m obtained by filling the (lastState,
// lastSymbol) cell with one admissible transition, in the exact order
// enumerator.cpp's expand_tm loops them: next_state outer (0..MaxNextState),
// next_symbol middle (0..MaxNextSymbol), move inner (Right always
// admissible, Left only once NextMoveLeftOK). The caller is responsible for
// the "don't expand the last undefined cell" guard (spec.md §4.7); Expand
// itself always produces the full child set for the given cell.
func (m *Machine) Expand(lastState tm.State, lastSymbol tm.Symbol) []*Machine {
	numStates := m.Table.NumStates()
	numSymbols := m.Table.NumSymbols()

	var children []*Machine
	order := 0
	for next := tm.State(0); next <= m.MaxNextState; next++ {
		for sym := tm.Symbol(0); sym <= m.MaxNextSymbol; sym++ {
			for _, move := range [...]tm.Direction{tm.Right, tm.Left} {
				if move == tm.Left && !m.NextMoveLeftOK {
					continue
				}
				trans := tm.NewTransition(sym, move, next)
				children = append(children, &Machine{
					Table:          m.Table.WithCell(lastState, lastSymbol, trans),
					MaxNextState:   maxState(m.MaxNextState, clampState(next+1, numStates)),
					MaxNextSymbol:  maxSymbol(m.MaxNextSymbol, clampSymbol(sym+1, numSymbols)),
					NextMoveLeftOK: true,
					HereditaryName: m.HereditaryName + "," + strconv.Itoa(order),
				})
				order++
			}
		}
	}
	return children
}

// Rebuild reconstructs a Machine's TNF bookkeeping purely from a Table's
// defined cells, for resuming a stack snapshot (spec.md §6): the snapshot's
// textual form stores only the table, not MaxNextState/MaxNextSymbol/
// NextMoveLeftOK, so a restored machine must recover them by inspection
// instead. HereditaryName cannot be recovered this way; it comes back
// empty, which is harmless since Expand never reads it.
func Rebuild(table *tm.Table) *Machine {
	numStates := table.NumStates()
	numSymbols := table.NumSymbols()

	maxNextState := tm.State(1)
	maxNextSymbol := tm.Symbol(1)
	leftOK := false
	for s := 0; s < numStates; s++ {
		for a := 0; a < numSymbols; a++ {
			cell := table.Lookup(tm.State(s), tm.Symbol(a))
			if !cell.Defined {
				continue
			}
			// Any defined cell means the root's one-time Right-only
			// restriction has already been lifted for its children.
			leftOK = true
			if cell.Next != tm.Halt {
				maxNextState = maxState(maxNextState, clampState(cell.Next+1, numStates))
			}
			maxNextSymbol = maxSymbol(maxNextSymbol, clampSymbol(cell.Write+1, numSymbols))
		}
	}
	return &Machine{
		Table:          table,
		MaxNextState:   maxNextState,
		MaxNextSymbol:  maxNextSymbol,
		NextMoveLeftOK: leftOK,
	}
}

func clampState(s tm.State, numStates int) tm.State {
	if bound := tm.State(numStates - 1); s > bound {
		return bound
	}
	return s
}

func clampSymbol(s tm.Symbol, numSymbols int) tm.Symbol {
	if bound := tm.Symbol(numSymbols - 1); s > bound {
		return bound
	}
	return s
}

func maxState(a, b tm.State) tm.State {
	if a > b {
		return a
	}
	return b
}

func maxSymbol(a, b tm.Symbol) tm.Symbol {
	if a > b {
		return a
	}
	return b
}
