package adapter

import "bbsearch/internal/tm"

// FindBlockSize is the BlockFinder heuristic of spec.md §2: picks a good
// block size k for Macro by trial-running a Macro(k)-wrapped Simple adapter
// for a fixed base-step budget and keeping whichever k consumes the fewest
// macro-level GetTransition calls to cover that many base steps -- i.e. the
// best observed compression ratio. original_source/FastSim/Block_Finder.h
// specifies only the class shape, not its heuristic, so this is an
// adaptation rather than a port.
func FindBlockSize(table *tm.Table, blank tm.Symbol, maxBlockSize int, trialSteps uint64) int {
	if maxBlockSize < 1 {
		maxBlockSize = 1
	}
	best := 1
	bestCalls := ^uint64(0)

	for k := 1; k <= maxBlockSize; k++ {
		calls := trialMacroCalls(table, blank, k, trialSteps)
		if calls == 0 {
			continue
		}
		if calls < bestCalls {
			bestCalls = calls
			best = k
		}
	}
	return best
}

// trialMacroCalls runs a Macro(k) adapter from the machine's initial
// configuration until it has covered at least budget base steps (or the
// run terminates), returning how many GetTransition calls that took. Fewer
// calls for the same base-step coverage means better compression.
func trialMacroCalls(table *tm.Table, blank tm.Symbol, k int, budget uint64) uint64 {
	simple := NewSimple(table, blank)
	macro := NewMacro(simple, k, table.NumStates(), table.NumSymbols())

	init := macro.InitTransition()
	sym := init.Symbol
	state := init.State
	dir := init.Dir

	var baseSteps, calls uint64
	for baseSteps < budget {
		runState, out, steps := macro.GetTransition(sym, state, dir, 0)
		calls++
		baseSteps += steps
		if runState != Running {
			break
		}
		sym, state, dir = out.Symbol, out.State, out.Dir
	}
	return calls
}
