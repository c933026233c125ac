// Package linrecur implements LinRecurDetector (spec.md §4.6): an
// independent, budgeted check that a machine's tape configuration
// eventually repeats itself shifted by a fixed offset after a fixed
// period, which proves the machine runs forever without needing either
// ChainSimulator or ProofSystem.
package linrecur

import (
	"bbsearch/internal/direct"
	"bbsearch/internal/tm"
)

// Result is the outcome of Detect or Check.
type Result struct {
	Halted       bool
	LinRecurrent bool

	// Valid only when LinRecurrent.
	StartStep uint64
	Period    uint64
	Offset    int

	// Valid only when Halted.
	LastState  tm.State
	LastSymbol tm.Symbol
}

// side abstracts over the live Simulator and a frozen Snapshot, since the
// comparison logic below needs to read both.
type side interface {
	Read(pos int) tm.Symbol
	InRange(pos int) bool
}

// Detect runs the doubling search of spec.md §4.6: starting from a
// reference step init_step (1, then 2, 4, 8, ...), it simulates up to
// 2*init_step further steps, and whenever the machine re-enters the state
// it was in at init_step, tests whether the current tape is the init-step
// tape shifted by the head's net displacement. On success it reports the
// period and offset; on halt it reports that; otherwise it doubles
// init_step and tries again. maxSteps is checked only before each new
// window opens, so the last window may run up to 2*init_step, past
// maxSteps; once a window ends at or beyond maxSteps, Detect gives up.
func Detect(table *tm.Table, maxSteps uint64) Result {
	sim := direct.New(table)
	sim.Step()

	for sim.StepNum() < maxSteps {
		initStep := sim.StepNum()
		stepsReset := 2 * initStep
		initState := sim.State()
		initSnap := sim.Snapshot()
		initPos := initSnap.Pos()
		mostLeft, mostRight := initPos, initPos

		for sim.StepNum() < stepsReset {
			sim.Step()
			if sim.IsHalted() {
				return Result{Halted: true, LastState: sim.LastState(), LastSymbol: sim.LastSymbol()}
			}
			if sim.Status() != direct.Running {
				// Undefined transition or a trivial-sweep verdict from the
				// inner DirectSimulator: neither is a LinRecur finding, and
				// there is nothing further to simulate.
				return Result{}
			}

			if sim.Pos() < mostLeft {
				mostLeft = sim.Pos()
			}
			if sim.Pos() > mostRight {
				mostRight = sim.Pos()
			}

			if sim.State() == initState {
				offset := sim.Pos() - initPos
				if matchesAtOffset(initSnap, sim, mostLeft, mostRight, offset) {
					return Result{
						LinRecurrent: true,
						StartStep:    initStep,
						Period:       sim.StepNum() - initStep,
						Offset:       offset,
					}
				}
			}
		}
	}

	return Result{}
}

// matchesAtOffset implements spec.md §4.6's three offset cases.
func matchesAtOffset(init side, cur side, mostLeft, mostRight, offset int) bool {
	switch {
	case offset > 0:
		return halvesEqual(init, mostLeft, cur, mostLeft+offset, +1)
	case offset < 0:
		return halvesEqual(init, mostRight, cur, mostRight+offset, -1)
	default:
		return sectionsEqual(init, cur, mostLeft, mostRight)
	}
}

// halvesEqual walks two half-tapes outward from their respective starting
// positions in lockstep, stopping once both have walked past their
// ever-written extent (everything further out is blank on both sides).
func halvesEqual(a side, posA int, b side, posB int, dirOffset int) bool {
	for a.InRange(posA) || b.InRange(posB) {
		if a.Read(posA) != b.Read(posB) {
			return false
		}
		posA += dirOffset
		posB += dirOffset
	}
	return true
}

// sectionsEqual compares a fixed [mostLeft, mostRight] window between two
// tapes position-for-position, used for the offset == 0 case.
func sectionsEqual(a, b side, mostLeft, mostRight int) bool {
	for pos := mostLeft; pos <= mostRight; pos++ {
		if a.Read(pos) != b.Read(pos) {
			return false
		}
	}
	return true
}

// Check is the non-searching variant: it verifies a specific (start,
// period) claim directly rather than discovering one, by simulating to
// start, snapshotting, simulating period steps further, and checking the
// same three offset cases as Detect.
func Check(table *tm.Table, start, period uint64) Result {
	sim := direct.New(table)
	sim.Seek(start)
	if sim.IsHalted() {
		return Result{Halted: true, LastState: sim.LastState(), LastSymbol: sim.LastSymbol()}
	}
	if sim.Status() != direct.Running {
		return Result{}
	}

	initState := sim.State()
	initSnap := sim.Snapshot()
	initPos := initSnap.Pos()
	mostLeft, mostRight := initPos, initPos

	goal := start + period
	for sim.StepNum() < goal {
		sim.Step()
		if sim.IsHalted() {
			return Result{Halted: true, LastState: sim.LastState(), LastSymbol: sim.LastSymbol()}
		}
		if sim.Status() != direct.Running {
			return Result{}
		}
		if sim.Pos() < mostLeft {
			mostLeft = sim.Pos()
		}
		if sim.Pos() > mostRight {
			mostRight = sim.Pos()
		}
	}

	if sim.State() != initState {
		return Result{}
	}
	offset := sim.Pos() - initPos
	if !matchesAtOffset(initSnap, sim, mostLeft, mostRight, offset) {
		return Result{}
	}
	return Result{LinRecurrent: true, StartStep: start, Period: period, Offset: offset}
}
