package direct

import (
	"testing"

	"bbsearch/internal/tm"
)

// known BB(2) champion: 1RB 1LB  1LA 1RZ, halts at step 6 with sigma 4.
func bb2Table() *tm.Table {
	return tm.NewTable(2, 2).
		WithCell(0, 0, tm.NewTransition(1, tm.Right, 1)).
		WithCell(0, 1, tm.NewTransition(1, tm.Left, 1)).
		WithCell(1, 0, tm.NewTransition(1, tm.Left, 0)).
		WithCell(1, 1, tm.NewTransition(1, tm.Right, tm.Halt))
}

func TestBB2HaltsAtSixStepsSigmaFour(t *testing.T) {
	s := New(bb2Table())
	s.Seek(10000)
	if !s.IsHalted() {
		t.Fatalf("expected halted, got status %v", s.Status())
	}
	if s.StepNum() != 6 {
		t.Errorf("StepNum() = %d, want 6", s.StepNum())
	}
	if got := s.SigmaScore(); got != 4 {
		t.Errorf("SigmaScore() = %d, want 4", got)
	}
}

func TestHaltsOnFirstStep(t *testing.T) {
	table := tm.NewTable(1, 1).WithCell(0, 0, tm.NewTransition(1, tm.Right, tm.Halt))
	s := New(table)
	s.Seek(10)
	if !s.IsHalted() || s.StepNum() != 1 {
		t.Errorf("expected halted at step 1, got status %v step %d", s.Status(), s.StepNum())
	}
}

func TestUndefinedTransitionReportsUndecided(t *testing.T) {
	table := tm.NewTable(1, 1) // entirely undefined
	s := New(table)
	s.Seek(10)
	if s.Status() != Undecided {
		t.Errorf("Status() = %v, want Undecided", s.Status())
	}
	if s.LastState() != 0 || s.LastSymbol() != 0 {
		t.Errorf("LastState/LastSymbol = (%d,%d), want (0,0)", s.LastState(), s.LastSymbol())
	}
}

func TestTrivialRightSweepDetectedAtStepTwo(t *testing.T) {
	// spec.md §8 S4: state A, 0->1RA, 1->1RA.
	table := tm.NewTable(1, 2).
		WithCell(0, 0, tm.NewTransition(1, tm.Right, 0)).
		WithCell(0, 1, tm.NewTransition(1, tm.Right, 0))
	s := New(table)
	s.Step()
	if s.Status() != Running {
		t.Fatalf("after step 1, status = %v, want Running", s.Status())
	}
	s.Step()
	if s.Status() != Infinite {
		t.Fatalf("after step 2, status = %v, want Infinite", s.Status())
	}
	if s.StepNum() != 2 {
		t.Errorf("StepNum() = %d, want 2", s.StepNum())
	}
}

func TestTrivialLeftSweepDetected(t *testing.T) {
	table := tm.NewTable(1, 2).
		WithCell(0, 0, tm.NewTransition(0, tm.Left, 0)).
		WithCell(0, 1, tm.NewTransition(1, tm.Left, 0))
	s := New(table)
	s.Seek(100)
	if s.Status() != Infinite {
		t.Errorf("Status() = %v, want Infinite", s.Status())
	}
}

func TestSingleStateMachineMovesOneCellThenHalts(t *testing.T) {
	table := tm.NewTable(1, 1).WithCell(0, 0, tm.NewTransition(1, tm.Right, tm.Halt))
	s := New(table)
	s.Seek(10)
	if s.SigmaScore() != 1 || s.Space() != 1 {
		t.Errorf("sigma=%d space=%d, want sigma=1 space=1", s.SigmaScore(), s.Space())
	}
}

func TestEmptyTapeOnStart(t *testing.T) {
	table := tm.NewTable(1, 1).WithCell(0, 0, tm.NewTransition(0, tm.Right, tm.Halt))
	s := New(table)
	if s.SigmaScore() != 0 {
		t.Errorf("fresh simulator should report sigma 0")
	}
}

func TestSeekStopsAtBudgetWhenUndecided(t *testing.T) {
	// Machine that never halts nor triggers the trivial-sweep check:
	// bounces between two states writing alternating symbols.
	table := tm.NewTable(2, 2).
		WithCell(0, 0, tm.NewTransition(1, tm.Right, 1)).
		WithCell(0, 1, tm.NewTransition(0, tm.Right, 1)).
		WithCell(1, 0, tm.NewTransition(1, tm.Left, 0)).
		WithCell(1, 1, tm.NewTransition(0, tm.Left, 0))
	s := New(table)
	s.Seek(50)
	if s.Status() != Running {
		t.Errorf("Status() = %v, want Running (budget exhausted, not decided)", s.Status())
	}
	if s.StepNum() != 50 {
		t.Errorf("StepNum() = %d, want 50", s.StepNum())
	}
}
