package enumerate

import (
	"math/big"
	"testing"

	"bbsearch/internal/tm"
)

// stubFilter treats any machine with an undefined cell as stopping there
// (mirroring the common case a real Filter reports when its step budget
// runs out before covering every reachable cell) and any fully-defined
// machine as genuinely Halted. It lets these tests exercise Enumerator's
// stack/expand bookkeeping exhaustively without depending on the behavior
// of a real simulator.
type stubFilter struct{}

func (stubFilter) Run(table *tm.Table, _ uint64) Outcome {
	st, sym, ok := table.FirstUndefined()
	if !ok {
		return Outcome{Status: Halted, Steps: big.NewInt(0), Sigma: big.NewInt(0)}
	}
	return Outcome{Status: UndefinedTransition, LastState: st, LastSymbol: sym}
}

type countingSink struct {
	halts, infs, undecided int
}

func (s *countingSink) Halt(*Machine, *tm.Table, Outcome) { s.halts++ }
func (s *countingSink) Infinite(*Machine, Outcome)        { s.infs++ }
func (s *countingSink) Undecided(*Machine)                { s.undecided++ }

// TestDrainRespectsAllowNoHaltGuard enumerates NewEmpty(2,1): root has 2
// undefined cells; expanding the first (Right-only, 2 next-states * 2
// next-symbols = 4 children) leaves each child with exactly one undefined
// cell, which AllowNoHalt=false must not expand further.
func TestDrainRespectsAllowNoHaltGuard(t *testing.T) {
	sink := &countingSink{}
	e := NewEnumerator(stubFilter{}, 1000, false, sink)
	e.Seed(NewEmpty(2, 1))
	e.Drain(nil)

	if e.Stats.Total != 5 {
		t.Errorf("Stats.Total = %d, want 5 (1 root + 4 one-cell-undefined children)", e.Stats.Total)
	}
	if sink.halts != 5 {
		t.Errorf("sink.halts = %d, want 5", sink.halts)
	}
	if sink.infs != 0 || sink.undecided != 0 {
		t.Errorf("infs/undecided = %d/%d, want 0/0", sink.infs, sink.undecided)
	}
	if e.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 (stack drained)", e.Pending())
	}
}

// TestDrainExpandsLastCellWhenAllowNoHaltTrue reruns the same shape with
// AllowNoHalt=true, so the 4 one-cell-undefined children are expanded too:
// each has NextMoveLeftOK=true and MaxNextState=MaxNextSymbol=1, so each
// produces 2*2*2=8 fully-defined leaves, for 1+4+32=37 total.
func TestDrainExpandsLastCellWhenAllowNoHaltTrue(t *testing.T) {
	sink := &countingSink{}
	e := NewEnumerator(stubFilter{}, 1000, true, sink)
	e.Seed(NewEmpty(2, 1))
	e.Drain(nil)

	if e.Stats.Total != 37 {
		t.Errorf("Stats.Total = %d, want 37", e.Stats.Total)
	}
	if sink.halts != 37 {
		t.Errorf("sink.halts = %d, want 37", sink.halts)
	}
}

// TestDrainStopsEarlyWhenShouldContinueReturnsFalse confirms cooperative
// shutdown leaves unfinished work on the stack rather than discarding it.
func TestDrainStopsEarlyWhenShouldContinueReturnsFalse(t *testing.T) {
	sink := &countingSink{}
	e := NewEnumerator(stubFilter{}, 1000, false, sink)
	e.Seed(NewEmpty(2, 1))

	calls := 0
	e.Drain(func() bool {
		calls++
		return calls <= 1 // allow exactly one pop, then stop
	})

	if e.Stats.Total != 1 {
		t.Errorf("Stats.Total = %d, want 1 (only the root popped)", e.Stats.Total)
	}
	if e.Pending() != 4 {
		t.Errorf("Pending() = %d, want 4 (root's children left queued)", e.Pending())
	}

	snap := e.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("Snapshot() returned %d machines, want 4", len(snap))
	}

	e2 := NewEnumerator(stubFilter{}, 1000, false, &countingSink{})
	e2.Restore(snap)
	e2.Drain(nil)
	if e2.Stats.Total != 4 {
		t.Errorf("resumed Stats.Total = %d, want 4 (the remaining children)", e2.Stats.Total)
	}
}

// TestLazyBeaverSkipsRealizedStepCounts checks the smallest-missing-count
// logic against a hand-picked set of realized halting step counts, the
// same min_missing() scan lazy_beaver_enumerator.cpp runs over
// steps_realized_.
func TestLazyBeaverSkipsRealizedStepCounts(t *testing.T) {
	var s Stats
	if got := s.LazyBeaver(); got.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("LazyBeaver() with nothing realized = %v, want 1", got)
	}

	for _, n := range []int64{1, 2, 4, 5} {
		s.Observe(big.NewInt(n), big.NewInt(n))
	}
	if got := s.LazyBeaver(); got.Cmp(big.NewInt(3)) != 0 {
		t.Errorf("LazyBeaver() = %v, want 3 (the smallest step count not realized)", got)
	}
	if s.ChampionSteps.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("ChampionSteps = %v, want 5 (the longest run observed)", s.ChampionSteps)
	}
}

// TestStatsMergeUnionsRealizedSetsAndKeepsLongerChampion mirrors how
// Coordinator.Run combines each worker's private Stats (spec.md §5): the
// realized sets union, and the champion is whichever side ran longer.
func TestStatsMergeUnionsRealizedSetsAndKeepsLongerChampion(t *testing.T) {
	var a, b Stats
	a.Observe(big.NewInt(1), big.NewInt(1))
	a.Observe(big.NewInt(3), big.NewInt(2))
	b.Observe(big.NewInt(2), big.NewInt(1))
	b.Observe(big.NewInt(100), big.NewInt(9))

	a.Merge(b)

	if got := a.LazyBeaver(); got.Cmp(big.NewInt(4)) != 0 {
		t.Errorf("merged LazyBeaver() = %v, want 4 (1,2,3 realized by the union, 100 leaves a gap before it)", got)
	}
	if a.ChampionSteps.Cmp(big.NewInt(100)) != 0 || a.ChampionSigma.Cmp(big.NewInt(9)) != 0 {
		t.Errorf("merged champion = (%v,%v), want (100,9)", a.ChampionSteps, a.ChampionSigma)
	}
}
