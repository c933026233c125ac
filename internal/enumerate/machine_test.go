package enumerate

import (
	"testing"

	"bbsearch/internal/tm"
)

func TestNewEmptyStartsWithNoLeftMoveAndAllCellsUndefined(t *testing.T) {
	m := NewEmpty(2, 2)
	if m.NextMoveLeftOK {
		t.Errorf("root machine must not admit a Left move")
	}
	if m.MaxNextState != 1 || m.MaxNextSymbol != 1 {
		t.Errorf("MaxNextState/MaxNextSymbol = %d/%d, want 1/1", m.MaxNextState, m.MaxNextSymbol)
	}
	if m.HereditaryName != "" {
		t.Errorf("HereditaryName = %q, want empty", m.HereditaryName)
	}
	if got := m.Table.NumHalts(); got != 4 {
		t.Errorf("NumHalts() = %d, want 4 (every cell still undefined)", got)
	}
}

func TestExpandProducesOneChildPerAdmissibleTriple(t *testing.T) {
	m := NewEmpty(2, 2)
	children := m.Expand(0, 0)
	// Right-only (NextMoveLeftOK is false on the root) * 2 next-states * 2
	// next-symbols.
	if len(children) != 4 {
		t.Fatalf("len(children) = %d, want 4", len(children))
	}
	for i, c := range children {
		if !c.NextMoveLeftOK {
			t.Errorf("child %d: NextMoveLeftOK = false, want true (every child admits Left)", i)
		}
		if got := c.Table.NumHalts(); got != 3 {
			t.Errorf("child %d: NumHalts() = %d, want 3 (one cell filled)", i, got)
		}
		trans := c.Table.Lookup(0, 0)
		if !trans.Defined || trans.Move != tm.Right {
			t.Errorf("child %d: cell (0,0) = %+v, want a defined Right transition", i, trans)
		}
	}
	want := []string{",0", ",1", ",2", ",3"}
	for i, c := range children {
		if c.HereditaryName != want[i] {
			t.Errorf("child %d: HereditaryName = %q, want %q", i, c.HereditaryName, want[i])
		}
	}
}

func TestExpandOrdersStateOuterSymbolMiddleMoveInner(t *testing.T) {
	m := NewEmpty(2, 2)
	children := m.Expand(0, 0)
	// state outer (0, then 1), symbol middle (0, then 1), Right only.
	want := []struct {
		next tm.State
		sym  tm.Symbol
	}{
		{0, 0}, {0, 1}, {1, 0}, {1, 1},
	}
	for i, c := range children {
		trans := c.Table.Lookup(0, 0)
		if trans.Next != want[i].next || trans.Write != want[i].sym {
			t.Errorf("child %d: (next,write) = (%d,%d), want (%d,%d)",
				i, trans.Next, trans.Write, want[i].next, want[i].sym)
		}
	}
}

func TestExpandAdmitsLeftOnceParentAllowsIt(t *testing.T) {
	m := NewEmpty(2, 2)
	child := m.Expand(0, 0)[0] // NextMoveLeftOK now true
	grandchildren := child.Expand(0, 1)
	if len(grandchildren) != 2*2*2 {
		t.Fatalf("len(grandchildren) = %d, want 8 (Right and Left both admitted)", len(grandchildren))
	}
	sawLeft, sawRight := false, false
	for _, gc := range grandchildren {
		switch gc.Table.Lookup(0, 1).Move {
		case tm.Left:
			sawLeft = true
		case tm.Right:
			sawRight = true
		}
	}
	if !sawLeft || !sawRight {
		t.Errorf("expected both Left and Right moves among grandchildren")
	}
}

func TestExpandClampsMaxNextStateToTableBound(t *testing.T) {
	// num_states=3: clamp bound is num_states-1=2, so choosing next_state=1
	// (the top of the root's loop, since MaxNextState starts at 1) bumps
	// MaxNextState to min(2, 1+1)=2, not unboundedly further.
	m := NewEmpty(3, 2)
	children := m.Expand(0, 0)
	var sawState1 *Machine
	for _, c := range children {
		if c.Table.Lookup(0, 0).Next == 1 {
			sawState1 = c
			break
		}
	}
	if sawState1 == nil {
		t.Fatalf("expected a child choosing next_state=1")
	}
	if sawState1.MaxNextState != 2 {
		t.Errorf("MaxNextState = %d, want 2", sawState1.MaxNextState)
	}
}
