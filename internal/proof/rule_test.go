package proof

import (
	"math/big"
	"testing"

	"bbsearch/internal/adapter"
	"bbsearch/internal/expr"
	"bbsearch/internal/rle"
)

func TestBlockAsRuleBlockPreservesInfinite(t *testing.T) {
	varMin := make(map[expr.VarID]*big.Int)
	pool := expr.NewPool()
	rb, sb := blockAsRuleBlock(pool, rle.Block[rle.BigCount]{Symbol: 0, Infinite: true}, varMin)
	if !rb.Infinite || !sb.Infinite {
		t.Fatalf("expected Infinite preserved, got ruleBlock=%+v symBlock=%+v", rb, sb)
	}
	if len(varMin) != 0 {
		t.Errorf("infinite block should not mint a variable, varMin=%v", varMin)
	}
}

func TestBlockAsRuleBlockCountOneStaysConstant(t *testing.T) {
	varMin := make(map[expr.VarID]*big.Int)
	pool := expr.NewPool()
	rb, _ := blockAsRuleBlock(pool, rle.Block[rle.BigCount]{Symbol: 1, Count: rle.BigCountN(1)}, varMin)
	if !rb.Count.IsConstant() || rb.Count.Substitute(nil).Cmp(big.NewInt(1)) != 0 {
		t.Errorf("count-1 block should generalize to the constant 1, got %+v", rb.Count)
	}
	if len(varMin) != 0 {
		t.Errorf("count-1 block should not mint a variable, varMin=%v", varMin)
	}
}

func TestBlockAsRuleBlockMintsVariableForLargerCount(t *testing.T) {
	varMin := make(map[expr.VarID]*big.Int)
	pool := expr.NewPool()
	rb, sb := blockAsRuleBlock(pool, rle.Block[rle.BigCount]{Symbol: 1, Count: rle.BigCountN(5)}, varMin)
	if rb.Count.IsConstant() {
		t.Fatalf("count>1 block should mint a variable, got constant %+v", rb.Count)
	}
	var v expr.VarID
	for id := range rb.Count.Coeffs {
		v = id
	}
	if varMin[v] == nil || varMin[v].Cmp(big.NewInt(5)) != 0 {
		t.Errorf("varMin[v] = %v, want 5", varMin[v])
	}
	if !sb.Count.Equal(rb.Count) {
		t.Errorf("symBlock and ruleBlock should carry the identical symbolic count")
	}
}

// TestAppliesGrowsCountByAffineDiff builds a Rule by hand -- rather than via
// compare(), which would require a real multi-loop GeneralSimulator trace --
// representing "the run ahead of the head grows by 1 and costs 3 extra
// steps per application," and checks that applies() matches it against a
// concrete tape and, since no count ever shrinks, reports the unbounded
// application as Infinite.
func TestAppliesGrowsCountByAffineDiff(t *testing.T) {
	pool := expr.NewPool()
	v := pool.Fresh()
	varMin := map[expr.VarID]*big.Int{v: big.NewInt(2)}

	rule := Rule{
		Dir:   rle.DirRight,
		State: adapter.State{Base: 0},
		InitLeft: []ruleBlock{
			{Symbol: 0, Infinite: true},
			{Symbol: 1, Count: expr.FromVar(v)},
		},
		InitRight: []ruleBlock{{Symbol: 0, Infinite: true}},
		DiffLeft:  []expr.Expression{{}, expr.FromConst(1)},
		DiffRight: []expr.Expression{{}},
		DiffSteps: expr.FromConst(3),
		VarMin:    varMin,
	}

	conc := rle.NewFromBlocks[rle.BigCount](0, rle.BigCountN(1), rle.DirRight,
		[]rle.Block[rle.BigCount]{{Symbol: 0, Infinite: true}, {Symbol: 1, Count: rle.BigCountN(7)}},
		[]rle.Block[rle.BigCount]{{Symbol: 0, Infinite: true}},
		rle.BigCountN(0))

	full := FullConfig{State: adapter.State{Base: 0}, Tape: conc, LoopNum: big.NewInt(10)}
	res := applies(rule, full)

	if !res.Applies {
		t.Fatalf("expected rule to apply")
	}
	if res.RunState != adapter.Infinite {
		t.Fatalf("a diff that never decreases any count should report unbounded Δsteps (Infinite), got %v", res.RunState)
	}
}

// TestAppliesBoundsMultiplierByShrinkingCount checks the finite-m path: a
// rule that shrinks one count and grows another must stop increasing m once
// the shrinking count would drop below 1.
func TestAppliesBoundsMultiplierByShrinkingCount(t *testing.T) {
	pool := expr.NewPool()
	vGrow := pool.Fresh()
	vShrink := pool.Fresh()
	varMin := map[expr.VarID]*big.Int{vGrow: big.NewInt(2), vShrink: big.NewInt(2)}

	rule := Rule{
		Dir:   rle.DirRight,
		State: adapter.State{Base: 0},
		InitLeft: []ruleBlock{
			{Symbol: 0, Infinite: true},
			{Symbol: 1, Count: expr.FromVar(vShrink)},
			{Symbol: 2, Count: expr.FromVar(vGrow)},
		},
		InitRight: []ruleBlock{{Symbol: 0, Infinite: true}},
		DiffLeft:  []expr.Expression{{}, expr.FromConst(-1), expr.FromConst(1)},
		DiffRight: []expr.Expression{{}},
		DiffSteps: expr.FromConst(1),
		VarMin:    varMin,
	}

	conc := rle.NewFromBlocks[rle.BigCount](0, rle.BigCountN(1), rle.DirRight,
		[]rle.Block[rle.BigCount]{
			{Symbol: 0, Infinite: true},
			{Symbol: 1, Count: rle.BigCountN(6)},
			{Symbol: 2, Count: rle.BigCountN(2)},
		},
		[]rle.Block[rle.BigCount]{{Symbol: 0, Infinite: true}},
		rle.BigCountN(0))
	full := FullConfig{State: adapter.State{Base: 0}, Tape: conc, LoopNum: big.NewInt(0)}

	res := applies(rule, full)
	if !res.Applies || res.RunState != adapter.Running {
		t.Fatalf("expected a bounded, running application, got %+v", res)
	}
	// Shrinking count starts at 6; applying the rule m times leaves 6 - m,
	// which must stay >= 1, so the largest valid m is 5.
	if res.DeltaSteps.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("DeltaSteps = %v, want 5 (m=5, 1 step each)", res.DeltaSteps)
	}
	if !res.BadDelta {
		t.Errorf("BadDelta should be true: one component of the diff is negative")
	}

	newLeft, _ := res.NewTape.Halves()
	if newLeft[1].Count.Int().Cmp(big.NewInt(1)) != 0 {
		t.Errorf("shrinking block count = %v, want 1", newLeft[1].Count.Int())
	}
	if newLeft[2].Count.Int().Cmp(big.NewInt(7)) != 0 {
		t.Errorf("growing block count = %v, want 7 (2 + 5)", newLeft[2].Count.Int())
	}
}

func TestNegatesBelowMinRejectsRuleThatStartsUnderwater(t *testing.T) {
	pool := expr.NewPool()
	v := pool.Fresh()
	min := big.NewInt(2)
	diffs := []expr.Expression{expr.FromVar(v).Scale(-2)} // min(2) + (-2) = 0 < 1
	if !negatesBelowMin(diffs, v, min) {
		t.Errorf("expected rejection: applying once from the minimum already violates count >= 1")
	}
}

func TestNegatesBelowMinAcceptsSafeDiff(t *testing.T) {
	pool := expr.NewPool()
	v := pool.Fresh()
	min := big.NewInt(2)
	diffs := []expr.Expression{expr.FromVar(v).Scale(-1)} // min(2) + (-1) = 1, still >= 1
	if negatesBelowMin(diffs, v, min) {
		t.Errorf("expected acceptance: one application from the minimum still leaves count >= 1")
	}
}
