package proof

import (
	"math/big"

	"bbsearch/internal/adapter"
	"bbsearch/internal/expr"
	"bbsearch/internal/rle"
	"bbsearch/internal/tm"
)

// ruleBlock is one position of a Rule's symbolic initial tape: a fixed
// symbol and either the constant 1 or a single fresh variable standing in
// for "some count >= the minimum recorded in Rule.VarMin."
type ruleBlock struct {
	Symbol   tm.Symbol
	Count    expr.Expression
	Infinite bool
}

// Rule is spec.md §4.5's proven transformation: apply(rule) replaces the
// tape's blocks and advances the step count by an affine function of the
// variables bound at the positions compare() generalized.
type Rule struct {
	Dir        rle.Dir
	State      adapter.State
	InitLeft   []ruleBlock
	InitRight  []ruleBlock
	DiffLeft   []expr.Expression
	DiffRight  []expr.Expression
	DiffSteps  expr.Expression
	VarMin     map[expr.VarID]*big.Int
}

// blockAsRuleBlock converts one concrete block into its symbolic
// representation, minting a fresh variable (and recording its minimum) for
// any finite count greater than 1.
func blockAsRuleBlock(pool *expr.Pool, blk rle.Block[rle.BigCount], varMin map[expr.VarID]*big.Int) (ruleBlock, rle.Block[expr.Expression]) {
	if blk.Infinite {
		rb := ruleBlock{Symbol: blk.Symbol, Infinite: true}
		return rb, rle.Block[expr.Expression]{Symbol: blk.Symbol, Infinite: true}
	}
	if blk.Count.CmpOne() == 0 {
		c := expr.FromConst(1)
		return ruleBlock{Symbol: blk.Symbol, Count: c}, rle.Block[expr.Expression]{Symbol: blk.Symbol, Count: c}
	}
	v := pool.Fresh()
	varMin[v] = new(big.Int).Set(blk.Count.Int())
	c := expr.FromVar(v)
	return ruleBlock{Symbol: blk.Symbol, Count: c}, rle.Block[expr.Expression]{Symbol: blk.Symbol, Count: c}
}

// compare builds a candidate Rule from two sightings of the same stripped
// configuration, separated by loops loop-iterations (spec.md §4.5 step 5 /
// the "compare(old, new)" paragraph). The Turing machine itself isn't
// re-derived from new: new only supplies the loop count to replay; the
// symbolic tape is built entirely from old, and the generalization is
// validated by actually running that many loops of a GeneralSimulator and
// checking the result lines up position-for-position with the variables
// compare() minted.
func compare(pool *expr.Pool, a adapter.Adapter, blank tm.Symbol, old FullConfig, loops int) (Rule, bool) {
	varMin := make(map[expr.VarID]*big.Int)
	oldLeft, oldRight := old.Tape.Halves()

	initLeft := make([]ruleBlock, len(oldLeft))
	symLeft := make([]rle.Block[expr.Expression], len(oldLeft))
	for i, blk := range oldLeft {
		initLeft[i], symLeft[i] = blockAsRuleBlock(pool, blk, varMin)
	}
	initRight := make([]ruleBlock, len(oldRight))
	symRight := make([]rle.Block[expr.Expression], len(oldRight))
	for i, blk := range oldRight {
		initRight[i], symRight[i] = blockAsRuleBlock(pool, blk, varMin)
	}

	tape := rle.NewFromBlocks[expr.Expression](blank, expr.FromConst(1), old.Tape.Dir(), symLeft, symRight, expr.Zero())
	sim := NewGeneralSimulator(a, tape, old.State)
	for i := 0; i < loops; i++ {
		if !sim.Step() {
			return Rule{}, false
		}
	}

	finalLeft, finalRight := sim.Tape().Halves()
	if len(finalLeft) != len(initLeft) || len(finalRight) != len(initRight) {
		// The run changed the tape's block count (grew or shrank a run off
		// the end entirely): not expressible as this Rule's simple
		// per-position affine diff.
		return Rule{}, false
	}
	if !sim.State().Equal(old.State) || sim.Tape().Dir() != old.Tape.Dir() {
		return Rule{}, false
	}

	diffLeft := make([]expr.Expression, len(initLeft))
	for i := range initLeft {
		if initLeft[i].Infinite {
			continue
		}
		if finalLeft[i].Symbol != initLeft[i].Symbol {
			return Rule{}, false
		}
		diffLeft[i] = finalLeft[i].Count.Sub(initLeft[i].Count)
	}
	diffRight := make([]expr.Expression, len(initRight))
	for i := range initRight {
		if initRight[i].Infinite {
			continue
		}
		if finalRight[i].Symbol != initRight[i].Symbol {
			return Rule{}, false
		}
		diffRight[i] = finalRight[i].Count.Sub(initRight[i].Count)
	}

	for v, min := range varMin {
		if negatesBelowMin(diffLeft, v, min) || negatesBelowMin(diffRight, v, min) {
			return Rule{}, false
		}
	}

	return Rule{
		Dir:       old.Tape.Dir(),
		State:     old.State,
		InitLeft:  initLeft,
		InitRight: initRight,
		DiffLeft:  diffLeft,
		DiffRight: diffRight,
		DiffSteps: sim.StepTotal(),
		VarMin:    varMin,
	}, true
}

// negatesBelowMin rejects a rule outright (spec.md §4.5 compare()) when a
// single application, starting right from the minimum value that minted v,
// would already drive v below 1.
func negatesBelowMin(diffs []expr.Expression, v expr.VarID, min *big.Int) bool {
	for _, d := range diffs {
		if d.Coeffs == nil {
			continue
		}
		c := d.CoeffOf(v)
		if c >= 0 {
			continue
		}
		after := new(big.Int).Add(min, big.NewInt(c))
		if after.Cmp(big.NewInt(1)) < 0 {
			return true
		}
	}
	return false
}

// appliesResult is applies()'s verdict (spec.md §4.5).
type appliesResult struct {
	RunState  adapter.RunState
	NewTape   *rle.Tape[rle.BigCount]
	DeltaSteps *big.Int
	BadDelta  bool
	Applies   bool
}

// applies checks whether rule fires against full's concrete tape, and if so
// computes the largest nonnegative multiple m keeping every resulting count
// >= 1 (spec.md §4.5's applies()).
func applies(rule Rule, full FullConfig) appliesResult {
	if !full.State.Equal(rule.State) || full.Tape.Dir() != rule.Dir {
		return appliesResult{}
	}
	left, right := full.Tape.Halves()
	if len(left) != len(rule.InitLeft) || len(right) != len(rule.InitRight) {
		return appliesResult{}
	}

	assignment := make(map[expr.VarID]*big.Int)
	if !bindAssignment(rule.InitLeft, left, assignment) || !bindAssignment(rule.InitRight, right, assignment) {
		return appliesResult{}
	}

	m, badDelta, unbounded, ok := boundMultiplier(rule.DiffLeft, left, assignment)
	if !ok {
		return appliesResult{}
	}
	m2, badDelta2, unbounded2, ok2 := boundMultiplier(rule.DiffRight, right, assignment)
	if !ok2 {
		return appliesResult{}
	}
	badDelta = badDelta || badDelta2

	switch {
	case unbounded && unbounded2:
		return appliesResult{RunState: adapter.Infinite, Applies: true, BadDelta: badDelta}
	case unbounded:
		m = m2
	case unbounded2:
		// m already holds the left-side bound.
	default:
		if m2.Cmp(m) < 0 {
			m = m2
		}
	}

	if m.Sign() <= 0 {
		return appliesResult{}
	}

	newLeft := applyDiff(rule.DiffLeft, left, assignment, m)
	newRight := applyDiff(rule.DiffRight, right, assignment, m)
	newTape := rle.NewFromBlocks[rle.BigCount](blankOf(full.Tape), rle.BigCountN(1), full.Tape.Dir(), newLeft, newRight, full.Tape.Displace())

	deltaSteps := new(big.Int).Mul(m, rule.DiffSteps.Substitute(assignment))
	return appliesResult{RunState: adapter.Running, NewTape: newTape, DeltaSteps: deltaSteps, BadDelta: badDelta, Applies: true}
}

func blankOf(t *rle.Tape[rle.BigCount]) tm.Symbol {
	left, _ := t.Halves()
	return left[0].Symbol
}

// bindAssignment reads the concrete value of every variable named in init
// off conc, requiring an exact symbol (and exact count for constant-1
// positions) match at every other position.
func bindAssignment(init []ruleBlock, conc []rle.Block[rle.BigCount], assignment map[expr.VarID]*big.Int) bool {
	for i, ib := range init {
		cb := conc[i]
		if ib.Infinite != cb.Infinite {
			return false
		}
		if ib.Infinite {
			continue
		}
		if ib.Symbol != cb.Symbol {
			return false
		}
		if ib.Count.IsConstant() {
			if cb.Count.CmpOne() != 0 {
				return false
			}
			continue
		}
		for v := range ib.Count.Coeffs {
			assignment[v] = new(big.Int).Set(cb.Count.Int())
		}
	}
	return true
}

// boundMultiplier computes, for one half's diff expressions, the largest m
// keeping every resulting count >= 1, reporting unbounded = true when no
// position on this half ever decreases (spec.md §4.5's "Δsteps unbounded").
func boundMultiplier(diffs []expr.Expression, conc []rle.Block[rle.BigCount], assignment map[expr.VarID]*big.Int) (m *big.Int, badDelta, unbounded bool, ok bool) {
	unbounded = true
	for i, d := range diffs {
		if conc[i].Infinite {
			continue
		}
		realized := d.Substitute(assignment)
		if realized.Sign() < 0 {
			badDelta = true
			unbounded = false
			bound := new(big.Int).Sub(conc[i].Count.Int(), big.NewInt(1))
			bound.Div(bound, new(big.Int).Neg(realized))
			if m == nil || bound.Cmp(m) < 0 {
				m = new(big.Int).Set(bound)
			}
		}
	}
	if unbounded {
		return nil, badDelta, true, true
	}
	if m == nil {
		m = big.NewInt(0)
	}
	return m, badDelta, false, true
}

func applyDiff(diffs []expr.Expression, conc []rle.Block[rle.BigCount], assignment map[expr.VarID]*big.Int, m *big.Int) []rle.Block[rle.BigCount] {
	out := make([]rle.Block[rle.BigCount], len(conc))
	for i, cb := range conc {
		if cb.Infinite {
			out[i] = cb
			continue
		}
		delta := new(big.Int).Mul(m, diffs[i].Substitute(assignment))
		out[i] = rle.Block[rle.BigCount]{Symbol: cb.Symbol, Count: rle.NewBigCount(new(big.Int).Add(cb.Count.Int(), delta))}
	}
	return out
}
