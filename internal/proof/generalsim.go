package proof

import (
	"bbsearch/internal/adapter"
	"bbsearch/internal/expr"
	"bbsearch/internal/rle"
	"bbsearch/internal/tm"
)

// GeneralSimulator is the symbolic twin of chain.Simulator that spec.md
// §4.5's compare() runs to generalize two concrete sightings into a Rule: it
// steps the same MachineAdapter over a rle.Tape[expr.Expression] instead of
// rle.Tape[rle.BigCount], and carries no ProofHook of its own (a proof
// system proving its own rules would be unbounded recursion).
type GeneralSimulator struct {
	adapter adapter.Adapter
	tape    *rle.Tape[expr.Expression]
	state   adapter.State

	hasPrev   bool
	lastState adapter.State
	lastDir   tm.Direction

	stepTotal expr.Expression
	loops     int
	opState   adapter.RunState
}

// NewGeneralSimulator builds a GeneralSimulator starting from an explicit
// symbolic tape and state -- unlike chain.New, it never starts from blank,
// since compare() always seeds it from a generalized sighting.
func NewGeneralSimulator(a adapter.Adapter, tape *rle.Tape[expr.Expression], state adapter.State) *GeneralSimulator {
	return &GeneralSimulator{adapter: a, tape: tape, state: state, stepTotal: expr.Zero(), opState: adapter.Running}
}

func (g *GeneralSimulator) Tape() *rle.Tape[expr.Expression] { return g.tape }
func (g *GeneralSimulator) State() adapter.State             { return g.state }
func (g *GeneralSimulator) StepTotal() expr.Expression       { return g.stepTotal }
func (g *GeneralSimulator) OpState() adapter.RunState        { return g.opState }

func dirFromTape[T rle.Count[T]](t *rle.Tape[T]) tm.Direction {
	if t.Dir() == rle.DirRight {
		return tm.Right
	}
	return tm.Left
}

func peekOppositeTop[T rle.Count[T]](t *rle.Tape[T]) tm.Symbol {
	left, right := t.Halves()
	var opp []rle.Block[T]
	if t.Dir() == rle.DirRight {
		opp = left
	} else {
		opp = right
	}
	return opp[len(opp)-1].Symbol
}

// Step mirrors chain.Simulator.Step exactly (minus the proof-hook stage),
// over symbolic counts. Returns false once op_state leaves Running.
func (g *GeneralSimulator) Step() bool {
	if g.opState != adapter.Running {
		return false
	}

	curSymbol := g.tape.TopSymbol()
	peek := peekOppositeTop(g.tape)
	runState, out, numSteps := g.adapter.GetTransition(curSymbol, g.state, dirFromTape(g.tape), peek)

	if runState == adapter.Undecided {
		g.opState = adapter.Undecided
		return false
	}
	if runState == adapter.Halted {
		g.tape.ApplySingleMove(out.Symbol, out.Dir)
		g.state = out.State
		g.stepTotal = g.stepTotal.Add(expr.FromConst(int64(numSteps)))
		g.opState = adapter.Halted
		return false
	}

	isChainMove := runState == adapter.Running && g.hasPrev && out.State.Equal(g.lastState) && out.Dir == g.lastDir

	if isChainMove {
		result := g.tape.ApplyChainMove(out.Symbol, out.Dir)
		if result.Infinite {
			g.opState = adapter.Infinite
			return false
		}
		g.stepTotal = g.stepTotal.Add(result.Count.MulInt(int64(numSteps)))
	} else {
		g.tape.ApplySingleMove(out.Symbol, out.Dir)
		g.stepTotal = g.stepTotal.Add(expr.FromConst(int64(numSteps)))
	}

	g.lastState, g.lastDir, g.hasPrev = out.State, out.Dir, true
	g.state = out.State
	g.loops++

	if runState == adapter.Infinite {
		g.opState = adapter.Infinite
		return false
	}
	return true
}
