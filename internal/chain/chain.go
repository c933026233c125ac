// Package chain implements ChainSimulator (spec.md §4.4): steps a
// MachineAdapter over a RunLengthTape<BigInt>, collapsing repeated
// same-state-same-direction transitions into O(1) chain moves and
// delegating to an optional ProofSystem before every base step.
package chain

import (
	"math/big"

	"bbsearch/internal/adapter"
	"bbsearch/internal/rle"
	"bbsearch/internal/tm"
)

// OpState mirrors adapter.RunState's vocabulary at the ChainSimulator level
// (spec.md §4.4: "op_state ∈ {Running, Halted, Infinite, Undefined}").
type OpState = adapter.RunState

const (
	Running  = adapter.Running
	Halted   = adapter.Halted
	Infinite = adapter.Infinite
	// Undefined is reported when the MachineAdapter bottoms out at an
	// undefined transition; the Enumerator treats this as the cell to
	// expand (spec.md §4.7). Named Undefined here to match spec.md's op_state
	// vocabulary even though it is the same value as adapter.Undecided.
	Undefined = adapter.Undecided
)

// Reason tags are the fixed set spec.md §4.4/§7 enumerate for inf_reason.
const (
	ReasonProofSystem   = "Proof_System"
	ReasonChainMove     = "Chain_Move"
	ReasonRepeatInPlace = "Repeat_in_Place"
)

// ProofHook is the capability ChainSimulator needs from an optional
// ProofSystem (spec.md §4.4 step 1); internal/proof implements it. Kept as
// an interface here, rather than importing internal/proof directly, so
// internal/proof can depend on internal/chain's tape plumbing without a
// cycle.
type ProofHook interface {
	// Log offers the current (state, tape) to the proof system. did_apply
	// reports whether a rule fired; when it did, newTape/deltaSteps are the
	// result and runState is Infinite only if the rule proved the machine
	// runs forever.
	Log(state adapter.State, tape *rle.Tape[rle.BigCount]) (runState OpState, newTape *rle.Tape[rle.BigCount], deltaSteps *big.Int, didApply bool)
}

// Stats are the four move-class counters of spec.md §4.4, each with an
// associated step total.
type Stats struct {
	Loops, MacroMoves, ChainMoves, RuleMoves     int
	LoopSteps, MacroSteps, ChainSteps, RuleSteps *big.Int
}

func newStats() Stats {
	return Stats{
		LoopSteps:  big.NewInt(0),
		MacroSteps: big.NewInt(0),
		ChainSteps: big.NewInt(0),
		RuleSteps:  big.NewInt(0),
	}
}

// Simulator is the ChainSimulator of spec.md §4.4.
type Simulator struct {
	adapter adapter.Adapter
	tape    *rle.Tape[rle.BigCount]
	state   adapter.State

	// lastState/lastDir record the previous step's resulting (state, dir),
	// used to detect a chain move: the next transition lands on the same
	// state and keeps the same direction (spec.md §4.4 step 3).
	hasPrev   bool
	lastState adapter.State
	lastDir   tm.Direction

	stepNum   *big.Int
	opState   OpState
	infReason string

	// undefSymbol is the symbol read when GetTransition reported Undecided;
	// together with state.Base it names the cell enumerate.Machine.Expand
	// fills in to generate children (spec.md §4.7).
	undefSymbol tm.Symbol

	proof ProofHook
	stats Stats
}

func dirOf(d tm.Direction) rle.Dir {
	if d == tm.Right {
		return rle.DirRight
	}
	return rle.DirLeft
}

// New builds a ChainSimulator over the given adapter. proof may be nil (no
// proof layer, e.g. a plain ChainSimulator used for LinRecur checking).
func New(a adapter.Adapter, blank tm.Symbol, proof ProofHook) *Simulator {
	init := a.InitTransition()
	tape := rle.New[rle.BigCount](blank, rle.BigCountN(1), dirOf(init.Dir))
	return &Simulator{
		adapter: a,
		tape:    tape,
		state:   init.State,
		stepNum: big.NewInt(0),
		opState: Running,
		proof:   proof,
		stats:   newStats(),
	}
}

// State, Tape, StepNum, OpState, InfReason, Stats are read-only accessors.
func (s *Simulator) State() adapter.State          { return s.state }
func (s *Simulator) Tape() *rle.Tape[rle.BigCount]  { return s.tape }
func (s *Simulator) StepNum() *big.Int             { return s.stepNum }
func (s *Simulator) OpState() OpState              { return s.opState }
func (s *Simulator) InfReason() string             { return s.infReason }
func (s *Simulator) Stats() Stats                  { return s.stats }

// UndefSymbol is the symbol the adapter reported as unreadable, valid only
// once OpState() == Undefined.
func (s *Simulator) UndefSymbol() tm.Symbol { return s.undefSymbol }

type stateWeigher struct {
	a     adapter.Adapter
	state adapter.State
}

func (w stateWeigher) EvalSymbol(sym tm.Symbol) int { return w.a.EvalSymbol(sym) }
func (w stateWeigher) EvalState(tm.State) int       { return w.a.EvalState(w.state) }

// NumNonzero is the Sigma score through the current MachineAdapter
// (spec.md §4.4 Reporting, §9 Open Question (a)).
func (s *Simulator) NumNonzero() rle.BigCount {
	return s.tape.NumNonzero(stateWeigher{a: s.adapter, state: s.state}, s.state.Base)
}

// Seek steps until step_num >= cutoff or op_state != Running.
func (s *Simulator) Seek(cutoff *big.Int) {
	for s.opState == Running && s.stepNum.Cmp(cutoff) < 0 {
		s.Step()
	}
}

// Step performs one ChainSimulator step (spec.md §4.4).
func (s *Simulator) Step() {
	if s.opState != Running {
		return
	}

	if s.proof != nil {
		runState, newTape, delta, applied := s.proof.Log(s.state, s.tape)
		if applied {
			if runState == Infinite {
				s.opState = Infinite
				s.infReason = ReasonProofSystem
				return
			}
			s.tape = newTape
			s.stepNum.Add(s.stepNum, delta)
			s.stats.RuleMoves++
			s.stats.RuleSteps.Add(s.stats.RuleSteps, delta)
			return
		}
	}

	curSymbol := s.tape.TopSymbol()
	peek := s.peekOppositeTop()

	runState, out, numSteps := s.adapter.GetTransition(curSymbol, s.state, s.dirFromTape(), peek)

	if runState == Undefined {
		s.opState = Undefined
		s.undefSymbol = curSymbol
		return
	}
	if runState == Halted {
		s.tape.ApplySingleMove(out.Symbol, out.Dir)
		s.state = out.State
		s.stepNum.Add(s.stepNum, new(big.Int).SetUint64(numSteps))
		s.opState = Halted
		return
	}

	// runState is Running or Infinite (a block-local cycle the adapter
	// itself gave up on). Either way this is a single macro move unless it
	// qualifies as a chain move -- Infinite never does, since it isn't a
	// fresh application of the previous (state, dir) rule.
	isChainMove := runState == Running && s.hasPrev && out.State.Equal(s.lastState) && out.Dir == s.lastDir

	if isChainMove {
		result := s.tape.ApplyChainMove(out.Symbol, out.Dir)
		if result.Infinite {
			s.opState = Infinite
			s.infReason = ReasonChainMove
			return
		}
		reps := result.Count.Int()
		delta := new(big.Int).Mul(new(big.Int).SetUint64(numSteps), reps)
		s.stepNum.Add(s.stepNum, delta)
		s.stats.ChainMoves++
		s.stats.ChainSteps.Add(s.stats.ChainSteps, delta)
	} else {
		s.tape.ApplySingleMove(out.Symbol, out.Dir)
		s.stepNum.Add(s.stepNum, new(big.Int).SetUint64(numSteps))
		s.stats.MacroMoves++
		s.stats.MacroSteps.Add(s.stats.MacroSteps, new(big.Int).SetUint64(numSteps))
	}

	s.lastState, s.lastDir, s.hasPrev = out.State, out.Dir, true
	s.state = out.State
	s.stats.Loops++

	if runState == Infinite {
		s.opState = Infinite
		s.infReason = ReasonRepeatInPlace
	}
}

// dirFromTape reports the tm.Direction matching the tape's current half.
func (s *Simulator) dirFromTape() tm.Direction {
	if s.tape.Dir() == rle.DirRight {
		return tm.Right
	}
	return tm.Left
}

// peekOppositeTop returns the symbol of the block a Backsymbol adapter
// would land on if this step reverses direction: the top of the half
// opposite the tape's current direction.
func (s *Simulator) peekOppositeTop() tm.Symbol {
	left, right := s.tape.Halves()
	var opp []rle.Block[rle.BigCount]
	if s.tape.Dir() == rle.DirRight {
		opp = left
	} else {
		opp = right
	}
	return opp[len(opp)-1].Symbol
}
