package enumerate

import (
	"math/big"

	"bbsearch/internal/adapter"
	"bbsearch/internal/chain"
	"bbsearch/internal/direct"
	"bbsearch/internal/linrecur"
	"bbsearch/internal/proof"
	"bbsearch/internal/tm"
)

// Status is the terminal classification a Filter hands back to the
// Enumerator for one machine (spec.md §4.7's "state machine for one machine
// inside the filter").
type Status int

const (
	// Halted means the simulator executed a transition that explicitly
	// targets tm.Halt. Enumeration never builds such a transition itself
	// (see UndefinedTransition below); this only occurs when Filter is run
	// directly against a machine loaded with one already in place.
	Halted Status = iota

	// UndefinedTransition means the simulator stopped at a still-undefined
	// cell. spec.md treats this the same as reaching Halt for reporting
	// purposes (the machine is a valid halting machine with that cell as
	// its implicit "1RZ" halt transition) while also being the Enumerator's
	// trigger to generate children that fill the cell in. LastState/
	// LastSymbol name the cell.
	UndefinedTransition

	// Infinite means the filter proved the machine runs forever; Reason
	// names which mechanism caught it, and Period/Offset/StartStep are
	// populated only when Reason == ReasonLinRecur.
	Infinite

	// Undecided means the step budget ran out before any of the above was
	// reached.
	Undecided
)

// ReasonTrivialSweep tags an Infinite verdict reached by DirectSimulator's
// own trivial-sweep detection (spec.md §4.1, §8 S4) -- a case spec.md's
// four ChainSimulator/LinRecurDetector reason tags don't name, since it can
// fire standalone ahead of either of them.
const ReasonTrivialSweep = "Trivial_Sweep"

// ReasonLinRecur tags an Infinite verdict reached by LinRecurDetector,
// independent of ChainSimulator/ProofSystem (spec.md §4.6).
const ReasonLinRecur = "Lin_Recur"

// Outcome is a Filter's full verdict on one machine.
type Outcome struct {
	Status Status

	// Valid when Status == Halted or UndefinedTransition.
	Steps *big.Int
	Sigma *big.Int

	// Valid when Status == UndefinedTransition: the cell at which
	// simulation stopped, which both the halting witness and any children
	// are built around.
	LastState  tm.State
	LastSymbol tm.Symbol

	// Valid when Status == Infinite.
	Reason    string
	Period    uint64
	Offset    int
	StartStep uint64
}

// Filter runs a machine up to stepBudget base steps (or the equivalent
// under whatever acceleration it uses internally) and reports its verdict.
type Filter interface {
	Run(table *tm.Table, stepBudget uint64) Outcome
}

// DirectFilter runs the byte-tape DirectSimulator alone: spec.md's
// lazy-beaver style filter, with no macro acceleration or proof system.
type DirectFilter struct{}

func (DirectFilter) Run(table *tm.Table, stepBudget uint64) Outcome {
	sim := direct.New(table)
	sim.Seek(stepBudget)
	return outcomeFromDirect(sim)
}

func outcomeFromDirect(sim *direct.Simulator) Outcome {
	switch sim.Status() {
	case direct.Halted:
		return Outcome{
			Status: Halted,
			Steps:  new(big.Int).SetUint64(sim.StepNum()),
			Sigma:  big.NewInt(int64(sim.SigmaScore())),
		}
	case direct.Undecided:
		return Outcome{
			Status:     UndefinedTransition,
			Steps:      new(big.Int).SetUint64(sim.StepNum()),
			Sigma:      big.NewInt(int64(sim.SigmaScore())),
			LastState:  sim.LastState(),
			LastSymbol: sim.LastSymbol(),
		}
	case direct.Infinite:
		return Outcome{Status: Infinite, Reason: ReasonTrivialSweep}
	default: // direct.Running: budget exhausted.
		return Outcome{Status: Undecided}
	}
}

// ChainFilter runs a cheap DirectSimulator pass up to directCap steps
// first (direct_sim.cpp's pre-filter-before-escalation pattern, a
// supplemented optimization rather than a spec requirement); if that is
// inconclusive it escalates to ChainSimulator with a ProofSystem hook, and
// if the full step budget is exhausted there without a verdict, makes one
// independent LinRecurDetector pass over the same budget before giving up
// (lin_recur_enumerator.h's mode: LinRecurDetect as an added, independent
// check rather than a replacement for ChainSimulator/ProofSystem, per
// spec.md's "independent check" framing of LinRecurDetector).
type ChainFilter struct {
	// DirectCap bounds the cheap pre-filter pass. Zero means use a small
	// built-in default.
	DirectCap uint64
	// Recursive and ProveNewRules configure the ProofSystem (spec.md §4.5).
	Recursive     bool
	ProveNewRules bool
}

// NewChainFilter builds a ChainFilter with the recursive proof system
// enabled and a modest pre-filter cap.
func NewChainFilter() ChainFilter {
	return ChainFilter{DirectCap: 200, Recursive: true, ProveNewRules: true}
}

func (f ChainFilter) Run(table *tm.Table, stepBudget uint64) Outcome {
	cap := f.DirectCap
	if cap == 0 {
		cap = 200
	}
	if cap > stepBudget {
		cap = stepBudget
	}

	pre := direct.New(table)
	pre.Seek(cap)
	if pre.Status() != direct.Running {
		return outcomeFromDirect(pre)
	}

	base := adapter.NewSimple(table, 0)
	ps := proof.New(base, 0, f.Recursive, f.ProveNewRules)
	sim := chain.New(base, 0, ps)
	sim.Seek(new(big.Int).SetUint64(stepBudget))

	switch sim.OpState() {
	case chain.Halted:
		return Outcome{
			Status: Halted,
			Steps:  new(big.Int).Set(sim.StepNum()),
			Sigma:  sim.NumNonzero().Int(),
		}
	case chain.Undefined:
		return Outcome{
			Status:     UndefinedTransition,
			Steps:      new(big.Int).Set(sim.StepNum()),
			Sigma:      sim.NumNonzero().Int(),
			LastState:  sim.State().Base,
			LastSymbol: sim.UndefSymbol(),
		}
	case chain.Infinite:
		return Outcome{Status: Infinite, Reason: sim.InfReason()}
	}

	// chain.Running: the budget ran out without a verdict. Make one
	// independent LinRecurDetector pass before reporting Undecided.
	lr := linrecur.Detect(table, stepBudget)
	switch {
	case lr.LinRecurrent:
		return Outcome{
			Status:    Infinite,
			Reason:    ReasonLinRecur,
			Period:    lr.Period,
			Offset:    lr.Offset,
			StartStep: lr.StartStep,
		}
	case lr.Halted:
		// Deterministic replay of the same table should never halt here
		// when ChainSimulator did not, but report it faithfully if it does.
		return Outcome{
			Status:     UndefinedTransition,
			LastState:  lr.LastState,
			LastSymbol: lr.LastSymbol,
		}
	default:
		return Outcome{Status: Undecided}
	}
}
