package enumerate

import (
	"math/big"

	"bbsearch/internal/tm"
)

// Sink receives every terminal verdict the Enumerator reaches, so output
// formatting and I/O (internal/sink) stay decoupled from the search driver
// itself -- the same narrow-interface-at-a-package-boundary shape
// chain.ProofHook uses to keep internal/chain from importing internal/proof.
//
// This is a deliberate split from the original enumerator.cpp, where
// filter_tm both classifies a machine and writes its witness as one step;
// here Filter stays a pure function of (table, budget) and Enumerator is
// the only thing that talks to a Sink.
type Sink interface {
	// Halt records a halting witness. witness is m with the cell that
	// stopped it materialized as an explicit write-1/move-right/Halt
	// transition when the verdict came from UndefinedTransition (spec.md
	// §6: "an explicit Halt transition is materialized in <table> by
	// replacing the cell that halted with 1RZ"); it equals m.Table
	// unchanged when the verdict was already Halted.
	Halt(m *Machine, witness *tm.Table, outcome Outcome)
	Infinite(m *Machine, outcome Outcome)
	Undecided(m *Machine)
}

// Stats tallies how many machines fell into each terminal bucket, and
// tracks the Lazy Beaver / Busy Beaver frontier across every halting
// machine seen (spec.md S2, §1: "the smallest non-realized positive step
// count" and "the longest halting run"). Grounded on
// original_source/cpp/src/lazy_beaver_enumerator.cpp's LazyBeaverEnum,
// which maintains steps_realized_ and derives min_missing() from it.
type Stats struct {
	Total, Halted, Infinite, Undecided int

	// Realized holds the decimal string of every distinct halting step
	// count seen so far (a set, keyed by big.Int.String() since step
	// counts can outgrow a uint64 under macro acceleration elsewhere in
	// the pipeline even though DirectFilter's own counts never do).
	Realized map[string]bool

	// ChampionSteps/ChampionSigma record the longest-running halting
	// machine's step count and non-blank tally (the Busy Beaver
	// candidate this run has found). Nil until the first halt.
	ChampionSteps *big.Int
	ChampionSigma *big.Int
}

// Observe records one halting machine's step count and sigma score,
// updating the realized-step set and the Busy Beaver champion.
func (s *Stats) Observe(steps, sigma *big.Int) {
	if steps == nil {
		return
	}
	if s.Realized == nil {
		s.Realized = make(map[string]bool)
	}
	s.Realized[steps.String()] = true
	if s.ChampionSteps == nil || steps.Cmp(s.ChampionSteps) > 0 {
		s.ChampionSteps = new(big.Int).Set(steps)
		if sigma != nil {
			s.ChampionSigma = new(big.Int).Set(sigma)
		} else {
			s.ChampionSigma = nil
		}
	}
}

// LazyBeaver returns the smallest positive step count no observed halting
// machine has realized yet.
func (s Stats) LazyBeaver() *big.Int {
	i := big.NewInt(1)
	for s.Realized[i.String()] {
		i.Add(i, big.NewInt(1))
	}
	return i
}

// Merge folds other into s: bucket counts add, the realized-step sets
// union, and the champion is whichever of the two ran longer. Used to
// combine each worker's private Stats into one aggregate (spec.md §5).
func (s *Stats) Merge(other Stats) {
	s.Total += other.Total
	s.Halted += other.Halted
	s.Infinite += other.Infinite
	s.Undecided += other.Undecided
	for k := range other.Realized {
		if s.Realized == nil {
			s.Realized = make(map[string]bool)
		}
		s.Realized[k] = true
	}
	if other.ChampionSteps != nil && (s.ChampionSteps == nil || other.ChampionSteps.Cmp(s.ChampionSteps) > 0) {
		s.ChampionSteps = other.ChampionSteps
		s.ChampionSigma = other.ChampionSigma
	}
}

// Enumerator is the LIFO depth-first TNF search driver (spec.md §4.7, `
// ported from enumerator.cpp's BaseEnumerator::enumerate/expand_tm).
type Enumerator struct {
	Filter      Filter
	StepBudget  uint64
	AllowNoHalt bool
	Sink        Sink

	stack []*Machine
	Stats Stats
}

// NewEnumerator builds an Enumerator with an empty work stack.
func NewEnumerator(filter Filter, stepBudget uint64, allowNoHalt bool, sink Sink) *Enumerator {
	return &Enumerator{Filter: filter, StepBudget: stepBudget, AllowNoHalt: allowNoHalt, Sink: sink}
}

// Seed pushes a starting machine onto the work stack (the fresh root, or a
// set of machines loaded back from a resumption stack snapshot).
func (e *Enumerator) Seed(m *Machine) { e.push(m) }

func (e *Enumerator) push(m *Machine) { e.stack = append(e.stack, m) }

func (e *Enumerator) pop() *Machine {
	n := len(e.stack) - 1
	m := e.stack[n]
	e.stack[n] = nil
	e.stack = e.stack[:n]
	return m
}

// Pending is the current work-stack depth, for progress reporting and for
// building a resumption snapshot (internal/sink).
func (e *Enumerator) Pending() int { return len(e.stack) }

// Drain pops machines and filters/expands them until the stack is empty or
// budget-controlled cooperative shutdown stops calling it (the worker loop
// calls Drain in small batches so it can check a shutdown signal between
// calls; shouldContinue is polled before each pop and Drain returns early,
// leaving remaining work on the stack, the moment it reports false).
func (e *Enumerator) Drain(shouldContinue func() bool) {
	for len(e.stack) > 0 {
		if shouldContinue != nil && !shouldContinue() {
			return
		}
		m := e.pop()
		e.Stats.Total++
		outcome := e.Filter.Run(m.Table, e.StepBudget)

		switch outcome.Status {
		case Halted:
			e.Stats.Halted++
			e.Stats.Observe(outcome.Steps, outcome.Sigma)
			e.Sink.Halt(m, m.Table, outcome)

		case UndefinedTransition:
			e.Stats.Halted++
			e.Stats.Observe(outcome.Steps, outcome.Sigma)
			witness := m.Table.WithCell(outcome.LastState, outcome.LastSymbol,
				tm.NewTransition(1, tm.Right, tm.Halt))
			e.Sink.Halt(m, witness, outcome)

			if e.AllowNoHalt || m.Table.NumHalts() > 1 {
				for _, child := range m.Expand(outcome.LastState, outcome.LastSymbol) {
					e.push(child)
				}
			}

		case Infinite:
			e.Stats.Infinite++
			e.Sink.Infinite(m, outcome)

		default: // Undecided
			e.Stats.Undecided++
			e.Sink.Undecided(m)
		}
	}
}

// Snapshot returns the machines still on the work stack, bottom-to-top, for
// a resumption stack snapshot (spec.md §6).
func (e *Enumerator) Snapshot() []*Machine {
	out := make([]*Machine, len(e.stack))
	copy(out, e.stack)
	return out
}

// Restore replaces the work stack wholesale, for resuming from a snapshot.
func (e *Enumerator) Restore(machines []*Machine) {
	e.stack = append([]*Machine(nil), machines...)
}
