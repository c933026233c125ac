package proof

import (
	"math/big"

	"bbsearch/internal/adapter"
	"bbsearch/internal/expr"
	"bbsearch/internal/rle"
	"bbsearch/internal/tm"
)

// ProofSystem is spec.md §4.5's ProofSystem: it implements chain.ProofHook,
// so a chain.Simulator can be built with one directly. loop_num (spec.md's
// per-sighting counter) is tracked internally since chain.ProofHook.Log
// receives only (state, tape) -- one Log call corresponds to exactly one
// ChainSimulator loop, which is what spec.md's loop_num counts.
//
// Grounded on original_source/FastSim/Proof_System.h's field layout
// (m_recursive, m_prove_new_rules, m_past_configs, m_proven_transitions);
// the .cpp's method bodies are all unimplemented stubs, so log/compare/
// applies here follow spec.md §4.5's prose directly.
type ProofSystem struct {
	adapter adapter.Adapter
	blank   tm.Symbol

	recursive     bool
	proveNewRules bool

	pool        *expr.Pool
	provenRules map[StrippedConfig]Rule
	pastConfigs map[StrippedConfig]PastConfig
	loopNum     *big.Int
}

// New builds a ProofSystem over the same MachineAdapter and blank symbol the
// enclosing ChainSimulator uses. recursive permits a proven rule to fire
// while another rule is mid-proof (spec.md §4.5's m_recursive); proveNewRules
// can be turned off to stop nested verification from recursing into further
// rule discovery (m_prove_new_rules).
func New(a adapter.Adapter, blank tm.Symbol, recursive, proveNewRules bool) *ProofSystem {
	return &ProofSystem{
		adapter:       a,
		blank:         blank,
		recursive:     recursive,
		proveNewRules: proveNewRules,
		pool:          expr.NewPool(),
		provenRules:   make(map[StrippedConfig]Rule),
		pastConfigs:   make(map[StrippedConfig]PastConfig),
		loopNum:       big.NewInt(0),
	}
}

// NumProvenRules reports how many distinct rules have been proven so far
// (used by tests and by reporting code, not by the algorithm itself).
func (p *ProofSystem) NumProvenRules() int { return len(p.provenRules) }

// LoopNum reports the current loop count (used by tests to check how
// quickly a rule got proven, per spec.md §8 S5's "before 10^4 loops").
func (p *ProofSystem) LoopNum() *big.Int { return new(big.Int).Set(p.loopNum) }

// Log implements chain.ProofHook (spec.md §4.5's log()).
func (p *ProofSystem) Log(state adapter.State, tape *rle.Tape[rle.BigCount]) (adapter.RunState, *rle.Tape[rle.BigCount], *big.Int, bool) {
	p.loopNum.Add(p.loopNum, big.NewInt(1))
	key := strip(state, tape)

	if rule, ok := p.provenRules[key]; ok {
		res := applies(rule, FullConfig{State: state, Tape: tape, LoopNum: new(big.Int).Set(p.loopNum)})
		if res.Applies {
			if !p.recursive || res.BadDelta {
				if p.proveNewRules {
					p.pastConfigs = make(map[StrippedConfig]PastConfig)
				}
			}
			if res.RunState == adapter.Infinite {
				return adapter.Infinite, nil, nil, true
			}
			return adapter.Running, res.NewTape, res.DeltaSteps, true
		}
	}

	if !p.proveNewRules {
		return adapter.Running, nil, nil, false
	}

	// The caller keeps mutating tape in place, so store a copy of this sighting.
	left, right := tape.Halves()
	snap := rle.NewFromBlocks[rle.BigCount](p.blank, rle.BigCountN(1), tape.Dir(), left, right, tape.Displace())
	full := FullConfig{State: state, Tape: snap, LoopNum: new(big.Int).Set(p.loopNum)}

	past, seen := p.pastConfigs[key]
	if !seen {
		p.pastConfigs[key] = PastConfig{TimesSeen: 1, Full: full}
		return adapter.Running, nil, nil, false
	}

	delta := new(big.Int).Sub(full.LoopNum, past.Full.LoopNum)
	if past.TimesSeen == 1 || past.Delta == nil || delta.Cmp(past.Delta) != 0 {
		p.pastConfigs[key] = PastConfig{TimesSeen: past.TimesSeen + 1, Delta: delta, Full: full}
		return adapter.Running, nil, nil, false
	}

	// Third consistent sighting at the same loop-number spacing: generalize.
	deltaInt := int(delta.Int64())
	if rule, ok := compare(p.pool, p.adapter, p.blank, past.Full, deltaInt); ok {
		p.provenRules[key] = rule
		delete(p.pastConfigs, key)

		res := applies(rule, full)
		if res.Applies {
			if res.RunState == adapter.Infinite {
				return adapter.Infinite, nil, nil, true
			}
			return adapter.Running, res.NewTape, res.DeltaSteps, true
		}
	}

	return adapter.Running, nil, nil, false
}
