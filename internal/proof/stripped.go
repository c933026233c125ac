// Package proof implements the ProofSystem of spec.md §4.5: it watches a
// ChainSimulator's (state, tape) at every loop, recognizes a stripped
// configuration recurring with a consistent loop-number spacing, generalizes
// the two sightings into a symbolic Rule via a GeneralChainSimulator, and
// thereafter applies that rule in O(1) whenever its precondition matches.
//
// Grounded on original_source/FastSim/Proof_System.h's data layout
// (m_past_configs, m_proven_transitions, m_recursive, m_prove_new_rules);
// the .cpp's log/compare/applies bodies are all "Error: Not implemented",
// so their logic here follows spec.md §4.5 directly rather than a port.
package proof

import (
	"fmt"
	"strings"

	"bbsearch/internal/adapter"
	"bbsearch/internal/rle"
)

// StrippedConfig is the generalization key of spec.md §4.5: state, tape
// direction, and for each half-tape block its symbol plus whether its count
// is exactly 1. Two concrete configurations strip to the same key whenever
// they differ only in how long their count>1 runs are -- the invariant that
// lets compare() generalize "a block of some X >= 2" across different X.
//
// Encoded as a string so it can key a plain Go map without a custom Equal;
// the token separator can't appear in any field's formatted form.
type StrippedConfig string

func strip(state adapter.State, tape *rle.Tape[rle.BigCount]) StrippedConfig {
	var b strings.Builder
	fmt.Fprintf(&b, "%d,%d,%d", state.Base, state.Back, tape.Dir())
	left, right := tape.Halves()
	for _, half := range [2][]rle.Block[rle.BigCount]{left, right} {
		b.WriteByte('|')
		for _, blk := range half {
			if blk.Infinite {
				continue
			}
			fmt.Fprintf(&b, ";%d", blk.Symbol)
			if blk.Count.CmpOne() == 0 {
				b.WriteString("=1")
			}
		}
	}
	return StrippedConfig(b.String())
}
