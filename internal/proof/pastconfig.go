package proof

import (
	"math/big"

	"bbsearch/internal/adapter"
	"bbsearch/internal/rle"
)

// FullConfig is one (state, tape) sighting along with the loop number it was
// observed at, the unit compare() generalizes between two sightings.
type FullConfig struct {
	State   adapter.State
	Tape    *rle.Tape[rle.BigCount]
	LoopNum *big.Int
}

// PastConfig is spec.md §4.5's per-key bookkeeping: how many times this
// StrippedConfig has recurred, the loop-number delta between the last two
// sightings (once there have been at least two), and the full sighting
// needed to generalize from once a third consistent sighting arrives.
type PastConfig struct {
	TimesSeen int
	Delta     *big.Int
	Full      FullConfig
}
