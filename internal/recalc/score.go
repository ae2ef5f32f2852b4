package recalc

import (
	"math"

	"morphcalc/internal/morph"
)

// Difficulty is lexicographic: the number of unknown morphemes dominates, the
// summed priority ranks break ties. A single scalar encodes both by giving
// each unknown a penalty no realistic priority sum can reach: with priority
// ranks drawn from at most a 50k-entry frequency table and the summed
// contribution capped at ten times that, 500000 is safely above the cap.
const (
	// UnknownPenalty is added once per unknown morpheme on a card.
	UnknownPenalty = 500000
	// MaxDifficulty is the sentinel for cards that should sort last: cards
	// with no morpheme data, and fully-known cards when stale skipping is on.
	MaxDifficulty = math.MaxInt32
)

// Score computes a card's difficulty and the surface forms of its unknown
// morphemes. morphs is the card's association list; intervals and priority
// are the cache-wide lookups. A card with no associations gets MaxDifficulty.
func Score(morphs []morph.Key, intervals, priority map[morph.Key]int, skipStale bool) (int, []string) {
	if len(morphs) == 0 {
		// Extraction failed or the source field was empty.
		return MaxDifficulty, nil
	}

	difficulty := 0
	var unknowns []string
	for _, k := range morphs {
		if intervals[k] == 0 {
			unknowns = append(unknowns, k.Inflected)
		}
		difficulty += priority[k]
	}

	// Clamp the priority component so an outlier card cannot spill into the
	// next unknown-count tier.
	if difficulty >= UnknownPenalty {
		difficulty = UnknownPenalty - 1
	}
	difficulty += len(unknowns) * UnknownPenalty

	if len(unknowns) == 0 && skipStale {
		return MaxDifficulty, nil
	}
	return difficulty, unknowns
}
