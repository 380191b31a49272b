// ABOUTME: Tournament selection of the parent pool
// ABOUTME: Draws with replacement so strong individuals can be picked repeatedly

package genetic

import (
	"math/rand/v2"
)

// SelectParents runs len(pop) tournaments of k individuals drawn with replacement.
// Each tournament keeps the highest score; ties keep the first drawn.
// The returned individuals share genes with pop, which must not be modified.
func SelectParents(rng *rand.Rand, pop Population, k int) Population {
	if len(pop) == 0 {
		return nil
	}

	if k < 1 {
		k = 1
	}

	parents := make(Population, len(pop))
	for i := range parents {
		bestIdx := rng.IntN(len(pop))
		bestScore := pop[bestIdx].Score

		for j := 1; j < k; j++ {
			idx := rng.IntN(len(pop))
			if pop[idx].Score > bestScore {
				bestIdx = idx
				bestScore = pop[idx].Score
			}
		}

		parents[i] = pop[bestIdx]
	}

	return parents
}
