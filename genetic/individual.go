// ABOUTME: Individual and Population types and random initial generation
// ABOUTME: Individuals are fixed-size sets of distinct song identifiers

package genetic

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Individual represents a candidate playlist in the genetic algorithm
// with its fitness score (higher is better)
type Individual struct {
	Genes []string // Song identifiers, order only matters for positional correlation
	Score float64
}

// Population is one generation of individuals
type Population []Individual

// Valid reports whether the individual holds exactly size distinct identifiers
func (ind Individual) Valid(size int) bool {
	if len(ind.Genes) != size {
		return false
	}

	seen := make(map[string]struct{}, len(ind.Genes))
	for _, id := range ind.Genes {
		if _, dup := seen[id]; dup {
			return false
		}

		seen[id] = struct{}{}
	}

	return true
}

// Clone returns a copy that shares no memory with ind
func (ind Individual) Clone() Individual {
	return Individual{Genes: slices.Clone(ind.Genes), Score: ind.Score}
}

// GenerateIndividual samples a fresh individual: user1 songs, then filler, then user2 songs.
// Filler songs that are also user songs are replaced by duplicate repair.
func GenerateIndividual(sc *SearchContext, rng *rand.Rand) (Individual, error) {
	userShare, fillerShare := sc.Shares()
	genes := make([]string, 0, sc.params.IndividualSize)

	ids, err := sc.user1.Sample(rng, userShare)
	if err != nil {
		return Individual{}, fmt.Errorf("sampling user1: %w", err)
	}

	genes = append(genes, ids...)

	ids, err = sc.filler.Sample(rng, fillerShare)
	if err != nil {
		return Individual{}, fmt.Errorf("sampling filler: %w", err)
	}

	genes = append(genes, ids...)

	if sc.twoUsers {
		ids, err = sc.user2.Sample(rng, userShare)
		if err != nil {
			return Individual{}, fmt.Errorf("sampling user2: %w", err)
		}

		genes = append(genes, ids...)
	}

	genes, err = RemoveDuplicates(sc, rng, genes)
	if err != nil {
		return Individual{}, err
	}

	return Individual{Genes: genes}, nil
}

// GeneratePopulation samples PopulationSize independent individuals
func GeneratePopulation(sc *SearchContext, rng *rand.Rand) (Population, error) {
	pop := make(Population, sc.params.PopulationSize)
	for i := range pop {
		ind, err := GenerateIndividual(sc, rng)
		if err != nil {
			return nil, err
		}

		pop[i] = ind
	}

	return pop, nil
}

// Best returns the fittest individual and its index; the first maximum wins.
// Returns -1 for an empty population.
func (pop Population) Best() (Individual, int) {
	if len(pop) == 0 {
		return Individual{}, -1
	}

	best := 0
	for i := 1; i < len(pop); i++ {
		if pop[i].Score > pop[best].Score {
			best = i
		}
	}

	return pop[best], best
}

// MeanScore returns the average fitness of the population
func (pop Population) MeanScore() float64 {
	if len(pop) == 0 {
		return 0
	}

	var sum float64
	for _, ind := range pop {
		sum += ind.Score
	}

	return sum / float64(len(pop))
}
