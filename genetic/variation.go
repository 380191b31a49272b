// ABOUTME: Crossover, mutation and duplicate repair operators
// ABOUTME: Every operator returns individuals of exactly IndividualSize distinct songs

package genetic

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"diversify/playlist"
)

// GenerateChildren builds the next generation from the parent pool.
//
// Each iteration draws two parents with replacement. With probability
// CrossoverRate the pair is recombined at a random cut c in [1, size-1]:
// child1 takes c songs sampled from parent1 and size-c from parent2, child2
// the complement. Both children are repaired; if either is still invalid the
// parents are kept instead. Otherwise the parents are carried forward.
func GenerateChildren(sc *SearchContext, rng *rand.Rand, parents Population) (Population, error) {
	if len(parents) == 0 {
		return nil, nil
	}

	n := sc.params.PopulationSize
	size := sc.params.IndividualSize
	children := make(Population, 0, n+1)

	for range (n + 1) / 2 {
		p1 := parents[rng.IntN(len(parents))]
		p2 := parents[rng.IntN(len(parents))]

		if rng.Float64() >= sc.params.CrossoverRate {
			children = append(children, p1.Clone(), p2.Clone())
			continue
		}

		cut := 1 + rng.IntN(size-1)

		c1, err := recombine(sc, rng, p1.Genes, p2.Genes, cut)
		if err != nil {
			return nil, err
		}

		c2, err := recombine(sc, rng, p2.Genes, p1.Genes, cut)
		if err != nil {
			return nil, err
		}

		if !c1.Valid(size) || !c2.Valid(size) {
			sc.logger.Debug("crossover produced an invalid child, keeping parents", "cut", cut)
			children = append(children, p1.Clone(), p2.Clone())

			continue
		}

		children = append(children, c1, c2)
	}

	return children[:n], nil
}

// recombine samples cut genes from a and size-cut from b, then repairs the result
func recombine(sc *SearchContext, rng *rand.Rand, a, b []string, cut int) (Individual, error) {
	head, err := playlist.SampleIDs(rng, a, min(cut, len(a)))
	if err != nil {
		return Individual{}, fmt.Errorf("crossover: %w", err)
	}

	tail, err := playlist.SampleIDs(rng, b, min(sc.params.IndividualSize-cut, len(b)))
	if err != nil {
		return Individual{}, fmt.Errorf("crossover: %w", err)
	}

	genes, err := RemoveDuplicates(sc, rng, append(head, tail...))
	if err != nil {
		return Individual{}, err
	}

	return Individual{Genes: genes}, nil
}

// mutationDraw is the number of genes a mutation replaces: every even index
func mutationDraw(size int) int {
	return (size + 1) / 2
}

// Mutate replaces the genes at even indices with fresh filler songs with probability prob.
// Otherwise ind is returned unchanged.
func Mutate(sc *SearchContext, rng *rand.Rand, ind Individual, prob float64) (Individual, error) {
	if rng.Float64() >= prob {
		return ind, nil
	}

	kept := make([]string, 0, len(ind.Genes))
	for i := 1; i < len(ind.Genes); i += 2 {
		kept = append(kept, ind.Genes[i])
	}

	fresh, err := sc.filler.Sample(rng, mutationDraw(len(ind.Genes)))
	if err != nil {
		return Individual{}, fmt.Errorf("mutation: %w", err)
	}

	genes, err := RemoveDuplicates(sc, rng, append(kept, fresh...))
	if err != nil {
		return Individual{}, err
	}

	return Individual{Genes: genes}, nil
}

// RemoveDuplicates restores genes to IndividualSize distinct identifiers.
//
// The first occurrence of each identifier is kept and extra genes are
// truncated. Missing genes are sampled from the union of all pools,
// restricted to identifiers not already present, so repair finishes in one
// draw or fails with ErrInsufficientUniqueSongs.
func RemoveDuplicates(sc *SearchContext, rng *rand.Rand, genes []string) ([]string, error) {
	size := sc.params.IndividualSize
	out := make([]string, 0, size)
	present := make(map[string]struct{}, size)

	for _, id := range genes {
		if len(out) == size {
			break
		}

		if _, dup := present[id]; dup {
			continue
		}

		present[id] = struct{}{}
		out = append(out, id)
	}

	missing := size - len(out)
	if missing == 0 {
		return out, nil
	}

	candidates := slices.DeleteFunc(slices.Clone(sc.unionIDs), func(id string) bool {
		_, ok := present[id]
		return ok
	})

	if len(candidates) < missing {
		return nil, fmt.Errorf("repair needs %d more songs, %d candidates left: %w",
			missing, len(candidates), ErrInsufficientUniqueSongs)
	}

	extra, err := playlist.SampleIDs(rng, candidates, missing)
	if err != nil {
		return nil, fmt.Errorf("repair: %w", err)
	}

	return append(out, extra...), nil
}
