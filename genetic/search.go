// ABOUTME: Search driver running selection, crossover and mutation for a fixed generation count
// ABOUTME: Scores each generation on a worker pool and reports progress over an optional channel

// Package genetic searches for a playlist matching one or two users' audio
// feature profiles with a generational genetic algorithm.
//
// The algorithm works as follows:
//  1. Sample a random population of fixed-size individuals from the user and filler pools
//  2. For each generation:
//     a. Select parents by tournament (higher fitness wins)
//     b. Recombine parent pairs at a random cut, or carry them forward unchanged
//     c. Mutate offspring by swapping half their songs for filler songs
//     d. Repair every offspring to the individual size with distinct songs
//     e. Score the offspring in parallel and publish a progress update
//  3. Return the fittest individual of the final population
//
// Fitness maximizes the summed per-feature Pearson correlation between a
// candidate's profile and each user's profile. The search is a heuristic: the
// best score is not guaranteed to increase from one generation to the next.
package genetic

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"diversify/pool"
)

// Update describes the state of the search after a generation
type Update struct {
	RunID       string
	Generation  int // 0 is the initial population
	Generations int
	BestFitness float64
	MeanFitness float64
	Best        Individual
}

// Result is the outcome of a completed search
type Result struct {
	RunID       string
	Best        Individual
	InitialBest float64 // Best fitness of the initial population
	Generations int
	Elapsed     time.Duration
}

// Engine runs one search over a SearchContext
type Engine struct {
	sc      *SearchContext
	rng     *rand.Rand
	workers int
	updates chan<- Update

	used      atomic.Bool
	closeOnce sync.Once
}

// Option configures an Engine
type Option func(*Engine)

// WithUpdates sends an Update after every generation. Sends never block;
// updates are dropped when the channel is full. The channel is closed when
// the run ends.
func WithUpdates(ch chan<- Update) Option {
	return func(e *Engine) {
		e.updates = ch
	}
}

// WithWorkers sets the number of fitness workers, n <= 0 uses every CPU
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// NewEngine creates an engine drawing all randomness from rng.
// rng is only used from the goroutine calling Run or Search.
// An engine runs once; later calls return ErrEngineUsed.
func NewEngine(sc *SearchContext, rng *rand.Rand, opts ...Option) *Engine {
	e := &Engine{sc: sc, rng: rng}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Search runs the generational loop and returns the fittest individual of the final population
func (e *Engine) Search(ctx context.Context) (Result, error) {
	start := time.Now()

	pop, initialBest, err := e.run(ctx)
	if err != nil {
		return Result{}, err
	}

	best, _ := pop.Best()

	result := Result{
		RunID:       e.sc.runID,
		Best:        best.Clone(),
		InitialBest: initialBest,
		Generations: e.sc.params.Generations,
		Elapsed:     time.Since(start),
	}

	e.sc.logger.Info("search complete",
		"generations", result.Generations,
		"initial_best", result.InitialBest,
		"best", result.Best.Score,
		"elapsed", result.Elapsed)

	return result, nil
}

// Run executes the generational loop and returns the scored final population
func (e *Engine) Run(ctx context.Context) (Population, error) {
	pop, _, err := e.run(ctx)
	return pop, err
}

func (e *Engine) run(ctx context.Context) (Population, float64, error) {
	if !e.used.CompareAndSwap(false, true) {
		return nil, 0, ErrEngineUsed
	}

	defer e.closeUpdates()

	sc := e.sc
	params := sc.params

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("search cancelled before start: %w", err)
	}

	// Create worker pool for parallel fitness evaluation
	wp := pool.NewWorkerPool(e.workers, params.PopulationSize)
	defer wp.Close()

	pop, err := GeneratePopulation(sc, e.rng)
	if err != nil {
		return nil, 0, err
	}

	e.evaluate(wp, pop)

	initial, _ := pop.Best()
	sc.logger.Debug("initial population",
		"best", initial.Score,
		"mean", pop.MeanScore(),
		"workers", wp.Workers())
	e.publish(0, pop)

	for gen := 1; gen <= params.Generations; gen++ {
		select {
		case <-ctx.Done():
			sc.logger.Debug("search cancelled", "generation", gen)
			return nil, 0, fmt.Errorf("search cancelled at generation %d: %w", gen, ctx.Err())
		default:
		}

		parents := SelectParents(e.rng, pop, params.TournamentSize)

		children, err := GenerateChildren(sc, e.rng, parents)
		if err != nil {
			return nil, 0, fmt.Errorf("generation %d: %w", gen, err)
		}

		for i := range children {
			children[i], err = Mutate(sc, e.rng, children[i], params.MutationRate)
			if err != nil {
				return nil, 0, fmt.Errorf("generation %d: %w", gen, err)
			}
		}

		e.evaluate(wp, children)
		pop = children

		best, _ := pop.Best()
		sc.logger.Debug("generation complete",
			"generation", gen,
			"best", best.Score,
			"mean", pop.MeanScore())
		e.publish(gen, pop)
	}

	return pop, initial.Score, nil
}

// evaluate scores every individual in place.
// Each task writes only its own index, so no locking is needed.
func (e *Engine) evaluate(wp *pool.WorkerPool, pop Population) {
	wp.ForEach(len(pop), func(i int) {
		pop[i].Score = Fitness(e.sc, pop[i].Genes)
	})
}

func (e *Engine) publish(gen int, pop Population) {
	if e.updates == nil {
		return
	}

	best, _ := pop.Best()

	select {
	case e.updates <- Update{
		RunID:       e.sc.runID,
		Generation:  gen,
		Generations: e.sc.params.Generations,
		BestFitness: best.Score,
		MeanFitness: pop.MeanScore(),
		Best:        best.Clone(),
	}:
	default:
		// Don't block if channel is full
	}
}

func (e *Engine) closeUpdates() {
	if e.updates == nil {
		return
	}

	e.closeOnce.Do(func() {
		close(e.updates)
	})
}
