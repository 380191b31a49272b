// ABOUTME: Run-scoped search state: pools, two-user flag, parameters and run ID
// ABOUTME: Built and validated once per search, read-only while generations run

package genetic

import (
	"errors"
	"fmt"
	"log/slog"

	"diversify/playlist"

	"github.com/google/uuid"
)

// Params are the fixed genetic search parameters
type Params struct {
	IndividualSize int     // Songs per candidate playlist
	PopulationSize int     // Individuals per generation
	CrossoverRate  float64 // Probability a parent pair is recombined
	MutationRate   float64 // Probability an individual is mutated
	Generations    int     // Fixed generation count, no early stop
	TournamentSize int     // Individuals drawn per tournament
}

// DefaultParams returns the standard search parameters
func DefaultParams() Params {
	return Params{
		IndividualSize: 20,
		PopulationSize: 20,
		CrossoverRate:  0.7,
		MutationRate:   0.01,
		Generations:    50,
		TournamentSize: 3,
	}
}

func (p Params) validate() error {
	switch {
	case p.IndividualSize < 4:
		return fmt.Errorf("individual size must be at least 4, got %d", p.IndividualSize)
	case p.PopulationSize < 1:
		return fmt.Errorf("population size must be positive, got %d", p.PopulationSize)
	case p.Generations < 0:
		return fmt.Errorf("generation count must not be negative, got %d", p.Generations)
	case p.TournamentSize < 1:
		return fmt.Errorf("tournament size must be positive, got %d", p.TournamentSize)
	}

	return nil
}

// SearchContext holds everything an operator reads during one search.
// It is immutable after NewSearchContext and safe for concurrent readers.
type SearchContext struct {
	user1  *playlist.Pool
	user2  *playlist.Pool
	filler *playlist.Pool

	twoUsers bool
	params   Params
	runID    string
	logger   *slog.Logger

	// Union of all pools, first occurrence wins, in user1, user2, filler order
	unionIDs []string
	lookup   map[string]playlist.Features

	user1Rows []playlist.Features
	user2Rows []playlist.Features
}

// NewSearchContext validates the pools against params and builds the lookup tables.
// user2 may be nil for a single-user search.
func NewSearchContext(pools Pools, params Params, logger *slog.Logger) (*SearchContext, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	if pools.User1.Len() == 0 {
		return nil, fmt.Errorf("user1 pool is empty: %w", ErrDataUnavailable)
	}

	if pools.Filler.Len() == 0 {
		return nil, fmt.Errorf("filler pool is empty: %w", ErrDataUnavailable)
	}

	if logger == nil {
		logger = slog.Default()
	}

	runID := uuid.NewString()
	sc := &SearchContext{
		user1:    pools.User1,
		user2:    pools.User2,
		filler:   pools.Filler,
		twoUsers: pools.User2 != nil,
		params:   params,
		runID:    runID,
		logger:   logger.With("run_id", runID),
	}

	if err := sc.checkShares(); err != nil {
		return nil, err
	}

	sc.buildUnion()

	if len(sc.unionIDs) < params.IndividualSize {
		return nil, fmt.Errorf("union holds %d unique songs, individuals need %d: %w",
			len(sc.unionIDs), params.IndividualSize, ErrInsufficientUniqueSongs)
	}

	sc.user1Rows = sc.user1.Features()
	if sc.twoUsers {
		sc.user2Rows = sc.user2.Features()
	}

	return sc, nil
}

// checkShares verifies every pool can supply its share of an individual and of a mutation
func (sc *SearchContext) checkShares() error {
	userShare, fillerShare := sc.Shares()

	var errs []error

	if sc.user1.Len() < userShare {
		errs = append(errs, fmt.Errorf("user1 pool has %d songs, individuals need %d: %w",
			sc.user1.Len(), userShare, ErrInsufficientSongs))
	}

	if sc.twoUsers && sc.user2.Len() < userShare {
		errs = append(errs, fmt.Errorf("user2 pool has %d songs, individuals need %d: %w",
			sc.user2.Len(), userShare, ErrInsufficientSongs))
	}

	if sc.filler.Len() < fillerShare {
		errs = append(errs, fmt.Errorf("filler pool has %d songs, individuals need %d: %w",
			sc.filler.Len(), fillerShare, ErrInsufficientSongs))
	}

	if n := mutationDraw(sc.params.IndividualSize); sc.filler.Len() < n {
		errs = append(errs, fmt.Errorf("filler pool has %d songs, mutation draws %d: %w",
			sc.filler.Len(), n, ErrInsufficientSongs))
	}

	return errors.Join(errs...)
}

func (sc *SearchContext) buildUnion() {
	total := sc.user1.Len() + sc.user2.Len() + sc.filler.Len()
	sc.unionIDs = make([]string, 0, total)
	sc.lookup = make(map[string]playlist.Features, total)

	for _, p := range []*playlist.Pool{sc.user1, sc.user2, sc.filler} {
		if p == nil {
			continue
		}

		for _, s := range p.Songs() {
			if _, ok := sc.lookup[s.ID]; ok {
				continue
			}

			sc.lookup[s.ID] = s.Features
			sc.unionIDs = append(sc.unionIDs, s.ID)
		}
	}
}

// Shares returns how many songs an individual takes from each user pool and from the filler pool
func (sc *SearchContext) Shares() (user, filler int) {
	size := sc.params.IndividualSize
	if sc.twoUsers {
		each := size / 4
		return each, size - 2*each
	}

	each := size / 2

	return each, size - each
}

// Params returns the search parameters
func (sc *SearchContext) Params() Params {
	return sc.params
}

// RunID returns the identifier attached to this search's logs and updates
func (sc *SearchContext) RunID() string {
	return sc.runID
}

// TwoUsers reports whether the search balances two users' tastes
func (sc *SearchContext) TwoUsers() bool {
	return sc.twoUsers
}

// Logger returns the run-scoped logger
func (sc *SearchContext) Logger() *slog.Logger {
	return sc.logger
}

// User1 returns the first user's pool
func (sc *SearchContext) User1() *playlist.Pool {
	return sc.user1
}

// User2 returns the second user's pool, nil in single-user mode
func (sc *SearchContext) User2() *playlist.Pool {
	return sc.user2
}

// Filler returns the recommended filler pool
func (sc *SearchContext) Filler() *playlist.Pool {
	return sc.filler
}

// Song resolves an identifier against the pools in user1, user2, filler order
func (sc *SearchContext) Song(id string) (playlist.Song, bool) {
	for _, p := range []*playlist.Pool{sc.user1, sc.user2, sc.filler} {
		if s, ok := p.Get(id); ok {
			return s, true
		}
	}

	return playlist.Song{}, false
}

// Profile returns the feature rows for genes in gene order.
// Identifiers missing from every pool are skipped.
func (sc *SearchContext) Profile(genes []string) []playlist.Features {
	rows := make([]playlist.Features, 0, len(genes))
	for _, id := range genes {
		if f, ok := sc.lookup[id]; ok {
			rows = append(rows, f)
		}
	}

	return rows
}
