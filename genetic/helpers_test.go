// ABOUTME: Shared fixtures for genetic search tests
// ABOUTME: Builds synthetic song pools, contexts and a fake recommender

package genetic

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"diversify/playlist"

	"github.com/stretchr/testify/require"
)

// makeSongs builds n songs whose features follow feat(i)
func makeSongs(prefix string, n int, feat func(i int) playlist.Features) []playlist.Song {
	songs := make([]playlist.Song, n)
	for i := range songs {
		songs[i] = playlist.Song{
			ID:       fmt.Sprintf("%s%02d", prefix, i),
			Name:     fmt.Sprintf("Song %d", i),
			Artist:   prefix,
			Features: feat(i),
		}
	}

	return songs
}

// rising varies every column linearly with i
func rising(i int) playlist.Features {
	x := float64(i)
	return playlist.Features{
		Speechiness:      0.02 * x,
		Liveness:         0.5 + 0.01*x,
		Danceability:     0.03*x + 0.1,
		Loudness:         -20 + 0.7*x,
		Acousticness:     1 - 0.04*x,
		Instrumentalness: 0.9 - 0.02*x,
		Energy:           0.04 * x,
		Tempo:            80 + 3*x,
	}
}

// falling mirrors rising
func falling(i int) playlist.Features {
	return rising(19 - i%20)
}

// scattered is uncorrelated noise from a fixed seed
func scattered(seed uint64) func(int) playlist.Features {
	return func(i int) playlist.Features {
		r := rand.New(rand.NewPCG(seed, uint64(i)))
		var v [playlist.NumFeatures]float64
		for col := range v {
			v[col] = r.Float64()
		}

		return playlist.FeaturesFromValues(v)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// singleUserContext has 20 user1 songs and 30 filler songs
func singleUserContext(t *testing.T) *SearchContext {
	t.Helper()

	pools := Pools{
		User1:  playlist.NewPool(playlist.RoleUser1, makeSongs("u", 20, rising), UserPoolLimit),
		Filler: playlist.NewPool(playlist.RoleFiller, makeSongs("f", 30, scattered(1)), 0),
	}

	sc, err := NewSearchContext(pools, DefaultParams(), testLogger())
	require.NoError(t, err)

	return sc
}

// twoUserContext has anti-correlated user pools and 30 filler songs
func twoUserContext(t *testing.T) *SearchContext {
	t.Helper()

	pools := Pools{
		User1:  playlist.NewPool(playlist.RoleUser1, makeSongs("a", 20, rising), UserPoolLimit),
		User2:  playlist.NewPool(playlist.RoleUser2, makeSongs("b", 20, falling), UserPoolLimit),
		Filler: playlist.NewPool(playlist.RoleFiller, makeSongs("f", 30, scattered(2)), 0),
	}

	sc, err := NewSearchContext(pools, DefaultParams(), testLogger())
	require.NoError(t, err)

	return sc
}

// requireValid asserts the individual has size distinct genes that all resolve to a pool
func requireValid(t *testing.T, sc *SearchContext, ind Individual) {
	t.Helper()

	require.Len(t, ind.Genes, sc.Params().IndividualSize)
	require.True(t, ind.Valid(sc.Params().IndividualSize), "duplicate genes in %v", ind.Genes)

	for _, id := range ind.Genes {
		_, ok := sc.Song(id)
		require.True(t, ok, "gene %s not in any pool", id)
	}
}

type fakeRecommender struct {
	songs []playlist.Song
	err   error
	seeds []string
}

func (f *fakeRecommender) Recommend(_ context.Context, seedIDs []string) ([]playlist.Song, error) {
	f.seeds = append(f.seeds, seedIDs...)
	return f.songs, f.err
}
