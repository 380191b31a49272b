// ABOUTME: Collaborator interfaces and construction of the user and filler pools
// ABOUTME: Seeds the recommender with a few random user songs to obtain filler songs

package genetic

import (
	"context"
	"fmt"
	"math/rand/v2"

	"diversify/playlist"
)

const (
	// UserPoolLimit caps how many songs of each user take part in a search
	UserPoolLimit = 20

	// SeedCount is the number of user songs sent to the recommender
	SeedCount = 4
)

// SongSource supplies a user's songs with audio features
type SongSource interface {
	UserSongs(ctx context.Context, userID string) ([]playlist.Song, error)
}

// Recommender supplies filler songs with audio features for a set of seed songs
type Recommender interface {
	Recommend(ctx context.Context, seedIDs []string) ([]playlist.Song, error)
}

// PlaylistSink turns the winning song list into a playlist and returns its ID
type PlaylistSink interface {
	CreatePlaylist(ctx context.Context, ownerID, name string, songIDs []string) (string, error)
}

// Pools groups the three pools a search runs over. User2 is nil in single-user mode.
type Pools struct {
	User1  *playlist.Pool
	User2  *playlist.Pool
	Filler *playlist.Pool
}

// BuildPools caps the user songs, draws recommendation seeds and fetches the filler pool.
// Pass twoUsers=false to ignore user2.
func BuildPools(ctx context.Context, rng *rand.Rand, rec Recommender, user1, user2 []playlist.Song, twoUsers bool) (Pools, error) {
	pools := Pools{User1: playlist.NewPool(playlist.RoleUser1, user1, UserPoolLimit)}
	if pools.User1.Len() == 0 {
		return Pools{}, fmt.Errorf("no songs for user1: %w", ErrDataUnavailable)
	}

	if twoUsers {
		pools.User2 = playlist.NewPool(playlist.RoleUser2, user2, UserPoolLimit)
		if pools.User2.Len() == 0 {
			return Pools{}, fmt.Errorf("no songs for user2: %w", ErrDataUnavailable)
		}
	}

	seeds, err := DrawSeeds(rng, pools.User1, pools.User2)
	if err != nil {
		return Pools{}, err
	}

	filler, err := rec.Recommend(ctx, seeds)
	if err != nil {
		return Pools{}, fmt.Errorf("fetching recommendations: %w", err)
	}

	pools.Filler = playlist.NewPool(playlist.RoleFiller, filler, 0)
	if pools.Filler.Len() == 0 {
		return Pools{}, fmt.Errorf("recommender returned no songs for seeds %v: %w", seeds, ErrDataUnavailable)
	}

	return pools, nil
}

// DrawSeeds picks SeedCount recommendation seeds: half from each user in
// two-user mode, all from user1 otherwise
func DrawSeeds(rng *rand.Rand, user1, user2 *playlist.Pool) ([]string, error) {
	if user2 == nil {
		seeds, err := user1.Sample(rng, SeedCount)
		if err != nil {
			return nil, fmt.Errorf("drawing seeds from user1: %w", err)
		}

		return seeds, nil
	}

	half := SeedCount / 2

	seeds, err := user1.Sample(rng, half)
	if err != nil {
		return nil, fmt.Errorf("drawing seeds from user1: %w", err)
	}

	more, err := user2.Sample(rng, SeedCount-half)
	if err != nil {
		return nil, fmt.Errorf("drawing seeds from user2: %w", err)
	}

	return append(seeds, more...), nil
}
