// ABOUTME: Tests for pool construction and search context validation
// ABOUTME: Covers seed drawing, empty pools and undersized pool errors

package genetic

import (
	"context"
	"errors"
	"testing"

	"diversify/playlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPoolsSingleUser(t *testing.T) {
	rec := &fakeRecommender{songs: makeSongs("f", 100, scattered(3))}

	pools, err := BuildPools(context.Background(), newRNG(1), rec, makeSongs("u", 35, rising), nil, false)
	require.NoError(t, err)

	assert.Equal(t, UserPoolLimit, pools.User1.Len(), "user pool is capped")
	assert.Nil(t, pools.User2)
	assert.Equal(t, 100, pools.Filler.Len(), "filler pool is not capped")

	require.Len(t, rec.seeds, SeedCount)
	for _, id := range rec.seeds {
		assert.True(t, pools.User1.Contains(id), "seed %s is not a user1 song", id)
	}
}

func TestBuildPoolsTwoUsers(t *testing.T) {
	rec := &fakeRecommender{songs: makeSongs("f", 50, scattered(3))}

	pools, err := BuildPools(context.Background(), newRNG(2), rec,
		makeSongs("a", 20, rising), makeSongs("b", 20, falling), true)
	require.NoError(t, err)
	require.NotNil(t, pools.User2)

	require.Len(t, rec.seeds, SeedCount)
	assert.True(t, pools.User1.Contains(rec.seeds[0]))
	assert.True(t, pools.User1.Contains(rec.seeds[1]))
	assert.True(t, pools.User2.Contains(rec.seeds[2]))
	assert.True(t, pools.User2.Contains(rec.seeds[3]))
}

func TestBuildPoolsErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		user1    []playlist.Song
		user2    []playlist.Song
		twoUsers bool
		rec      *fakeRecommender
		want     error
	}{
		{
			name:  "empty user1",
			user1: nil,
			rec:   &fakeRecommender{songs: makeSongs("f", 20, rising)},
			want:  ErrDataUnavailable,
		},
		{
			name:     "empty user2",
			user1:    makeSongs("a", 20, rising),
			twoUsers: true,
			rec:      &fakeRecommender{songs: makeSongs("f", 20, rising)},
			want:     ErrDataUnavailable,
		},
		{
			name:  "no recommendations",
			user1: makeSongs("u", 20, rising),
			rec:   &fakeRecommender{},
			want:  ErrDataUnavailable,
		},
		{
			name:  "too few seeds",
			user1: makeSongs("u", 3, rising),
			rec:   &fakeRecommender{songs: makeSongs("f", 20, rising)},
			want:  ErrInsufficientSongs,
		},
		{
			name:  "recommender failure",
			user1: makeSongs("u", 20, rising),
			rec:   &fakeRecommender{err: boom},
			want:  boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPools(context.Background(), newRNG(3), tt.rec, tt.user1, tt.user2, tt.twoUsers)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewSearchContextValidation(t *testing.T) {
	user1 := makeSongs("u", 20, rising)

	tests := []struct {
		name  string
		pools Pools
		want  error
	}{
		{
			name: "empty user1",
			pools: Pools{
				User1:  playlist.NewPool(playlist.RoleUser1, nil, UserPoolLimit),
				Filler: playlist.NewPool(playlist.RoleFiller, makeSongs("f", 20, rising), 0),
			},
			want: ErrDataUnavailable,
		},
		{
			name: "empty filler",
			pools: Pools{
				User1:  playlist.NewPool(playlist.RoleUser1, user1, UserPoolLimit),
				Filler: playlist.NewPool(playlist.RoleFiller, nil, 0),
			},
			want: ErrDataUnavailable,
		},
		{
			name: "filler smaller than its share",
			pools: Pools{
				User1:  playlist.NewPool(playlist.RoleUser1, user1, UserPoolLimit),
				Filler: playlist.NewPool(playlist.RoleFiller, makeSongs("f", 9, rising), 0),
			},
			want: ErrInsufficientSongs,
		},
		{
			name: "user2 smaller than its share",
			pools: Pools{
				User1:  playlist.NewPool(playlist.RoleUser1, user1, UserPoolLimit),
				User2:  playlist.NewPool(playlist.RoleUser2, makeSongs("b", 4, falling), UserPoolLimit),
				Filler: playlist.NewPool(playlist.RoleFiller, makeSongs("f", 20, rising), 0),
			},
			want: ErrInsufficientSongs,
		},
		{
			name: "union too small",
			pools: Pools{
				User1:  playlist.NewPool(playlist.RoleUser1, makeSongs("u", 10, rising), UserPoolLimit),
				Filler: playlist.NewPool(playlist.RoleFiller, makeSongs("u", 10, rising), 0),
			},
			want: ErrInsufficientUniqueSongs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearchContext(tt.pools, DefaultParams(), testLogger())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewSearchContextRejectsBadParams(t *testing.T) {
	pools := Pools{
		User1:  playlist.NewPool(playlist.RoleUser1, makeSongs("u", 20, rising), UserPoolLimit),
		Filler: playlist.NewPool(playlist.RoleFiller, makeSongs("f", 20, rising), 0),
	}

	params := DefaultParams()
	params.IndividualSize = 2

	_, err := NewSearchContext(pools, params, testLogger())
	assert.Error(t, err)
}

func TestSearchContextShares(t *testing.T) {
	user, filler := singleUserContext(t).Shares()
	assert.Equal(t, 10, user)
	assert.Equal(t, 10, filler)

	user, filler = twoUserContext(t).Shares()
	assert.Equal(t, 5, user)
	assert.Equal(t, 10, filler)
}

func TestSearchContextRunIDs(t *testing.T) {
	a := singleUserContext(t)
	b := singleUserContext(t)

	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestProfileSkipsUnknownIDs(t *testing.T) {
	sc := singleUserContext(t)

	rows := sc.Profile([]string{"u00", "nope", "f01"})
	require.Len(t, rows, 2)

	u0, _ := sc.Song("u00")
	assert.Equal(t, u0.Features, rows[0])
}
