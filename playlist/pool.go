// ABOUTME: Feature pools: ordered, identifier-unique song tables with O(1) lookup
// ABOUTME: Supports truncation on construction and sampling without replacement

package playlist

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrInsufficientSongs is returned when a pool cannot supply the requested number of songs
var ErrInsufficientSongs = errors.New("insufficient songs")

// Role identifies which taste a pool stands for
type Role string

const (
	RoleUser1  Role = "user1"
	RoleUser2  Role = "user2"
	RoleFiller Role = "filler"
)

// Pool is an immutable table of songs keyed by ID.
// Row order is the order songs were supplied in.
type Pool struct {
	role  Role
	songs []Song
	index map[string]int
}

// NewPool builds a pool from songs, keeping the first occurrence of each ID.
// If limit > 0 the pool holds at most limit songs.
func NewPool(role Role, songs []Song, limit int) *Pool {
	p := &Pool{
		role:  role,
		songs: make([]Song, 0, len(songs)),
		index: make(map[string]int, len(songs)),
	}

	for _, s := range songs {
		if limit > 0 && len(p.songs) >= limit {
			break
		}

		if s.ID == "" {
			continue
		}

		if _, dup := p.index[s.ID]; dup {
			continue
		}

		p.index[s.ID] = len(p.songs)
		p.songs = append(p.songs, s)
	}

	return p
}

// Role returns the pool's role
func (p *Pool) Role() Role {
	return p.role
}

// Len returns the number of songs in the pool
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}

	return len(p.songs)
}

// Songs returns the pool rows in order. The slice must not be modified.
func (p *Pool) Songs() []Song {
	return p.songs
}

// IDs returns the song identifiers in row order
func (p *Pool) IDs() []string {
	ids := make([]string, len(p.songs))
	for i, s := range p.songs {
		ids[i] = s.ID
	}

	return ids
}

// Get looks up a song by ID
func (p *Pool) Get(id string) (Song, bool) {
	if p == nil {
		return Song{}, false
	}

	i, ok := p.index[id]
	if !ok {
		return Song{}, false
	}

	return p.songs[i], true
}

// Contains reports whether the pool holds id
func (p *Pool) Contains(id string) bool {
	_, ok := p.Get(id)
	return ok
}

// Features returns the feature rows in pool order
func (p *Pool) Features() []Features {
	rows := make([]Features, len(p.songs))
	for i, s := range p.songs {
		rows[i] = s.Features
	}

	return rows
}

// Sample draws n distinct song IDs uniformly at random without replacement
func (p *Pool) Sample(rng *rand.Rand, n int) ([]string, error) {
	return SampleIDs(rng, p.IDs(), n)
}

// SampleIDs draws n distinct elements of ids uniformly without replacement.
// ids is not modified. The result order is random.
func SampleIDs(rng *rand.Rand, ids []string, n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("sample size %d: %w", n, ErrInsufficientSongs)
	}

	if n > len(ids) {
		return nil, fmt.Errorf("need %d songs, have %d: %w", n, len(ids), ErrInsufficientSongs)
	}

	// Partial Fisher-Yates over a copy
	buf := make([]string, len(ids))
	copy(buf, ids)

	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(buf)-i)
		buf[i], buf[j] = buf[j], buf[i]
	}

	return buf[:n], nil
}
