// ABOUTME: Sentinel errors returned by the playlist search
// ABOUTME: Callers match them with errors.Is; operators wrap them with context

package genetic

import (
	"errors"

	"diversify/playlist"
)

var (
	// ErrDataUnavailable means a required pool (user1 or filler) came back empty
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInsufficientSongs means a pool cannot supply enough songs to sample without replacement
	ErrInsufficientSongs = playlist.ErrInsufficientSongs

	// ErrInsufficientUniqueSongs means duplicate repair cannot reach the individual size
	ErrInsufficientUniqueSongs = errors.New("insufficient unique songs")

	// ErrEngineUsed means Run or Search was called on an engine that already ran
	ErrEngineUsed = errors.New("engine already ran")
)
