// ABOUTME: Song source that prefers local <user>features.csv files over the remote API
// ABOUTME: Falls back to another source when no local file exists for the user

package playlist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
)

// SongSource supplies a user's songs with audio features
type SongSource interface {
	UserSongs(ctx context.Context, userID string) ([]Song, error)
}

// FileSource reads <Dir>/<userID>features.csv and asks Fallback when the file is missing
type FileSource struct {
	Dir      string
	Fallback SongSource
	Logger   *slog.Logger
}

// FeaturesPath returns the CSV file consulted for userID
func (s FileSource) FeaturesPath(userID string) string {
	return filepath.Join(s.Dir, userID+"features.csv")
}

// UserSongs returns the songs from the user's CSV file, or from Fallback if there is none
func (s FileSource) UserSongs(ctx context.Context, userID string) ([]Song, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if s.Dir != "" {
		path := s.FeaturesPath(userID)

		songs, err := ReadFeaturesCSV(path)
		if err == nil {
			logger.Debug("loaded songs from file", "user", userID, "path", path, "songs", len(songs))
			return songs, nil
		}

		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if s.Fallback == nil {
		return nil, fmt.Errorf("no song file for user %s and no remote source", userID)
	}

	return s.Fallback.UserSongs(ctx, userID)
}
