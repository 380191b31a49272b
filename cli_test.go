// ABOUTME: Tests for command wiring, exit codes and result output
// ABOUTME: Exercises commands that need no network access

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diversify/config"
	"diversify/genetic"
	"diversify/playlist"
	"diversify/spotify"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: ExitSuccess},
		{name: "usage error", err: usageError{errors.New("bad flag")}, want: ExitUsage},
		{name: "wrapped usage error", err: fmt.Errorf("context: %w", usageError{errors.New("bad")}), want: ExitUsage},
		{name: "not logged in", err: fmt.Errorf("session: %w", spotify.ErrNotLoggedIn), want: ExitUsage},
		{name: "no credentials", err: spotify.ErrNoCredentials, want: ExitUsage},
		{name: "search failure", err: fmt.Errorf("pools: %w", genetic.ErrDataUnavailable), want: ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

// writeConfig writes a config file whose token cache lives in dir
func writeConfig(t *testing.T, dir string, mutate func(*config.Config)) string {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Paths.TokenCache = filepath.Join(dir, "token.json")
	cfg.Paths.CSVDir = filepath.Join(dir, "csv")

	if mutate != nil {
		mutate(&cfg)
	}

	path := filepath.Join(dir, "diversify.toml")
	require.NoError(t, config.SaveConfig(path, cfg))

	return path
}

func TestRunRejectsBadUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"--bogus"}},
		{name: "playlist without name", args: []string{"playlist"}},
		{name: "download without file", args: []string{"download"}},
		{name: "logout with arguments", args: []string{"logout", "extra"}},
		{name: "bad seed", args: []string{"playlist", "--seed", "abc", "name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ExitUsage, run(tt.args))
		})
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), func(cfg *config.Config) {
		cfg.GA.IndividualSize = 2
	})

	assert.Equal(t, ExitUsage, run([]string{"logout", "--config", path}))
}

func TestRunLogout(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, nil)

	var out bytes.Buffer

	require.NoError(t, RunLogout(GlobalOptions{ConfigPath: path}, &out))
	assert.Equal(t, "Already logged out\n", out.String())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "token.json"), []byte(`{"access_token":"x"}`), 0o600))

	out.Reset()
	require.NoError(t, RunLogout(GlobalOptions{ConfigPath: path}, &out))
	assert.Equal(t, "Logged out\n", out.String())

	_, err := os.Stat(filepath.Join(dir, "token.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunPlaylistRequiresLogin(t *testing.T) {
	path := writeConfig(t, t.TempDir(), func(cfg *config.Config) {
		cfg.Spotify.ClientID = "id"
		cfg.Spotify.ClientSecret = "secret"
	})

	err := RunPlaylist(t.Context(), GlobalOptions{ConfigPath: path}, PlaylistOptions{Name: "test"})
	require.ErrorIs(t, err, spotify.ErrNotLoggedIn)
	assert.Equal(t, ExitUsage, exitCode(err))
}

func TestSearchParams(t *testing.T) {
	ga := config.DefaultConfig().GA
	ga.Workers = 3

	assert.Equal(t, genetic.DefaultParams(), searchParams(ga))
}

func TestNewRNG(t *testing.T) {
	ga := config.GAConfig{Seed: 7}

	draw := func(opts PlaylistOptions) uint64 {
		return newRNG(ga, opts).Uint64()
	}

	assert.Equal(t, draw(PlaylistOptions{}), draw(PlaylistOptions{}), "config seed is reproducible")
	assert.Equal(t, draw(PlaylistOptions{Seed: 9, SeedSet: true}), draw(PlaylistOptions{Seed: 9, SeedSet: true}))
	assert.NotEqual(t, draw(PlaylistOptions{}), draw(PlaylistOptions{Seed: 9, SeedSet: true}), "flag overrides config")
}

func testSongs(prefix string, n int) []playlist.Song {
	songs := make([]playlist.Song, n)
	for i := range songs {
		x := float64(i)
		songs[i] = playlist.Song{
			ID:     fmt.Sprintf("%s%02d", prefix, i),
			Name:   fmt.Sprintf("%s song %d", prefix, i),
			Artist: prefix + " artist",
			Features: playlist.Features{
				Speechiness: 0.01 * x, Liveness: 0.02 * x, Danceability: 0.03 * x, Loudness: -10 + x,
				Acousticness: 1 - 0.01*x, Instrumentalness: 0.5, Energy: 0.04 * x, Tempo: 90 + x,
			},
		}
	}

	return songs
}

func TestPrintResult(t *testing.T) {
	pools := genetic.Pools{
		User1:  playlist.NewPool(playlist.RoleUser1, testSongs("mine", 20), genetic.UserPoolLimit),
		Filler: playlist.NewPool(playlist.RoleFiller, testSongs("rec", 30), 0),
	}

	sc, err := genetic.NewSearchContext(pools, genetic.DefaultParams(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	genes := slices.Concat(pools.User1.IDs()[:10], pools.Filler.IDs()[:10])

	var out bytes.Buffer
	printResult(&out, sc, genetic.Result{
		Best:        genetic.Individual{Genes: genes, Score: 1.5},
		InitialBest: 0.25,
	})

	text := out.String()
	assert.Contains(t, text, "mine song 0")
	assert.Contains(t, text, "rec song 9")
	assert.Contains(t, text, "you")
	assert.Contains(t, text, "recommended")
	assert.Contains(t, text, "Fitness: 1.5000, initial best 0.2500")
	assert.NotContains(t, text, "friend")
}

func TestPrintSongs(t *testing.T) {
	songs := []playlist.Song{
		{ID: "a", Name: "Blue Monday", Artist: "New Order", Album: "Power, Corruption & Lies"},
		{ID: "b", Artist: "Unknown", Album: ""},
	}

	var out bytes.Buffer
	printSongs(&out, songs)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Artist")
	assert.Contains(t, lines[0], "Album")
	assert.Contains(t, lines[2], "Blue Monday")
	assert.Contains(t, lines[2], "Power, Corruption...")
	assert.Contains(t, lines[3], "Unknown")
	assert.Contains(t, lines[3], "b", "untitled songs fall back to their ID")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "日本...", truncate("日本語のタイトル", 7), "wide runes count as two cells")
}
