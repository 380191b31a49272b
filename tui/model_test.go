// ABOUTME: Unit tests for TUI model behavior
// ABOUTME: Tests update handling, quitting and rendering without a terminal

package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diversify/genetic"
	"diversify/playlist"
)

// createTestModel creates a model resolving IDs against a small catalogue
func createTestModel(updates chan genetic.Update, cancel func()) model {
	catalogue := map[string]playlist.Song{
		"a": {ID: "a", Name: "Alpha", Artist: "First Artist"},
		"b": {ID: "b", Name: "Beta", Artist: "Second Artist"},
	}

	return newModel(updates, Options{
		Title: "Test search",
		Resolve: func(id string) (playlist.Song, bool) {
			s, ok := catalogue[id]
			return s, ok
		},
		Cancel: cancel,
	})
}

func apply(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok, "Update returned %T", next)

	return nm, cmd
}

func TestModelTracksUpdates(t *testing.T) {
	m := createTestModel(make(chan genetic.Update), nil)

	m, cmd := apply(t, m, genetic.Update{
		RunID: "run-1", Generation: 0, Generations: 50,
		BestFitness: 1.5, MeanFitness: 0.5,
		Best: genetic.Individual{Genes: []string{"a", "missing", "b"}},
	})
	assert.NotNil(t, cmd, "keeps listening for updates")

	assert.Equal(t, 1.5, m.initialFitness)
	assert.Len(t, m.bestSongs, 2, "unknown IDs are skipped")

	m, _ = apply(t, m, genetic.Update{RunID: "run-1", Generation: 10, Generations: 50, BestFitness: 2.5, MeanFitness: 1})
	assert.Equal(t, 10, m.lastImprovement)
	assert.InDelta(t, 0.2, m.percent(), 1e-12)

	m, _ = apply(t, m, genetic.Update{RunID: "run-1", Generation: 11, Generations: 50, BestFitness: 2.5, MeanFitness: 1.2})
	assert.Equal(t, 10, m.lastImprovement, "equal fitness is not an improvement")
	assert.Equal(t, 1.5, m.initialFitness)
}

func TestModelQuitCancelsSearch(t *testing.T) {
	cancelled := false
	m := createTestModel(make(chan genetic.Update), func() { cancelled = true })

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	assert.True(t, cancelled)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelIgnoresOtherKeys(t *testing.T) {
	cancelled := false
	m := createTestModel(make(chan genetic.Update), func() { cancelled = true })

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	assert.False(t, cancelled)
	assert.False(t, m.quitting)
	assert.Nil(t, cmd)
}

func TestWaitForUpdateReportsClosedChannel(t *testing.T) {
	ch := make(chan genetic.Update, 1)
	ch <- genetic.Update{Generation: 3}

	msg := waitForUpdate(ch)()
	u, ok := msg.(genetic.Update)
	require.True(t, ok)
	assert.Equal(t, 3, u.Generation)

	close(ch)
	assert.Equal(t, doneMsg{}, waitForUpdate(ch)())

	m := createTestModel(ch, nil)
	m, cmd := apply(t, m, doneMsg{})
	assert.True(t, m.done)
	assert.NotNil(t, cmd)
}

func TestViewRendersProgress(t *testing.T) {
	m := createTestModel(make(chan genetic.Update), nil)
	assert.Contains(t, m.View(), "Generating initial population")

	m, _ = apply(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = apply(t, m, genetic.Update{
		Generation: 5, Generations: 50, BestFitness: 3.25, MeanFitness: 1,
		Best: genetic.Individual{Genes: []string{"a", "b"}},
	})

	view := m.View()
	assert.Contains(t, view, "Test search")
	assert.Contains(t, view, "Gen 5/50")
	assert.Contains(t, view, "3.2500")
	assert.Contains(t, view, "Alpha")
	assert.True(t, strings.Contains(view, "Second Artist"))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short     ", clip("short", 10))
	assert.Equal(t, "abcd…", clip("abcdefgh", 5))
}
