// ABOUTME: Terminal progress view model and its lifecycle
// ABOUTME: Bubble Tea model fed by the search's update channel

// Package tui shows a read-only terminal progress view of a running playlist search.
package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"diversify/genetic"
	"diversify/playlist"
)

// Layout constants for UI dimensions
const (
	progressPadding = 2  // Horizontal padding around the progress bar
	maxProgressBar  = 80 // Widest progress bar drawn
	previewSongs    = 10 // Songs of the current best playlist shown
)

// Options configures the progress view
type Options struct {
	Title   string
	Resolve func(id string) (playlist.Song, bool) // Looks up song metadata for display
	Cancel  context.CancelFunc                    // Called when the user quits early
	Output  io.Writer                             // Defaults to stdout
}

// doneMsg signals that the update channel was closed
type doneMsg struct{}

// model holds the TUI state
type model struct {
	updates <-chan genetic.Update
	resolve func(string) (playlist.Song, bool)
	cancel  context.CancelFunc
	title   string

	// Search state
	runID           string
	generation      int
	generations     int
	bestFitness     float64
	meanFitness     float64
	initialFitness  float64
	bestSongs       []playlist.Song
	lastImprovement int // Generation of the last best-fitness increase
	started         time.Time
	hasUpdate       bool

	// UI state
	progress progress.Model
	keys     keyMap
	width    int
	done     bool
	quitting bool
}

// Key bindings
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "stop search"),
	),
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	playlistHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("10"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func newModel(updates <-chan genetic.Update, opts Options) model {
	resolve := opts.Resolve
	if resolve == nil {
		resolve = func(id string) (playlist.Song, bool) {
			return playlist.Song{ID: id}, true
		}
	}

	cancel := opts.Cancel
	if cancel == nil {
		cancel = func() {}
	}

	title := opts.Title
	if title == "" {
		title = "Searching for a playlist"
	}

	return model{
		updates:  updates,
		resolve:  resolve,
		cancel:   cancel,
		title:    title,
		started:  time.Now(),
		progress: progress.New(progress.WithDefaultGradient()),
		keys:     keys,
	}
}

// Init starts listening for search updates
func (m model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

// waitForUpdate waits for search updates and returns them as messages
func waitForUpdate(updateChan <-chan genetic.Update) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updateChan
		if !ok {
			return doneMsg{}
		}

		return update
	}
}

// Run shows the progress view until the update channel is closed or the user quits.
// Quitting calls opts.Cancel; the caller still waits for the search to return.
func Run(updates <-chan genetic.Update, opts Options) error {
	progOpts := []tea.ProgramOption{}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	p := tea.NewProgram(newModel(updates, opts), progOpts...)

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress view failed: %w", err)
	}

	// Keep draining so the engine never blocks on a view that has gone away
	if m, ok := final.(model); ok && !m.done {
		go func() {
			for range updates {
			}
		}()
	}

	return nil
}
