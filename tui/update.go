// ABOUTME: Event handling and state updates for the TUI
// ABOUTME: Implements the Bubble Tea Update() function and message handlers

package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"diversify/genetic"
	"diversify/playlist"
)

// Update handles messages and updates the model
//
//nolint:ireturn // Bubble Tea framework requires returning tea.Model interface
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-progressPadding*2, maxProgressBar)

		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			m.cancel()

			return m, tea.Quit
		}

		return m, nil

	case genetic.Update:
		if !m.hasUpdate {
			m.initialFitness = msg.BestFitness
			m.bestFitness = msg.BestFitness
			m.hasUpdate = true
		}

		if msg.BestFitness > m.bestFitness {
			m.lastImprovement = msg.Generation
		}

		m.runID = msg.RunID
		m.generation = msg.Generation
		m.generations = msg.Generations
		m.bestFitness = msg.BestFitness
		m.meanFitness = msg.MeanFitness
		m.bestSongs = m.songsOf(msg.Best.Genes)

		return m, tea.Batch(m.progress.SetPercent(m.percent()), waitForUpdate(m.updates))

	case doneMsg:
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		if pm, ok := progressModel.(progress.Model); ok {
			m.progress = pm
		}

		return m, cmd
	}

	return m, nil
}

// percent returns the fraction of generations completed
func (m model) percent() float64 {
	if m.generations <= 0 {
		return 1
	}

	return float64(m.generation) / float64(m.generations)
}

func (m model) songsOf(ids []string) []playlist.Song {
	songs := make([]playlist.Song, 0, len(ids))
	for _, id := range ids {
		if s, ok := m.resolve(id); ok {
			songs = append(songs, s)
		}
	}

	return songs
}
