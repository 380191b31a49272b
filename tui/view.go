// ABOUTME: Rendering and display functions for the TUI
// ABOUTME: Implements the Bubble Tea View() function and all render helpers

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// View renders the TUI
func (m model) View() string {
	if m.quitting {
		return "Stopping search...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	if m.runID != "" {
		b.WriteString(helpStyle.Render("  run " + m.runID))
	}
	b.WriteString("\n\n")
	b.WriteString(strings.Repeat(" ", progressPadding) + m.progress.View() + "\n\n")
	b.WriteString(m.renderStatus() + "\n\n")
	b.WriteString(m.renderPlaylist())
	b.WriteString("\n" + m.renderHelp() + "\n")

	return b.String()
}

// renderStatus renders the status bar
func (m model) renderStatus() string {
	if !m.hasUpdate {
		return statusStyle.Render("Generating initial population...")
	}

	elapsed := time.Since(m.started).Round(time.Second)

	status := fmt.Sprintf("Gen %d/%d | Best %.4f | Mean %.4f | Initial %.4f | Last gain gen %d | %s",
		m.generation, m.generations,
		m.bestFitness, m.meanFitness, m.initialFitness,
		m.lastImprovement, elapsed)

	if m.width > 0 {
		return statusStyle.Width(m.width).Render(status)
	}

	return statusStyle.Render(status)
}

// renderPlaylist renders the head of the current best playlist
func (m model) renderPlaylist() string {
	if len(m.bestSongs) == 0 {
		return ""
	}

	var b strings.Builder

	header := fmt.Sprintf("%-3s %-25s %-30s", "#", "Artist", "Title")
	b.WriteString(playlistHeaderStyle.Render(header) + "\n")

	for i, s := range m.bestSongs {
		if i == previewSongs {
			b.WriteString(fmt.Sprintf("    ... %d more\n", len(m.bestSongs)-previewSongs))
			break
		}

		name := s.Name
		if name == "" {
			name = s.ID
		}

		b.WriteString(fmt.Sprintf("%-3d %s %s\n", i+1, clip(s.Artist, 25), clip(name, 30)))
	}

	return b.String()
}

// renderHelp renders the help text
func (m model) renderHelp() string {
	return helpStyle.Render(" q/esc: stop search")
}

// clip truncates s to a display width and pads it to that width
func clip(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
