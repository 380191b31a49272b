// ABOUTME: Progress reporting for the command-line search
// ABOUTME: Prints fitness improvements with stable precision and a TTY-only spinner line

package main

import (
	"fmt"
	"io"
	"math"
	"time"

	"diversify/genetic"
)

const fitnessImprovementEpsilon = 1e-10

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// progressPrinter turns search updates into CLI output
type progressPrinter struct {
	out        io.Writer
	isTerminal bool
	start      time.Time

	previousBest float64
	minPrecision int // Starts at 2 decimals and only grows
	currentGen   int
	spinnerIdx   int
}

func newProgressPrinter(out io.Writer, isTerminal bool) *progressPrinter {
	return &progressPrinter{
		out:          out,
		isTerminal:   isTerminal,
		start:        time.Now(),
		previousBest: math.Inf(-1),
		minPrecision: minDisplayPrecision,
	}
}

// observe records an update and prints a line when the best fitness improved
func (p *progressPrinter) observe(u genetic.Update) {
	p.currentGen = u.Generation

	if !hasFitnessImproved(u.BestFitness, p.previousBest, fitnessImprovementEpsilon) {
		return
	}

	p.clearStatus()

	var fitnessStr string
	fitnessStr, p.minPrecision = FormatWithMonotonicPrecision(p.previousBest, u.BestFitness, p.minPrecision)
	fmt.Fprintf(p.out, "%s Gen %4d/%d - fitness: %s\n",
		formatElapsed(time.Since(p.start)), u.Generation, u.Generations, fitnessStr)

	p.previousBest = u.BestFitness
}

// tick redraws the status line (TTY only, non-TTY output would fill up with spinner lines)
func (p *progressPrinter) tick() {
	if !p.isTerminal {
		return
	}

	fmt.Fprintf(p.out, "\r%s Gen %d %s     ", formatElapsed(time.Since(p.start)), p.currentGen, spinnerFrames[p.spinnerIdx])
	p.spinnerIdx = (p.spinnerIdx + 1) % len(spinnerFrames)
}

// finish clears the status line and prints the summary
func (p *progressPrinter) finish(generations int, elapsed time.Duration) {
	p.clearStatus()
	fmt.Fprintf(p.out, "\nCompleted %d generations in %v\n", generations, elapsed.Round(time.Millisecond))
}

func (p *progressPrinter) clearStatus() {
	if p.isTerminal {
		fmt.Fprint(p.out, "\r\033[K")
	}
}

// formatElapsed formats a duration right-padded to 6 chars for max "59m59s"
func formatElapsed(d time.Duration) string {
	var s string
	if d >= time.Minute {
		s = fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	} else {
		s = fmt.Sprintf("%ds", int(d.Seconds()))
	}

	return fmt.Sprintf("%6s", s)
}

// hasFitnessImproved returns true if newFitness is significantly higher (uses epsilon for float comparison)
func hasFitnessImproved(newFitness, oldFitness, epsilon float64) bool {
	return newFitness > oldFitness+epsilon
}
