// ABOUTME: Tests for command-line progress output
// ABOUTME: Validates improvement lines, spinner suppression and elapsed formatting

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"diversify/genetic"
)

func TestProgressPrinterPrintsImprovementsOnly(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out, false)

	p.observe(genetic.Update{Generation: 0, Generations: 50, BestFitness: 1.0})
	p.observe(genetic.Update{Generation: 1, Generations: 50, BestFitness: 1.0})
	p.observe(genetic.Update{Generation: 2, Generations: 50, BestFitness: 0.5})
	p.observe(genetic.Update{Generation: 3, Generations: 50, BestFitness: 1.25})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Contains(t, lines[0], "Gen    0/50 - fitness: 1.00")
		assert.Contains(t, lines[1], "Gen    3/50 - fitness: 1.25")
	}

	assert.Equal(t, 3, p.currentGen)
}

func TestProgressPrinterPrecisionNeverShrinks(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out, false)

	p.observe(genetic.Update{Generation: 0, BestFitness: 0.123})
	p.observe(genetic.Update{Generation: 1, BestFitness: 0.124})
	p.observe(genetic.Update{Generation: 2, BestFitness: 2})

	assert.Contains(t, out.String(), "fitness: 0.1240\n")
	assert.Contains(t, out.String(), "fitness: 2.0000\n")
}

func TestProgressPrinterSpinnerOnlyOnTerminal(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out, false)
	p.tick()
	assert.Empty(t, out.String())

	p = newProgressPrinter(&out, true)
	p.tick()
	assert.Contains(t, out.String(), spinnerFrames[0])

	out.Reset()
	p.tick()
	assert.Contains(t, out.String(), spinnerFrames[1])
}

func TestProgressPrinterFinish(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out, false)
	p.finish(50, 1234567*time.Microsecond)

	assert.Equal(t, "\nCompleted 50 generations in 1.235s\n", out.String())
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "    0s"},
		{42 * time.Second, "   42s"},
		{61 * time.Second, "  1m1s"},
		{59*time.Minute + 59*time.Second, "59m59s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatElapsed(tt.d))
	}
}

func TestHasFitnessImproved(t *testing.T) {
	assert.True(t, hasFitnessImproved(1.1, 1.0, fitnessImprovementEpsilon))
	assert.False(t, hasFitnessImproved(1.0, 1.0, fitnessImprovementEpsilon))
	assert.False(t, hasFitnessImproved(1.0+1e-12, 1.0, fitnessImprovementEpsilon))
	assert.False(t, hasFitnessImproved(0.9, 1.0, fitnessImprovementEpsilon))
}
