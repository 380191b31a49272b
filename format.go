// ABOUTME: Minimal precision formatting for fitness values
// ABOUTME: Formats float64 pairs with just enough digits to show the difference

package main

import (
	"fmt"
	"math"
)

const (
	minDisplayPrecision = 2
	maxDisplayPrecision = 10
)

// FormatWithMonotonicPrecision formats curr with enough decimals to tell it
// apart from prev, never fewer than minPrecision. It returns the precision
// used so callers can feed it back in and keep successive lines aligned.
func FormatWithMonotonicPrecision(prev, curr float64, minPrecision int) (string, int) {
	precision := max(minPrecision, minDisplayPrecision)
	precision = min(max(precision, distinguishingPrecision(prev, curr)), maxDisplayPrecision)

	return fmt.Sprintf("%.*f", precision, curr), precision
}

// distinguishingPrecision returns one more decimal than the first precision at
// which prev and curr format differently, or 0 when no precision is needed
func distinguishingPrecision(prev, curr float64) int {
	if math.IsNaN(prev) || math.IsNaN(curr) || math.IsInf(prev, 0) || math.IsInf(curr, 0) || prev == curr {
		return 0
	}

	for precision := 1; precision <= maxDisplayPrecision; precision++ {
		if fmt.Sprintf("%.*f", precision, prev) != fmt.Sprintf("%.*f", precision, curr) {
			return precision + 1
		}
	}

	return maxDisplayPrecision
}
