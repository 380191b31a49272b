// ABOUTME: Fitness evaluation by summed per-feature Pearson correlation
// ABOUTME: Scores how closely a candidate's feature profile tracks each user's profile

package genetic

import (
	"math"

	"diversify/playlist"

	"gonum.org/v1/gonum/stat"
)

// Correlation sums the Pearson correlation of every feature column between two profiles.
//
// Rows are aligned by position over the first min(len(a), len(b)) rows.
// Columns without a defined correlation (zero variance, fewer than two rows)
// contribute 0, so the result lies in [-NumFeatures, NumFeatures].
func Correlation(a, b []playlist.Features) float64 {
	n := min(len(a), len(b))
	if n < 2 {
		return 0
	}

	var xs, ys [playlist.NumFeatures][]float64
	for col := range playlist.NumFeatures {
		xs[col] = make([]float64, n)
		ys[col] = make([]float64, n)
	}

	for i := range n {
		va, vb := a[i].Values(), b[i].Values()
		for col := range playlist.NumFeatures {
			xs[col][i] = va[col]
			ys[col][i] = vb[col]
		}
	}

	var total float64
	for col := range playlist.NumFeatures {
		r := stat.Correlation(xs[col], ys[col], nil)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}

		total += r
	}

	return total
}

// Fitness scores genes against user1, averaged with user2 in two-user mode.
// Higher is better.
func Fitness(sc *SearchContext, genes []string) float64 {
	profile := sc.Profile(genes)

	score := Correlation(profile, sc.user1Rows)
	if sc.twoUsers {
		score = (score + Correlation(profile, sc.user2Rows)) / 2
	}

	return score
}

// UserCorrelations returns the correlation of genes with each user, user2 is 0 in single-user mode
func UserCorrelations(sc *SearchContext, genes []string) (user1, user2 float64) {
	profile := sc.Profile(genes)

	user1 = Correlation(profile, sc.user1Rows)
	if sc.twoUsers {
		user2 = Correlation(profile, sc.user2Rows)
	}

	return user1, user2
}
