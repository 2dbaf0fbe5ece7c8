// Package correlation quantifies the statistical relationship between two
// metric series. All functions degrade to defined sentinel values when the
// statistic is undefined (length mismatch, empty input, zero variance)
// instead of returning errors.
package correlation

import (
	"math"
	"sort"
)

// DefaultFlagThreshold is the z-score above which a point is flagged
// anomalous when no explicit threshold is supplied.
const DefaultFlagThreshold = 2.0

// Pearson computes the product-moment correlation of two series.
// Mismatched lengths, empty input, or zero variance in either series
// yield 0: no correlation, not an error.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}

	mx := mean(x)
	my := mean(y)

	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}

// Spearman computes the rank correlation of two series. Ranks come from
// a stable sort with ties broken by original index, so equal values keep
// their input order and the result is deterministic. Degrades to 0 under
// the same conditions as Pearson.
func Spearman(x, y []float64) float64 {
	if len(x) == 0 || len(x) != len(y) {
		return 0
	}
	return Pearson(ranks(x), ranks(y))
}

// AnomalyFlags z-scores every point against the series mean using the
// population standard deviation and returns a same-length slice of 0/1
// flags. A non-positive threshold falls back to DefaultFlagThreshold.
// Zero variance flags nothing: a constant series has no anomalies.
func AnomalyFlags(values []float64, threshold float64) []int {
	flags := make([]int, len(values))
	if len(values) == 0 {
		return flags
	}
	if threshold <= 0 {
		threshold = DefaultFlagThreshold
	}

	m := mean(values)
	var variance float64
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	variance /= float64(len(values))
	sd := math.Sqrt(variance)
	if sd == 0 {
		return flags
	}

	for i, v := range values {
		if math.Abs(v-m)/sd >= threshold {
			flags[i] = 1
		}
	}
	return flags
}

// AnomalyRate is the fraction of flagged points, 0 for an empty slice.
func AnomalyRate(flags []int) float64 {
	if len(flags) == 0 {
		return 0
	}
	sum := 0
	for _, f := range flags {
		sum += f
	}
	return float64(sum) / float64(len(flags))
}

func ranks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	r := make([]float64, len(values))
	for rank, original := range idx {
		r[original] = float64(rank + 1)
	}
	return r
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
