package extractor

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Thin wrappers over the stats libraries. Empty-input guards live here so
// the formula code stays free of error plumbing; callers never feed metrics
// computed from empty slices into the set.

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m, err := stats.Mean(xs)
	if err != nil {
		return 0
	}
	return m
}

func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviation(xs)
	if err != nil {
		return 0
	}
	return sd
}

func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	v, err := stats.Percentile(xs, p)
	if err != nil {
		return 0
	}
	return v
}

// coefficientOfVariation is the behavioral-consistency proxy: lower CV means
// steadier behavior.
func coefficientOfVariation(xs []float64) float64 {
	m := mean(xs)
	if m == 0 {
		return 0
	}
	return stdDev(xs) / m
}

// slope fits quantity against trial index by least squares and returns the
// per-trial trend.
func slope(ys []float64) float64 {
	if len(ys) < 3 {
		return 0
	}
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0
	}
	return beta
}

// escalationFraction is the fraction of trials whose quantity exceeds the
// running mean of all prior trials, a risk-escalation proxy in [0,1].
func escalationFraction(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	exceeded := 0
	sum := xs[0]
	for i := 1; i < len(xs); i++ {
		runningMean := sum / float64(i)
		if xs[i] > runningMean {
			exceeded++
		}
		sum += xs[i]
	}
	return float64(exceeded) / float64(len(xs)-1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
