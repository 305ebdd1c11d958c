package inferencer

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"pymetrics/domain/traits"
)

// normalize bounds a trait's renormalized weighted sum to [0,1] using the
// table's selected normalizer.
func normalize(table Table, raw float64) float64 {
	switch table.Normalizer {
	case NormalizeZScore:
		// Squash via logistic so extreme values bound without discontinuity.
		if table.Sigma <= 0 {
			return clamp01(raw)
		}
		z := (raw - table.Mu) / table.Sigma
		return sigmoid(z)
	case NormalizePercentile:
		// Map against the reference distribution.
		if table.Sigma <= 0 {
			return clamp01(raw)
		}
		dist := distuv.Normal{Mu: table.Mu, Sigma: table.Sigma}
		return dist.CDF(raw)
	default:
		return clamp01(raw)
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// interpret renders the trait score into the reporting band text.
func interpret(d traits.Dimension, score float64) string {
	band := 0
	switch {
	case score < 0.3:
		band = 0
	case score < 0.7:
		band = 1
	default:
		band = 2
	}

	texts, ok := interpretations[d]
	if !ok {
		return ""
	}
	return texts[band]
}

var interpretations = map[traits.Dimension][3]string{
	traits.RiskTolerance:       {"Conservative risk-taker", "Moderate risk-taker", "High risk-taker"},
	traits.Consistency:         {"Variable behavior patterns", "Moderately consistent", "Highly consistent behavior"},
	traits.Learning:            {"Slow to adapt", "Moderate learning ability", "Quick learner"},
	traits.DecisionSpeed:       {"Deliberate decision-maker", "Moderate decision speed", "Rapid decision-maker"},
	traits.EmotionalRegulation: {"Emotionally reactive", "Moderate emotional control", "Emotionally stable"},
	traits.Impulsivity:         {"Reflective and cautious", "Moderate impulsivity", "Highly impulsive"},
	traits.Persistence:         {"Low persistence", "Moderate persistence", "Highly persistent"},
	traits.StressManagement:    {"Poor stress management", "Moderate stress management", "Excellent stress management"},
}
