package inferencer

import (
	"math"

	"pymetrics/domain/core"
	"pymetrics/domain/metrics"
	"pymetrics/domain/traits"
	"pymetrics/internal/config"
)

// Inferencer maps a session's metric set into bounded trait scores using
// the versioned weight tables. Pure function of its inputs; the tables are
// immutable shared configuration.
type Inferencer struct {
	tables *Tables
	cfg    config.InferenceConfig
}

// New creates an inferencer bound to a weight-table revision.
func New(tables *Tables, cfg config.InferenceConfig) *Inferencer {
	return &Inferencer{tables: tables, cfg: cfg}
}

// Infer produces a trait profile from the metric set. Dimensions with zero
// contributing metrics are omitted, never defaulted: a missing trait must be
// distinguishable from a neutral one. Low-quality presence still scores,
// with confidence driven toward zero instead.
func (inf *Inferencer) Infer(set *metrics.Set) *traits.Profile {
	profile := &traits.Profile{
		SessionID:         set.SessionID,
		Scores:            make(map[traits.Dimension]traits.Score),
		ComputedAt:        core.Now(),
		AssessmentVersion: inf.tables.Version,
		SchemaVersion:     metrics.SchemaVersion,
	}

	sampleAdequacy := inf.sampleAdequacy(set)

	for _, dim := range inf.tables.Dimensions() {
		table, _ := inf.tables.Table(dim)
		score, ok := inf.inferDimension(table, set, sampleAdequacy)
		if !ok {
			continue
		}
		profile.Scores[dim] = score
	}

	profile.Fingerprint = core.ComputeResultFingerprint(set.SessionID, profile.Values())
	return profile
}

// inferDimension computes one trait. Returns ok=false only when no
// contributing metric is present at all.
func (inf *Inferencer) inferDimension(table Table, set *metrics.Set, sampleAdequacy float64) (traits.Score, bool) {
	var (
		weightedSum   float64
		presentWeight float64
		qualitySum    float64
		contributing  []traits.Contribution
	)

	for _, mw := range table.Weights {
		value, ok := set.Value(mw.Metric)
		if !ok {
			continue
		}
		scaled := mw.Scale.Apply(value)
		weightedSum += mw.Weight * scaled
		presentWeight += mw.Weight

		quality, _ := set.Quality(mw.Metric)
		qualitySum += quality

		contributing = append(contributing, traits.Contribution{
			Metric: mw.Metric,
			Weight: mw.Weight,
			Value:  scaled,
		})
	}

	if len(contributing) == 0 || presentWeight <= 0 {
		return traits.Score{}, false
	}

	// Renormalize over the present subset; the missing weight mass reduces
	// confidence proportionally.
	raw := weightedSum / presentWeight
	meanQuality := qualitySum / float64(len(contributing))

	score := normalize(table, raw)
	confidence := presentWeight * table.Reliability * sampleAdequacy * meanQuality

	return traits.Score{
		Dimension:       table.Dimension,
		Score:           clamp01(score),
		Confidence:      clamp01(confidence),
		Reliability:     table.Reliability,
		Renormalization: presentWeight,
		Contributing:    contributing,
		Interpretation:  interpret(table.Dimension, score),
	}, true
}

// sampleAdequacy ramps linearly from 0 at no complete events to 1 at the
// configured minimum, saturating above it.
func (inf *Inferencer) sampleAdequacy(set *metrics.Set) float64 {
	if inf.cfg.MinSampleEvents <= 0 {
		return 1
	}
	return math.Min(1, float64(set.CompleteEvents)/float64(inf.cfg.MinSampleEvents))
}
