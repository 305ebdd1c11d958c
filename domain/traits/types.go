package traits

import (
	"sort"

	"pymetrics/domain/core"
)

// AssessmentVersion tags trait scores with the weight-table revision that
// produced them.
const AssessmentVersion = "1.0"

// Dimension is one bi-directional psychometric construct.
type Dimension string

const (
	RiskTolerance       Dimension = "risk_tolerance"
	Consistency         Dimension = "consistency"
	Learning            Dimension = "learning"
	DecisionSpeed       Dimension = "decision_speed"
	EmotionalRegulation Dimension = "emotional_regulation"
	Impulsivity         Dimension = "impulsivity"
	Persistence         Dimension = "persistence"
	StressManagement    Dimension = "stress_management"
)

func (d Dimension) String() string { return string(d) }

// Contribution records one metric's part in a trait score, for provenance.
type Contribution struct {
	Metric string  `json:"metric"`
	Weight float64 `json:"weight"` // renormalized weight actually applied
	Value  float64 `json:"value"`  // scaled metric value in [0,1]
}

// Score is a bounded, confidence-annotated trait estimate. Score and
// Confidence are always jointly present; a dimension with no contributing
// metrics is omitted from the profile instead.
type Score struct {
	Dimension       Dimension      `json:"dimension"`
	Score           float64        `json:"score"`      // [0,1]
	Confidence      float64        `json:"confidence"` // [0,1]
	Reliability     float64        `json:"reliability"`
	Renormalization float64        `json:"renormalization"` // weight mass actually present, [0,1]
	Contributing    []Contribution `json:"contributing_metrics"`
	Interpretation  string         `json:"interpretation"`
}

// Profile is the full trait estimate for one session.
type Profile struct {
	SessionID         core.SessionID         `json:"session_id"`
	Scores            map[Dimension]Score    `json:"scores"`
	ComputedAt        core.Timestamp         `json:"computed_at"`
	AssessmentVersion string                 `json:"assessment_version"`
	SchemaVersion     string                 `json:"schema_version"`
	Fingerprint       core.ResultFingerprint `json:"fingerprint"`
}

// Dimensions returns the present dimensions in sorted order.
func (p *Profile) Dimensions() []Dimension {
	dims := make([]Dimension, 0, len(p.Scores))
	for d := range p.Scores {
		dims = append(dims, d)
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i] < dims[j] })
	return dims
}

// MeanReliability averages the reliability coefficients of the dimensions
// actually produced, the validation engine's reliability-score input.
func (p *Profile) MeanReliability() float64 {
	if len(p.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, d := range p.Dimensions() {
		sum += p.Scores[d].Reliability
	}
	return sum / float64(len(p.Scores))
}

// Values flattens scores and confidences for fingerprinting.
func (p *Profile) Values() map[string]float64 {
	out := make(map[string]float64, len(p.Scores)*2)
	for d, s := range p.Scores {
		out[string(d)+"_score"] = s.Score
		out[string(d)+"_confidence"] = s.Confidence
	}
	return out
}
