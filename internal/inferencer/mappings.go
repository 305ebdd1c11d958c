package inferencer

import (
	"sort"

	"pymetrics/domain/traits"
)

// Scale maps a raw metric value onto [0,1] before weighting. Invert flips
// the direction for metrics where lower raw values mean more of the trait
// (e.g. coefficient of variation feeding consistency).
type Scale struct {
	Min    float64
	Max    float64
	Invert bool
}

// Apply clamps and rescales a raw value.
func (s Scale) Apply(v float64) float64 {
	if s.Max <= s.Min {
		return 0
	}
	scaled := (v - s.Min) / (s.Max - s.Min)
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 1 {
		scaled = 1
	}
	if s.Invert {
		scaled = 1 - scaled
	}
	return scaled
}

// MetricWeight binds one namespaced metric into a trait's weighted
// combination.
type MetricWeight struct {
	Metric string
	Weight float64
	Scale  Scale
}

// NormalizerKind selects how a trait's weighted sum is bounded to [0,1].
type NormalizerKind string

const (
	NormalizeMinMax     NormalizerKind = "min_max"
	NormalizeZScore     NormalizerKind = "z_score"
	NormalizePercentile NormalizerKind = "percentile"
)

// Table is the versioned weighted-combination recipe for one trait dimension.
// Weights sum to 1.0 over the full metric list; they are renormalized over
// the present subset at inference time. Reliability coefficients are static
// research-calibrated values.
type Table struct {
	Dimension   traits.Dimension
	Reliability float64
	Normalizer  NormalizerKind

	// Reference distribution in scaled space, used by the z-score and
	// percentile normalizers.
	Mu    float64
	Sigma float64

	Weights []MetricWeight
}

// Tables is the immutable per-process weighting configuration, loaded once
// and passed by reference so concurrent sessions cannot race on it.
type Tables struct {
	Version     string
	byDimension map[traits.Dimension]Table
}

// Dimensions returns the configured dimensions in sorted order, the only
// iteration order inference uses.
func (t *Tables) Dimensions() []traits.Dimension {
	dims := make([]traits.Dimension, 0, len(t.byDimension))
	for d := range t.byDimension {
		dims = append(dims, d)
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i] < dims[j] })
	return dims
}

// Table looks up one dimension's weight table.
func (t *Tables) Table(d traits.Dimension) (Table, bool) {
	tab, ok := t.byDimension[d]
	return tab, ok
}

// DefaultTables returns the shipped weight tables. The weights and
// reliability coefficients are heuristically calibrated starting defaults;
// treat them as configuration, not ground truth.
func DefaultTables() *Tables {
	unit := Scale{Min: 0, Max: 1}
	unitInv := Scale{Min: 0, Max: 1, Invert: true}
	signed := Scale{Min: -1, Max: 1}

	tables := []Table{
		{
			Dimension:   traits.RiskTolerance,
			Reliability: 0.78,
			Normalizer:  NormalizeZScore,
			Mu:          0.5,
			Sigma:       0.2,
			Weights: []MetricWeight{
				{Metric: "balloon_risk_risk_tolerance_avg_pumps_per_balloon", Weight: 0.4, Scale: Scale{Min: 0, Max: 10}},
				{Metric: "balloon_risk_risk_tolerance_risk_escalation_rate", Weight: 0.3, Scale: unit},
				{Metric: "balloon_risk_risk_tolerance_pop_rate", Weight: 0.3, Scale: unit},
			},
		},
		{
			Dimension:   traits.Consistency,
			Reliability: 0.74,
			Normalizer:  NormalizeMinMax,
			Weights: []MetricWeight{
				{Metric: "balloon_risk_consistency_behavioral_consistency_score", Weight: 0.5, Scale: unit},
				{Metric: "balloon_risk_consistency_pump_interval_cv", Weight: 0.3, Scale: unitInv},
				{Metric: "reaction_timer_consistency_reaction_time_cv", Weight: 0.2, Scale: unitInv},
			},
		},
		{
			Dimension:   traits.Learning,
			Reliability: 0.72,
			Normalizer:  NormalizeZScore,
			Mu:          0.5,
			Sigma:       0.2,
			Weights: []MetricWeight{
				{Metric: "balloon_risk_learning_adaptation_rate", Weight: 0.35, Scale: signed},
				{Metric: "balloon_risk_learning_curve_slope", Weight: 0.25, Scale: signed},
				{Metric: "balloon_risk_learning_feedback_response", Weight: 0.15, Scale: signed},
				{Metric: "memory_cards_learning_improvement_rate", Weight: 0.15, Scale: signed},
				{Metric: "reaction_timer_learning_reaction_time_slope", Weight: 0.10, Scale: Scale{Min: -1, Max: 1, Invert: true}},
			},
		},
		{
			Dimension:   traits.DecisionSpeed,
			Reliability: 0.73,
			Normalizer:  NormalizeMinMax,
			Weights: []MetricWeight{
				{Metric: "balloon_risk_decision_speed_avg_decision_time", Weight: 0.4, Scale: Scale{Min: 0, Max: 5000, Invert: true}},
				{Metric: "balloon_risk_decision_speed_rapid_decision_rate", Weight: 0.25, Scale: unit},
				{Metric: "reaction_timer_decision_speed_mean_reaction_time", Weight: 0.25, Scale: Scale{Min: 0, Max: 1000, Invert: true}},
				{Metric: "reaction_timer_decision_speed_reaction_time_p10", Weight: 0.10, Scale: Scale{Min: 0, Max: 500, Invert: true}},
			},
		},
		{
			Dimension:   traits.EmotionalRegulation,
			Reliability: 0.75,
			Normalizer:  NormalizeMinMax,
			Weights: []MetricWeight{
				{Metric: "balloon_risk_emotional_regulation_post_loss_shift", Weight: 0.5, Scale: signed},
				{Metric: "balloon_risk_emotional_regulation_recovery_time", Weight: 0.5, Scale: Scale{Min: 0, Max: 60000, Invert: true}},
			},
		},
		{
			Dimension:   traits.Impulsivity,
			Reliability: 0.70,
			Normalizer:  NormalizeMinMax,
			Weights: []MetricWeight{
				{Metric: "balloon_risk_decision_speed_rapid_decision_rate", Weight: 0.4, Scale: unit},
				{Metric: "balloon_risk_risk_tolerance_pop_rate", Weight: 0.35, Scale: unit},
				{Metric: "reaction_timer_impulsivity_premature_rate", Weight: 0.25, Scale: unit},
			},
		},
		{
			Dimension:   traits.Persistence,
			Reliability: 0.71,
			Normalizer:  NormalizePercentile,
			Mu:          0.5,
			Sigma:       0.25,
			Weights: []MetricWeight{
				{Metric: "session_persistence_duration_ms", Weight: 0.5, Scale: Scale{Min: 0, Max: 300000}},
				{Metric: "session_persistence_completion_rate", Weight: 0.5, Scale: unit},
			},
		},
		{
			Dimension:   traits.StressManagement,
			Reliability: 0.75,
			Normalizer:  NormalizeMinMax,
			Weights: []MetricWeight{
				{Metric: "balloon_risk_emotional_regulation_recovery_time", Weight: 0.4, Scale: Scale{Min: 0, Max: 60000, Invert: true}},
				{Metric: "balloon_risk_emotional_regulation_post_loss_shift", Weight: 0.35, Scale: signed},
				{Metric: "balloon_risk_risk_tolerance_pop_rate", Weight: 0.25, Scale: unitInv},
			},
		},
	}

	byDim := make(map[traits.Dimension]Table, len(tables))
	for _, t := range tables {
		byDim[t.Dimension] = t
	}
	return &Tables{Version: traits.AssessmentVersion, byDimension: byDim}
}
