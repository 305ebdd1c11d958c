package metrics

import (
	"sort"

	"pymetrics/domain/behavioral"
	"pymetrics/domain/core"
)

// SchemaVersion tags every computed metric so historical rows remain
// interpretable after formula changes.
const SchemaVersion = "1.0"

// Metric is one named scalar derived from a session's events. Names are
// namespaced {game_type}_{trait_dimension}_{statistic} so provenance stays
// traceable into the trait inferencer.
type Metric struct {
	Name          string         `json:"name" db:"name"`
	Value         float64        `json:"value" db:"value"`
	Quality       float64        `json:"quality" db:"quality"` // 0..1 data-quality weight
	SampleSize    int            `json:"sample_size" db:"sample_size"`
	ComputedAt    core.Timestamp `json:"computed_at" db:"computed_at"`
	SchemaVersion string         `json:"schema_version" db:"schema_version"`
}

// Set is the full metric mapping computed for one session. A recomputation
// fully replaces the prior set; metrics are never corrected in place.
type Set struct {
	SessionID  core.SessionID      `json:"session_id"`
	GameType   behavioral.GameType `json:"game_type"`
	Metrics    map[string]Metric   `json:"metrics"`
	EventCount int                 `json:"event_count"` // qualifying events after exclusions
	Excluded   int                 `json:"excluded"`    // malformed events dropped from aggregation

	// Completeness is the mean schema-completeness of included events;
	// CompleteEvents counts events carrying every declared field. Both feed
	// downstream confidence and validation.
	Completeness   float64        `json:"completeness"`
	CompleteEvents int            `json:"complete_events"`
	Warnings       []string       `json:"warnings,omitempty"`
	ComputedAt     core.Timestamp `json:"computed_at"`
}

// NewSet creates an empty metric set for a session.
func NewSet(sessionID core.SessionID, gameType behavioral.GameType) *Set {
	return &Set{
		SessionID:  sessionID,
		GameType:   gameType,
		Metrics:    make(map[string]Metric),
		ComputedAt: core.Now(),
	}
}

// Add records a metric under its namespaced name.
func (s *Set) Add(name string, value, quality float64, sampleSize int) {
	s.Metrics[name] = Metric{
		Name:          name,
		Value:         value,
		Quality:       clamp01(quality),
		SampleSize:    sampleSize,
		ComputedAt:    s.ComputedAt,
		SchemaVersion: SchemaVersion,
	}
}

// Warn attaches a non-fatal diagnostic to the set.
func (s *Set) Warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// Value looks up a metric value by name.
func (s *Set) Value(name string) (float64, bool) {
	m, ok := s.Metrics[name]
	if !ok {
		return 0, false
	}
	return m.Value, true
}

// Quality looks up a metric's data-quality weight by name.
func (s *Set) Quality(name string) (float64, bool) {
	m, ok := s.Metrics[name]
	if !ok {
		return 0, false
	}
	return m.Quality, true
}

// Names returns metric names in sorted order. Every consumer that folds over
// the set iterates this way so results stay byte-identical across runs.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.Metrics))
	for name := range s.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MeanQuality is the average data-quality weight across all metrics, the
// validation engine's quality-score input.
func (s *Set) MeanQuality() float64 {
	if len(s.Metrics) == 0 {
		return 0
	}
	var sum float64
	for _, name := range s.Names() {
		sum += s.Metrics[name].Quality
	}
	return sum / float64(len(s.Metrics))
}

// Values flattens the set for fingerprinting.
func (s *Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s.Metrics))
	for name, m := range s.Metrics {
		out[name] = m.Value
	}
	return out
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
