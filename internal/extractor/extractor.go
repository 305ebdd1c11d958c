package extractor

import (
	"errors"
	"fmt"
	"math"

	"pymetrics/domain/behavioral"
	"pymetrics/domain/core"
	"pymetrics/domain/metrics"
	"pymetrics/internal/config"
)

// Extractor folds a session's ordered event stream into the named metric
// set for its game type. It is a pure function of its inputs: no hidden
// state, identical output for identical events.
type Extractor struct {
	cfg config.ExtractionConfig
}

// New creates an extractor with the given parameters.
func New(cfg config.ExtractionConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract computes the metric mapping for one session. It fails with an
// InsufficientDataError when the event count is below the configured floor
// or mandatory event kinds are absent, and excludes malformed events with a
// warning rather than silently defaulting them to zero.
func (e *Extractor) Extract(session *behavioral.Session, events []behavioral.Event) (*metrics.Set, error) {
	if session == nil {
		return nil, core.NewNotFoundError("session", "")
	}
	if !session.GameType.IsKnown() {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownGameType, session.GameType)
	}
	if len(events) < e.cfg.MinEvents {
		return nil, core.NewInsufficientDataError(session.ID, len(events), e.cfg.MinEvents)
	}

	set := metrics.NewSet(session.ID, session.GameType)

	included := make([]behavioral.Event, 0, len(events))
	for _, ev := range events {
		if err := behavioral.Validate(session.GameType, ev); err != nil {
			var malformed *core.MalformedEventError
			if errors.As(err, &malformed) {
				set.Warn(fmt.Sprintf("excluded malformed %s event %s: missing %v", ev.Kind, ev.ID, malformed.Fields))
				continue
			}
			return nil, err
		}
		included = append(included, ev)
	}
	set.Excluded = len(events) - len(included)

	// Exclusion must not silently shrink the sample below the floor.
	if len(included) < e.cfg.MinEvents {
		return nil, core.NewInsufficientDataError(session.ID, len(included), e.cfg.MinEvents)
	}
	if missing := behavioral.MissingMandatoryKinds(session.GameType, included); len(missing) > 0 {
		return nil, core.NewMissingEventKindsError(session.ID, missing)
	}

	set.EventCount = len(included)
	var completenessSum float64
	for _, ev := range included {
		c := behavioral.Completeness(session.GameType, ev)
		completenessSum += c
		if c >= 1 {
			set.CompleteEvents++
		}
	}
	set.Completeness = completenessSum / float64(len(included))

	switch session.GameType {
	case behavioral.GameBalloonRisk:
		e.extractBalloonRisk(set, included)
	case behavioral.GameMemoryCards:
		e.extractMemoryCards(set, included)
	case behavioral.GameReactionTimer:
		e.extractReactionTimer(set, included)
	}
	e.extractSessionMetrics(set, session, included)

	return set, nil
}

// extractSessionMetrics computes game-independent engagement metrics.
func (e *Extractor) extractSessionMetrics(set *metrics.Set, session *behavioral.Session, events []behavioral.Event) {
	n := len(events)
	durationMS := session.DurationMS()

	set.Add("session_engagement_total_events", float64(n), 1.0, n)
	set.Add("session_persistence_duration_ms", float64(durationMS), 1.0, n)

	completion := 0.0
	if session.Completed {
		completion = 1.0
	}
	set.Add("session_persistence_completion_rate", completion, 1.0, n)

	if durationMS > 0 {
		perMinute := float64(n) / (float64(durationMS) / 60000.0)
		set.Add("session_engagement_events_per_minute", perMinute, 1.0, n)
	}
}

// inputStats describes the event population a metric folds over: how many
// candidates existed, how many carried the fields the metric reads, and the
// mean schema-completeness of the candidates.
type inputStats struct {
	candidates   int
	usable       int
	completeness float64
}

// quality converts input coverage, payload completeness, and sample adequacy
// into the metric's data-quality weight in [0,1]. Weight diminishes below the
// minimum trial count instead of cutting off.
func (e *Extractor) quality(st inputStats) float64 {
	if st.candidates == 0 || st.usable == 0 {
		return 0
	}
	coverage := float64(st.usable) / float64(st.candidates)
	sample := math.Min(1, float64(st.usable)/float64(e.cfg.MinTrials))
	return clamp(coverage*st.completeness*sample, 0, 1)
}

// meanCompleteness averages schema completeness over a kind-filtered slice.
func meanCompleteness(gameType behavioral.GameType, events []behavioral.Event) float64 {
	if len(events) == 0 {
		return 0
	}
	var sum float64
	for _, ev := range events {
		sum += behavioral.Completeness(gameType, ev)
	}
	return sum / float64(len(events))
}

// byKind filters events preserving order.
func byKind(events []behavioral.Event, kind string) []behavioral.Event {
	var out []behavioral.Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// floatsWith collects a payload field across events, counting how many
// events carried it.
func floatsWith(events []behavioral.Event, field string) ([]float64, int) {
	var values []float64
	for _, ev := range events {
		if v, ok := ev.Payload.Float(field); ok {
			values = append(values, v)
		}
	}
	return values, len(values)
}
