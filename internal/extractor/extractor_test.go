package extractor

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"pymetrics/domain/behavioral"
	"pymetrics/domain/core"
	"pymetrics/internal/config"
)

func testConfig() config.ExtractionConfig {
	return config.ExtractionConfig{
		MinEvents:            10,
		MinTrials:            5,
		RapidDecisionMS:      1000,
		RecoveryWindowTrials: 3,
		MaxDecisionTimeMS:    5000,
		MaxRecoveryTimeMS:    60000,
	}
}

// balloonSession builds a completed balloon session with the given pump
// counts per balloon, every event fully populated. Balloons cash out unless
// their index appears in popped.
func balloonSession(pumpsPerBalloon []int, popped map[int]bool) (*behavioral.Session, []behavioral.Event) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	session := &behavioral.Session{
		ID:        "session-balloon-1",
		UserID:    "user-1",
		GameType:  behavioral.GameBalloonRisk,
		StartedAt: core.NewTimestamp(start),
		EndedAt:   core.NewTimestamp(start.Add(2 * time.Minute)),
		Completed: true,
	}

	var events []behavioral.Event
	seq := 0
	ms := start.UnixMilli()
	add := func(kind string, payload behavioral.Payload) {
		seq++
		ms += 800
		events = append(events, behavioral.Event{
			ID:          core.EventID(fmt.Sprintf("ev-%03d", seq)),
			SessionID:   session.ID,
			Sequence:    seq,
			Kind:        kind,
			Timestamp:   core.NewTimestamp(time.UnixMilli(ms)),
			TimestampMS: ms,
			Payload:     payload,
		})
	}

	for b, pumps := range pumpsPerBalloon {
		id := fmt.Sprintf("balloon-%02d", b)
		for p := 1; p <= pumps; p++ {
			add(behavioral.KindPump, behavioral.Payload{
				"balloon_id":           id,
				"pump_number":          float64(p),
				"time_since_prev_pump": 800.0 + float64(p)*10,
				"balloon_size":         float64(p) * 5,
				"current_earnings":     float64(p) * 0.05,
			})
		}
		if popped[b] {
			add(behavioral.KindPop, behavioral.Payload{
				"balloon_id":          id,
				"pumps_at_pop":        float64(pumps),
				"earnings_lost":       float64(pumps) * 0.05,
				"time_since_last_pump": 300.0,
			})
		} else {
			add(behavioral.KindCashOut, behavioral.Payload{
				"balloon_id":            id,
				"earnings_collected":    float64(pumps) * 0.05,
				"pumps_before_cash_out": float64(pumps),
				"hesitation_time":       400.0,
			})
		}
	}
	return session, events
}

// TestExtractBalloonRiskMetrics tests the headline balloon formula set on a
// clean moderate-risk session.
func TestExtractBalloonRiskMetrics(t *testing.T) {
	session, events := balloonSession([]int{2, 3, 4, 5, 6, 6, 6, 6, 6, 6, 6, 6}, nil)

	set, err := New(testConfig()).Extract(session, events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	avg, ok := set.Value("balloon_risk_risk_tolerance_avg_pumps_per_balloon")
	if !ok {
		t.Fatal("avg_pumps_per_balloon missing from metric set")
	}
	want := 62.0 / 12.0
	if math.Abs(avg-want) > 1e-9 {
		t.Errorf("avg pumps: expected %.4f, got %.4f", want, avg)
	}

	if popRate, ok := set.Value("balloon_risk_risk_tolerance_pop_rate"); !ok || popRate != 0 {
		t.Errorf("expected pop_rate 0 with no pops, got %.3f (present=%t)", popRate, ok)
	}

	// No pops means no emotional-regulation evidence at all.
	if _, ok := set.Value("balloon_risk_emotional_regulation_post_loss_shift"); ok {
		t.Error("post_loss_shift computed without any pop events")
	}

	// Fully populated payloads: every event complete, qualities at 1.
	if set.Completeness != 1.0 {
		t.Errorf("expected completeness 1.0, got %.3f", set.Completeness)
	}
	if set.CompleteEvents != len(events) {
		t.Errorf("expected %d complete events, got %d", len(events), set.CompleteEvents)
	}
	if q, _ := set.Quality("balloon_risk_risk_tolerance_avg_pumps_per_balloon"); q != 1.0 {
		t.Errorf("expected quality 1.0 for fully populated input, got %.3f", q)
	}

	for _, name := range []string{
		"balloon_risk_consistency_behavioral_consistency_score",
		"balloon_risk_learning_adaptation_rate",
		"balloon_risk_decision_speed_avg_decision_time",
		"session_persistence_duration_ms",
		"session_engagement_total_events",
	} {
		if _, ok := set.Value(name); !ok {
			t.Errorf("expected metric %s in set", name)
		}
	}
}

// TestExtractPopOutcomes tests pop-driven metrics: pop rate, post-loss
// behavior, and recovery latency.
func TestExtractPopOutcomes(t *testing.T) {
	session, events := balloonSession([]int{5, 5, 5, 5, 5, 5, 5, 5}, map[int]bool{2: true, 5: true})

	set, err := New(testConfig()).Extract(session, events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	popRate, ok := set.Value("balloon_risk_risk_tolerance_pop_rate")
	if !ok {
		t.Fatal("pop_rate missing")
	}
	if math.Abs(popRate-0.25) > 1e-9 {
		t.Errorf("expected pop rate 0.25, got %.3f", popRate)
	}

	if _, ok := set.Value("balloon_risk_emotional_regulation_post_loss_shift"); !ok {
		t.Error("post_loss_shift missing despite pops")
	}
	recovery, ok := set.Value("balloon_risk_emotional_regulation_recovery_time")
	if !ok {
		t.Fatal("recovery_time missing despite pops followed by pumps")
	}
	if recovery <= 0 {
		t.Errorf("expected positive recovery time, got %.1f", recovery)
	}
}

// TestExtractInsufficientData tests the event-count floor, both on the raw
// stream and after malformed exclusions.
func TestExtractInsufficientData(t *testing.T) {
	session, events := balloonSession([]int{2, 2}, nil) // 6 events, below floor

	_, err := New(testConfig()).Extract(session, events)
	var insufficient *core.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if insufficient.Observed != 6 || insufficient.Required != 10 {
		t.Errorf("expected observed=6 required=10, got observed=%d required=%d",
			insufficient.Observed, insufficient.Required)
	}
}

// TestExtractMalformedExclusion tests that malformed events are excluded
// with a warning rather than zero-filled, and that exclusion escalates to
// insufficient data when the remaining sample drops below the floor.
func TestExtractMalformedExclusion(t *testing.T) {
	session, events := balloonSession([]int{4, 4, 4}, nil) // 15 events

	// Strip a required field from two pump events.
	broken := 0
	for i := range events {
		if events[i].Kind == behavioral.KindPump && broken < 2 {
			payload := behavioral.Payload{}
			for k, v := range events[i].Payload {
				if k != "pump_number" {
					payload[k] = v
				}
			}
			events[i].Payload = payload
			broken++
		}
	}

	set, err := New(testConfig()).Extract(session, events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Excluded != 2 {
		t.Errorf("expected 2 excluded events, got %d", set.Excluded)
	}
	if len(set.Warnings) != 2 {
		t.Errorf("expected 2 exclusion warnings, got %d: %v", len(set.Warnings), set.Warnings)
	}
	if set.EventCount != 13 {
		t.Errorf("expected event count 13 after exclusion, got %d", set.EventCount)
	}

	// Break enough events to fall under the floor.
	for i := range events {
		if events[i].Kind == behavioral.KindPump {
			events[i].Payload = behavioral.Payload{"balloon_id": "x"}
		}
	}
	_, err = New(testConfig()).Extract(session, events)
	if !core.IsInsufficientDataError(err) {
		t.Errorf("expected insufficient data after mass exclusion, got %v", err)
	}
}

// TestExtractMissingMandatoryKind tests that a stream without the game's
// mandatory event kind cannot be scored.
func TestExtractMissingMandatoryKind(t *testing.T) {
	session, events := balloonSession([]int{3, 3, 3, 3}, nil)

	var withoutPumps []behavioral.Event
	for _, ev := range events {
		if ev.Kind != behavioral.KindPump {
			// Pad with duplicated outcome events to stay above the floor.
			for i := 0; i < 3; i++ {
				dup := ev
				withoutPumps = append(withoutPumps, dup)
			}
		}
	}
	if len(withoutPumps) < 10 {
		t.Fatalf("fixture too small: %d events", len(withoutPumps))
	}

	_, err := New(testConfig()).Extract(session, withoutPumps)
	var insufficient *core.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if len(insufficient.Missing) != 1 || insufficient.Missing[0] != behavioral.KindPump {
		t.Errorf("expected missing mandatory kind [pump], got %v", insufficient.Missing)
	}
}

// TestExtractDeterminism tests that extraction is a pure fold: repeated runs
// produce identical values and never mutate the input events.
func TestExtractDeterminism(t *testing.T) {
	session, events := balloonSession([]int{3, 4, 5, 6, 7}, map[int]bool{1: true})

	payloadSizes := make([]int, len(events))
	for i, ev := range events {
		payloadSizes[i] = len(ev.Payload)
	}

	ex := New(testConfig())
	first, err := ex.Extract(session, events)
	if err != nil {
		t.Fatalf("first extraction failed: %v", err)
	}
	second, err := ex.Extract(session, events)
	if err != nil {
		t.Fatalf("second extraction failed: %v", err)
	}

	if core.ComputeResultFingerprint(session.ID, first.Values()) !=
		core.ComputeResultFingerprint(session.ID, second.Values()) {
		t.Error("repeated extraction produced different metric values")
	}

	for i, ev := range events {
		if len(ev.Payload) != payloadSizes[i] {
			t.Errorf("event %d payload mutated during extraction", i)
		}
	}
}

// TestExtractUnknownGameType tests rejection of games without a formula set.
func TestExtractUnknownGameType(t *testing.T) {
	session, events := balloonSession([]int{5, 5, 5}, nil)
	session.GameType = "roulette"

	_, err := New(testConfig()).Extract(session, events)
	if !errors.Is(err, core.ErrUnknownGameType) {
		t.Errorf("expected ErrUnknownGameType, got %v", err)
	}
}

// TestEscalationFraction tests the running-mean escalation statistic.
func TestEscalationFraction(t *testing.T) {
	tests := []struct {
		name     string
		xs       []float64
		expected float64
	}{
		{"monotone increase", []float64{1, 2, 3, 4}, 1.0},
		{"monotone decrease", []float64{4, 3, 2, 1}, 0.0},
		{"flat", []float64{3, 3, 3}, 0.0},
		{"too short", []float64{5}, 0.0},
	}
	for _, test := range tests {
		if got := escalationFraction(test.xs); got != test.expected {
			t.Errorf("%s: expected %.2f, got %.2f", test.name, test.expected, got)
		}
	}
}

// TestSlopeGuards tests the regression wrapper's edge handling.
func TestSlopeGuards(t *testing.T) {
	if got := slope([]float64{1, 2}); got != 0 {
		t.Errorf("expected 0 slope for short input, got %.3f", got)
	}
	got := slope([]float64{1, 2, 3, 4, 5})
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected slope 1.0 for unit ramp, got %.6f", got)
	}
}
