package validation

import (
	"strings"
	"testing"
	"time"

	"pymetrics/domain/behavioral"
	"pymetrics/domain/core"
	"pymetrics/domain/metrics"
	"pymetrics/domain/traits"
	"pymetrics/domain/verdict"
	"pymetrics/internal/config"
)

func testThresholds() config.ValidationConfig {
	return config.ValidationConfig{
		MinCompleteness: 0.80,
		MinQuality:      0.70,
		MinReliability:  0.70,
		MinSampleSize:   10,
		MinDurationMS:   30000,
		MaxDurationMS:   1800000,
		ConfidenceLevel: 0.95,
	}
}

func sessionWithDuration(d time.Duration) *behavioral.Session {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &behavioral.Session{
		ID:        "session-1",
		GameType:  behavioral.GameBalloonRisk,
		StartedAt: core.NewTimestamp(start),
		EndedAt:   core.NewTimestamp(start.Add(d)),
		Completed: true,
	}
}

func setWithQuality(q float64) *metrics.Set {
	set := metrics.NewSet("session-1", behavioral.GameBalloonRisk)
	set.EventCount = 40
	set.CompleteEvents = 38
	set.Completeness = 0.95
	set.Add("balloon_risk_risk_tolerance_avg_pumps_per_balloon", 5.2, q, 12)
	set.Add("balloon_risk_risk_tolerance_pop_rate", 0.25, q, 12)
	return set
}

func profileWithReliability(r float64) *traits.Profile {
	return &traits.Profile{
		SessionID: "session-1",
		Scores: map[traits.Dimension]traits.Score{
			traits.RiskTolerance: {Dimension: traits.RiskTolerance, Score: 0.5, Confidence: 0.7, Reliability: r},
		},
	}
}

// TestEvaluatePasses tests a clean session against all five thresholds.
func TestEvaluatePasses(t *testing.T) {
	v := New(testThresholds()).Evaluate(
		sessionWithDuration(2*time.Minute), setWithQuality(0.95), profileWithReliability(0.78))

	if !v.Valid {
		t.Fatalf("expected valid verdict, diagnostics: %v", v.Diagnostics)
	}
	if len(v.Checks) != 5 {
		t.Errorf("expected 5 checks, got %d", len(v.Checks))
	}
	if len(v.Diagnostics) != 0 {
		t.Errorf("expected no diagnostics when valid, got %v", v.Diagnostics)
	}
	if v.Abandoned {
		t.Error("clean session flagged as abandoned")
	}
	if v.ConfidenceLevel != 0.95 {
		t.Errorf("expected confidence level 0.95, got %.2f", v.ConfidenceLevel)
	}
}

// TestEvaluateQualityFailure tests that a low-quality session fails the
// quality check with observed/required recorded, while remaining a verdict
// rather than an error.
func TestEvaluateQualityFailure(t *testing.T) {
	v := New(testThresholds()).Evaluate(
		sessionWithDuration(2*time.Minute), setWithQuality(0.5), profileWithReliability(0.78))

	if v.Valid {
		t.Fatal("expected invalid verdict for degraded quality")
	}
	check, ok := v.Check(verdict.CheckQualityScore)
	if !ok {
		t.Fatal("quality_score check missing")
	}
	if check.Passed {
		t.Error("quality_score check passed despite low quality")
	}
	if check.Observed != 0.5 || check.Required != 0.70 {
		t.Errorf("expected observed=0.5 required=0.70, got %.2f/%.2f", check.Observed, check.Required)
	}
	if check.Remediation == "" {
		t.Error("failing check carries no remediation")
	}

	// Other checks still pass independently.
	if c, _ := v.Check(verdict.CheckDataCompleteness); !c.Passed {
		t.Error("completeness check failed unexpectedly")
	}
}

// TestEvaluateSampleSizeFailure tests the sample-size remediation wording.
func TestEvaluateSampleSizeFailure(t *testing.T) {
	set := setWithQuality(0.95)
	set.EventCount = 6

	v := New(testThresholds()).Evaluate(
		sessionWithDuration(2*time.Minute), set, profileWithReliability(0.78))

	check, _ := v.Check(verdict.CheckSampleSize)
	if check.Passed {
		t.Fatal("sample_size check passed with 6 events")
	}
	if !strings.Contains(check.Remediation, "at least 10") {
		t.Errorf("remediation does not name the floor: %q", check.Remediation)
	}
}

// TestEvaluateDurationWindow tests both duration failures; only the long
// side marks the session abandoned.
func TestEvaluateDurationWindow(t *testing.T) {
	engine := New(testThresholds())

	short := engine.Evaluate(sessionWithDuration(10*time.Second), setWithQuality(0.95), profileWithReliability(0.78))
	if short.Valid {
		t.Error("10s session passed the duration window")
	}
	if short.Abandoned {
		t.Error("short session wrongly flagged abandoned")
	}

	long := engine.Evaluate(sessionWithDuration(40*time.Minute), setWithQuality(0.95), profileWithReliability(0.78))
	if long.Valid {
		t.Error("40min session passed the duration window")
	}
	if !long.Abandoned {
		t.Error("over-window session not flagged abandoned")
	}
}

// TestEvaluateReliabilityFailure tests the reliability threshold against a
// thin profile.
func TestEvaluateReliabilityFailure(t *testing.T) {
	v := New(testThresholds()).Evaluate(
		sessionWithDuration(2*time.Minute), setWithQuality(0.95), profileWithReliability(0.5))

	check, _ := v.Check(verdict.CheckReliabilityScore)
	if check.Passed {
		t.Error("reliability check passed at 0.5")
	}
	if len(v.FailedChecks()) != 1 {
		t.Errorf("expected exactly one failed check, got %d", len(v.FailedChecks()))
	}
}
