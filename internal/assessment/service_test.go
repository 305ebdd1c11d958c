package assessment

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"pymetrics/domain/behavioral"
	"pymetrics/domain/core"
	"pymetrics/domain/metrics"
	"pymetrics/domain/traits"
	"pymetrics/internal/config"
)

func testAppConfig() *config.Config {
	return &config.Config{
		Extraction: config.ExtractionConfig{
			MinEvents:            10,
			MinTrials:            5,
			RapidDecisionMS:      1000,
			RecoveryWindowTrials: 3,
			MaxDecisionTimeMS:    5000,
			MaxRecoveryTimeMS:    60000,
		},
		Inference: config.InferenceConfig{MinSampleEvents: 10},
		Validation: config.ValidationConfig{
			MinCompleteness: 0.80,
			MinQuality:      0.70,
			MinReliability:  0.70,
			MinSampleSize:   10,
			MinDurationMS:   30000,
			MaxDurationMS:   1800000,
			ConfidenceLevel: 0.95,
		},
		Worker: config.WorkerConfig{Concurrency: 4, BatchLimit: 100},
	}
}

type storedSession struct {
	session *behavioral.Session
	events  []behavioral.Event
}

// fakeReader serves sessions from memory with the reader's error contract.
type fakeReader struct {
	sessions map[core.SessionID]storedSession
}

func (r *fakeReader) ReadSession(_ context.Context, id core.SessionID) (*behavioral.Session, []behavioral.Event, error) {
	st, ok := r.sessions[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	if !st.session.Completed {
		return nil, nil, core.NewIncompleteSessionError(id)
	}
	return st.session, st.events, nil
}

func (r *fakeReader) ListCompletedSessions(_ context.Context, limit int) ([]core.SessionID, error) {
	var ids []core.SessionID
	for id, st := range r.sessions {
		if st.session.Completed {
			ids = append(ids, id)
		}
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// fakeRepo records replacements in memory.
type fakeRepo struct {
	mu       sync.Mutex
	metrics  map[core.SessionID]*metrics.Set
	profiles map[core.SessionID]*traits.Profile
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		metrics:  make(map[core.SessionID]*metrics.Set),
		profiles: make(map[core.SessionID]*traits.Profile),
	}
}

func (r *fakeRepo) ReplaceMetrics(_ context.Context, set *metrics.Set) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics[set.SessionID] = set
	return nil
}

func (r *fakeRepo) ReplaceProfile(_ context.Context, profile *traits.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.SessionID] = profile
	return nil
}

func (r *fakeRepo) GetProfile(_ context.Context, id core.SessionID) (*traits.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", core.ErrProfileNotFound, id)
	}
	return p, nil
}

// balloonFixture builds a clean completed balloon session with one event per
// pump, cashing every balloon out.
func balloonFixture(id core.SessionID, balloons int) storedSession {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	session := &behavioral.Session{
		ID:        id,
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
		ms += 900
		events = append(events, behavioral.Event{
			ID:          core.EventID(fmt.Sprintf("%s-ev-%03d", id, seq)),
			SessionID:   id,
			Sequence:    seq,
			Kind:        kind,
			Timestamp:   core.NewTimestamp(time.UnixMilli(ms)),
			TimestampMS: ms,
			Payload:     payload,
		})
	}

	for b := 0; b < balloons; b++ {
		balloonID := fmt.Sprintf("balloon-%02d", b)
		pumps := 3 + b%4
		for p := 1; p <= pumps; p++ {
			add(behavioral.KindPump, behavioral.Payload{
				"balloon_id":           balloonID,
				"pump_number":          float64(p),
				"time_since_prev_pump": 850.0 + float64(p)*20,
				"balloon_size":         float64(p) * 4,
				"current_earnings":     float64(p) * 0.05,
			})
		}
		add(behavioral.KindCashOut, behavioral.Payload{
			"balloon_id":            balloonID,
			"earnings_collected":    float64(pumps) * 0.05,
			"pumps_before_cash_out": float64(pumps),
			"hesitation_time":       350.0,
		})
	}
	return storedSession{session: session, events: events}
}

func newTestService(reader *fakeReader, repo *fakeRepo) *Service {
	return NewService(reader, repo, testAppConfig(), nil)
}

// TestInferTraitsPersistsArtifacts tests the full pipeline against a clean
// session: metrics and profile land in the repository and the verdict holds.
func TestInferTraitsPersistsArtifacts(t *testing.T) {
	reader := &fakeReader{sessions: map[core.SessionID]storedSession{
		"session-a": balloonFixture("session-a", 10),
	}}
	repo := newFakeRepo()
	service := newTestService(reader, repo)

	result, err := service.InferTraits(context.Background(), "session-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.metrics["session-a"] == nil {
		t.Error("metric set was not persisted")
	}
	if repo.profiles["session-a"] == nil {
		t.Error("trait profile was not persisted")
	}
	if !result.Verdict.Valid {
		t.Errorf("expected valid verdict, diagnostics: %v", result.Verdict.Diagnostics)
	}
	if result.Profile.Fingerprint == "" {
		t.Error("profile fingerprint missing")
	}
	if _, ok := result.Profile.Scores[traits.RiskTolerance]; !ok {
		t.Error("risk_tolerance absent from a full balloon session")
	}
}

// TestInferTraitsIdempotent tests that recomputation over unchanged events
// replaces the artifacts with identical values.
func TestInferTraitsIdempotent(t *testing.T) {
	reader := &fakeReader{sessions: map[core.SessionID]storedSession{
		"session-a": balloonFixture("session-a", 10),
	}}
	repo := newFakeRepo()
	service := newTestService(reader, repo)

	first, err := service.InferTraits(context.Background(), "session-a")
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := service.InferTraits(context.Background(), "session-a")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if first.Profile.Fingerprint != second.Profile.Fingerprint {
		t.Errorf("recomputation changed the fingerprint: %s vs %s",
			first.Profile.Fingerprint, second.Profile.Fingerprint)
	}
	if repo.profiles["session-a"].Fingerprint != second.Profile.Fingerprint {
		t.Error("persisted profile does not match the last computation")
	}
}

// TestInferTraitsSessionNotFound tests that an unknown session surfaces the
// not-found error without touching the repository.
func TestInferTraitsSessionNotFound(t *testing.T) {
	reader := &fakeReader{sessions: map[core.SessionID]storedSession{}}
	repo := newFakeRepo()
	service := newTestService(reader, repo)

	_, err := service.InferTraits(context.Background(), "ghost")
	if !core.IsNotFoundError(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if len(repo.metrics) != 0 || len(repo.profiles) != 0 {
		t.Error("repository written despite missing session")
	}
}

// TestInferTraitsIncompleteSession tests the incomplete-session passthrough.
func TestInferTraitsIncompleteSession(t *testing.T) {
	fixture := balloonFixture("session-a", 10)
	fixture.session.Completed = false
	reader := &fakeReader{sessions: map[core.SessionID]storedSession{"session-a": fixture}}
	service := newTestService(reader, newFakeRepo())

	_, err := service.InferTraits(context.Background(), "session-a")
	if !core.IsIncompleteSessionError(err) {
		t.Fatalf("expected incomplete-session error, got %v", err)
	}
}

// TestInferTraitsDegradedSession tests a session whose events mostly miss
// their expected timing fields: inference still runs, every confidence
// collapses, and the verdict fails on quality instead of erroring.
func TestInferTraitsDegradedSession(t *testing.T) {
	fixture := balloonFixture("session-degraded", 10)
	kept := 0
	for i := range fixture.events {
		ev := &fixture.events[i]
		if kept < 4 {
			kept++
			continue
		}
		stripped := behavioral.Payload{}
		schema := behavioral.Schemas[behavioral.GameBalloonRisk].Events[ev.Kind]
		for _, field := range schema.Required {
			stripped[field] = ev.Payload[field]
		}
		ev.Payload = stripped
	}

	service := newTestService(&fakeReader{sessions: map[core.SessionID]storedSession{
		"session-degraded": fixture,
	}}, newFakeRepo())

	result, err := service.InferTraits(context.Background(), "session-degraded")
	if err != nil {
		t.Fatalf("degraded session should still infer, got %v", err)
	}

	if len(result.Profile.Scores) == 0 {
		t.Fatal("expected trait scores despite degradation")
	}
	for dim, s := range result.Profile.Scores {
		if s.Confidence >= 0.3 {
			t.Errorf("%s: expected confidence below 0.3, got %.3f", dim, s.Confidence)
		}
	}

	if result.Verdict.Valid {
		t.Error("degraded session passed validation")
	}
	check, ok := result.Verdict.Check("quality_score")
	if !ok || check.Passed {
		t.Error("expected quality_score check to fail")
	}
}

// TestBatchWorkerSkipsThinSessions tests that batch recomputation counts
// below-floor sessions as skipped and keeps sweeping.
func TestBatchWorkerSkipsThinSessions(t *testing.T) {
	reader := &fakeReader{sessions: map[core.SessionID]storedSession{
		"session-a": balloonFixture("session-a", 10),
		"session-b": balloonFixture("session-b", 12),
		"session-c": balloonFixture("session-c", 1), // below the event floor
	}}
	repo := newFakeRepo()
	service := newTestService(reader, repo)
	worker := NewBatchWorker(service, testAppConfig().Worker, nil)

	summary, err := worker.Run(context.Background())
	if err != nil {
		t.Fatalf("batch run failed: %v", err)
	}

	if summary.Total != 3 {
		t.Errorf("expected 3 sessions swept, got %d", summary.Total)
	}
	if summary.Recomputed != 2 {
		t.Errorf("expected 2 recomputed, got %d", summary.Recomputed)
	}
	if summary.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", summary.Skipped)
	}
	if summary.Failed != 0 {
		t.Errorf("expected 0 failed, got %d (%v)", summary.Failed, summary.FailedIDs)
	}
	if repo.profiles["session-c"] != nil {
		t.Error("thin session still produced a persisted profile")
	}
}
