package assessment

import (
	"context"

	"pymetrics/domain/behavioral"
	"pymetrics/domain/core"
	"pymetrics/domain/metrics"
	"pymetrics/domain/traits"
	"pymetrics/domain/verdict"
	"pymetrics/internal"
	"pymetrics/internal/config"
	"pymetrics/internal/extractor"
	"pymetrics/internal/inferencer"
	"pymetrics/internal/validation"
	"pymetrics/ports"
)

// Result bundles everything one trait inference run produces. The verdict is
// always populated; a session can carry a full profile and still fail the
// acceptance thresholds.
type Result struct {
	Session *behavioral.Session
	Metrics *metrics.Set
	Profile *traits.Profile
	Verdict *verdict.Verdict
}

// Service orchestrates the pipeline for one session: read events, extract
// metrics, infer traits, validate, persist. The stages are pure; all I/O
// happens at the edges through the injected collaborators.
type Service struct {
	reader     ports.SessionEventReader
	repo       ports.ProfileRepository
	extractor  *extractor.Extractor
	inferencer *inferencer.Inferencer
	validator  *validation.Engine
	logger     *internal.Logger
}

// NewService wires the pipeline stages from configuration.
func NewService(reader ports.SessionEventReader, repo ports.ProfileRepository, cfg *config.Config, logger *internal.Logger) *Service {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Service{
		reader:     reader,
		repo:       repo,
		extractor:  extractor.New(cfg.Extraction),
		inferencer: inferencer.New(inferencer.DefaultTables(), cfg.Inference),
		validator:  validation.New(cfg.Validation),
		logger:     logger,
	}
}

// InferTraits runs the full pipeline for a session and persists the computed
// artifacts. Recomputation replaces prior rows, so running it twice on the
// same event stream yields identical persisted state.
func (s *Service) InferTraits(ctx context.Context, sessionID core.SessionID) (*Result, error) {
	session, events, err := s.reader.ReadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	set, err := s.extractor.Extract(session, events)
	if err != nil {
		return nil, err
	}
	for _, w := range set.Warnings {
		s.logger.Warn("session %s: %s", sessionID, w)
	}

	profile := s.inferencer.Infer(set)
	v := s.validator.Evaluate(session, set, profile)

	if err := s.repo.ReplaceMetrics(ctx, set); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("session %s: inferred %d trait dimensions from %d metrics, meets_thresholds=%t",
		sessionID, len(profile.Scores), len(set.Metrics), v.Valid)

	return &Result{Session: session, Metrics: set, Profile: profile, Verdict: v}, nil
}

// GetProfile returns the persisted trait profile for a session.
func (s *Service) GetProfile(ctx context.Context, sessionID core.SessionID) (*traits.Profile, error) {
	return s.repo.GetProfile(ctx, sessionID)
}
