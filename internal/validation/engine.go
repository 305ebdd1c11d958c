package validation

import (
	"fmt"

	"pymetrics/domain/behavioral"
	"pymetrics/domain/core"
	"pymetrics/domain/metrics"
	"pymetrics/domain/traits"
	"pymetrics/domain/verdict"
	"pymetrics/internal/config"
)

// ValidationMethod names the acceptance procedure recorded on every verdict.
const ValidationMethod = "threshold_gate_v1"

// Engine applies the scientific-acceptance thresholds to a session's
// computed artifacts. Pure decision function: it never mutates inputs,
// never retries, and never treats a failed threshold as an error.
type Engine struct {
	cfg config.ValidationConfig
}

// New creates a validation engine with the given thresholds.
func New(cfg config.ValidationConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate returns the verdict for one session. Every failing check yields
// its own diagnostic with the observed value, the required threshold, and a
// remediation the caller can surface verbatim.
func (e *Engine) Evaluate(session *behavioral.Session, set *metrics.Set, profile *traits.Profile) *verdict.Verdict {
	v := &verdict.Verdict{
		SessionID:        session.ID,
		ConfidenceLevel:  e.cfg.ConfidenceLevel,
		ValidationMethod: ValidationMethod,
		EvaluatedAt:      core.Now(),
	}

	e.check(v, verdict.CheckDataCompleteness, set.Completeness, e.cfg.MinCompleteness,
		"ensure events carry every declared payload field for their kind")

	e.check(v, verdict.CheckQualityScore, set.MeanQuality(), e.cfg.MinQuality,
		"collect richer event payloads; too many metrics were computed from incomplete inputs")

	e.check(v, verdict.CheckReliabilityScore, profile.MeanReliability(), e.cfg.MinReliability,
		"too few reliable trait dimensions could be produced from this session")

	e.check(v, verdict.CheckSampleSize, float64(set.EventCount), float64(e.cfg.MinSampleSize),
		fmt.Sprintf("collect at least %d events", e.cfg.MinSampleSize))

	e.checkDuration(v, session)

	v.Valid = len(v.FailedChecks()) == 0
	return v
}

// check records one observed >= required threshold comparison.
func (e *Engine) check(v *verdict.Verdict, name verdict.CheckName, observed, required float64, remediation string) {
	passed := observed >= required
	result := verdict.CheckResult{
		Name:     name,
		Passed:   passed,
		Observed: observed,
		Required: required,
	}
	if !passed {
		result.Remediation = remediation
		v.Diagnostics = append(v.Diagnostics,
			fmt.Sprintf("%s below threshold: observed %.3f, required %.3f; %s", name, observed, required, remediation))
	}
	v.Checks = append(v.Checks, result)
}

// checkDuration validates the session duration window. Too short means an
// unreliable sample; too long means a likely abandoned or interrupted
// session, flagged separately on the verdict.
func (e *Engine) checkDuration(v *verdict.Verdict, session *behavioral.Session) {
	durationMS := float64(session.DurationMS())
	minMS := float64(e.cfg.MinDurationMS)
	maxMS := float64(e.cfg.MaxDurationMS)

	result := verdict.CheckResult{
		Name:     verdict.CheckSessionDuration,
		Observed: durationMS,
		Required: minMS,
	}

	switch {
	case durationMS < minMS:
		result.Remediation = fmt.Sprintf("session must run at least %.0f seconds; observed %.1f", minMS/1000, durationMS/1000)
		v.Diagnostics = append(v.Diagnostics,
			fmt.Sprintf("session_duration too short: observed %.0fms, required at least %.0fms; %s", durationMS, minMS, result.Remediation))
	case durationMS > maxMS:
		v.Abandoned = true
		result.Remediation = fmt.Sprintf("session ran %.0f minutes, above the %.0f minute window; likely abandoned or interrupted", durationMS/60000, maxMS/60000)
		v.Diagnostics = append(v.Diagnostics,
			fmt.Sprintf("session_duration too long: observed %.0fms, maximum %.0fms; %s", durationMS, maxMS, result.Remediation))
	default:
		result.Passed = true
	}

	v.Checks = append(v.Checks, result)
}
