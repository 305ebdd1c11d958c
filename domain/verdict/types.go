package verdict

import (
	"pymetrics/domain/core"
)

// CheckName identifies one scientific-acceptance threshold.
type CheckName string

const (
	CheckDataCompleteness CheckName = "data_completeness"
	CheckQualityScore     CheckName = "quality_score"
	CheckReliabilityScore CheckName = "reliability_score"
	CheckSampleSize       CheckName = "sample_size"
	CheckSessionDuration  CheckName = "session_duration"
)

// CheckResult is one threshold comparison. Each failing check stands alone:
// observed value, required threshold, and a remediation the caller can relay
// verbatim to a user.
type CheckResult struct {
	Name        CheckName `json:"name"`
	Passed      bool      `json:"passed"`
	Observed    float64   `json:"observed"`
	Required    float64   `json:"required"`
	Remediation string    `json:"remediation,omitempty"`
}

// Verdict is the validation engine's output. Failing validation is a normal,
// representable state, never an error.
type Verdict struct {
	SessionID        core.SessionID `json:"session_id"`
	Valid            bool           `json:"meets_thresholds"`
	Checks           []CheckResult  `json:"checks"`
	Diagnostics      []string       `json:"diagnostics,omitempty"`
	Abandoned        bool           `json:"abandoned"` // duration above the max window
	ConfidenceLevel  float64        `json:"confidence_level"`
	ValidationMethod string         `json:"validation_method"`
	EvaluatedAt      core.Timestamp `json:"evaluated_at"`
}

// Check returns the result for a named check, if present.
func (v *Verdict) Check(name CheckName) (CheckResult, bool) {
	for _, c := range v.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}

// FailedChecks returns the failing subset in declaration order.
func (v *Verdict) FailedChecks() []CheckResult {
	var failed []CheckResult
	for _, c := range v.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}
