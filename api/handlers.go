package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pymetrics/domain/core"
	"pymetrics/domain/metrics"
	"pymetrics/domain/traits"
	"pymetrics/domain/verdict"
	"pymetrics/internal/report"
	"pymetrics/internal/validation"
)

type inferRequest struct {
	SessionID string `json:"session_id"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInferTraits runs the full pipeline for one session. Failing the
// scientific thresholds is an unprocessable session, not a server error.
func (a *App) handleInferTraits(w http.ResponseWriter, r *http.Request) {
	var req inferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, errorBody{
			Error:          "Missing required field: session_id.",
			RequiredFields: []string{"session_id"},
			Suggestion:     "Provide a valid session identifier.",
		})
		return
	}

	sessionID, err := core.ParseSessionID(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{
			Error:          "Invalid session_id.",
			RequiredFields: []string{"session_id"},
			Suggestion:     "Provide a valid session identifier.",
		})
		return
	}

	result, err := a.service.InferTraits(r.Context(), sessionID)
	if err != nil {
		a.writePipelineError(w, sessionID, err)
		return
	}

	if !result.Verdict.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, validationFailureBody(result.Verdict))
		return
	}

	writeJSON(w, http.StatusOK, profileBody(result.Profile, result.Metrics, result.Verdict))
}

// handleGetProfile returns the persisted trait profile for a session.
func (a *App) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "session_id")
	sessionID, err := core.ParseSessionID(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{
			Error:          "Invalid session_id.",
			RequiredFields: []string{"session_id"},
			Suggestion:     "Provide a valid session identifier.",
		})
		return
	}

	profile, err := a.service.GetProfile(r.Context(), sessionID)
	if err != nil {
		if core.IsNotFoundError(err) {
			writeError(w, http.StatusNotFound, errorBody{
				Error:      "Trait profile not found for session " + sessionID.String() + ".",
				Suggestion: "Run trait inference for this session first.",
			})
			return
		}
		a.logger.Error("get profile %s: %v", sessionID, err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, profileBody(profile, nil, nil))
}

// handleGetReport recomputes the session and renders the assessment report
// as HTML for human review.
func (a *App) handleGetReport(w http.ResponseWriter, r *http.Request) {
	sessionID, err := core.ParseSessionID(chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{
			Error:          "Invalid session_id.",
			RequiredFields: []string{"session_id"},
			Suggestion:     "Provide a valid session identifier.",
		})
		return
	}

	result, err := a.service.InferTraits(r.Context(), sessionID)
	if err != nil {
		a.writePipelineError(w, sessionID, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(report.NewGenerator().HTML(result))
}

// writePipelineError maps pipeline errors onto the API error contract.
func (a *App) writePipelineError(w http.ResponseWriter, sessionID core.SessionID, err error) {
	var insufficient *core.InsufficientDataError

	switch {
	case core.IsNotFoundError(err):
		writeError(w, http.StatusNotFound, errorBody{
			Error:      "Session " + sessionID.String() + " not found.",
			Suggestion: "Provide a valid session identifier.",
		})
	case core.IsIncompleteSessionError(err):
		writeError(w, http.StatusUnprocessableEntity, errorBody{
			Error:      "Session is not completed.",
			Suggestion: "Ensure session is fully completed before trait inference.",
		})
	case errors.As(err, &insufficient):
		body := errorBody{
			Error:      insufficient.Error() + ".",
			Suggestion: "Ensure session contains sufficient behavioral events.",
		}
		if len(insufficient.Missing) > 0 {
			body.RequiredFields = insufficient.Missing
		}
		writeError(w, http.StatusUnprocessableEntity, body)
	case errors.Is(err, core.ErrUnknownGameType):
		writeError(w, http.StatusUnprocessableEntity, errorBody{
			Error:      "Unknown game type for session " + sessionID.String() + ".",
			Suggestion: "Only recognized game types can be assessed.",
		})
	default:
		a.logger.Error("trait inference %s: %v", sessionID, err)
		writeInternalError(w)
	}
}

// profileBody builds the flat trait response. Dimensions that could not be
// inferred are omitted rather than defaulted, so absence stays visible.
func profileBody(profile *traits.Profile, set *metrics.Set, v *verdict.Verdict) map[string]interface{} {
	body := map[string]interface{}{
		"session_id":           profile.SessionID,
		"assessment_timestamp": profile.ComputedAt,
	}

	confidences := map[string]float64{}
	interpretations := map[string]string{}
	for _, dim := range profile.Dimensions() {
		s := profile.Scores[dim]
		body[string(dim)] = s.Score
		confidences[string(dim)] = s.Confidence
		interpretations[string(dim)] = s.Interpretation
	}
	body["trait_confidences"] = confidences
	body["interpretations"] = interpretations
	body["reliability_score"] = profile.MeanReliability()

	if set != nil {
		body["data_completeness"] = set.Completeness
		body["quality_score"] = set.MeanQuality()
	}

	sci := map[string]interface{}{
		"validation_method":   validation.ValidationMethod,
		"data_schema_version": profile.SchemaVersion,
		"assessment_version":  profile.AssessmentVersion,
	}
	if v != nil {
		body["confidence_interval"] = v.ConfidenceLevel
		sci["meets_thresholds"] = v.Valid
		sci["validation_method"] = v.ValidationMethod
	}
	body["scientific_validation"] = sci

	return body
}

// validationFailureBody surfaces every failed check with its remediation.
func validationFailureBody(v *verdict.Verdict) map[string]interface{} {
	failed := v.FailedChecks()
	suggestion := "Trait inference results do not meet scientific validation thresholds."
	if len(failed) > 0 && failed[0].Remediation != "" {
		suggestion = failed[0].Remediation
	}
	return map[string]interface{}{
		"error":         "Session does not meet scientific validation thresholds.",
		"suggestion":    suggestion,
		"failed_checks": failed,
		"diagnostics":   v.Diagnostics,
		"abandoned":     v.Abandoned,
		"scientific_validation": map[string]interface{}{
			"meets_thresholds":  false,
			"validation_method": v.ValidationMethod,
		},
	}
}
