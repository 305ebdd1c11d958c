package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrProfileNotFound = fmt.Errorf("%w: trait profile", ErrNotFound)

	// Pipeline errors
	ErrSessionIncomplete = errors.New("session not yet complete")
	ErrInsufficientData  = errors.New("insufficient data for metric extraction")
	ErrMalformedEvent    = errors.New("event payload missing required fields")
	ErrUnknownGameType   = errors.New("unknown game type")

	// Determinism errors
	ErrFingerprintMismatch = errors.New("result fingerprint mismatch")
)

// InsufficientDataError carries the exact floor so callers can surface
// an actionable remediation ("collect at least N events").
type InsufficientDataError struct {
	SessionID SessionID
	Observed  int
	Required  int
	Missing   []string // mandatory event kinds absent from the stream, if any
}

func (e *InsufficientDataError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("insufficient data for session %s: missing mandatory event kinds %v", e.SessionID, e.Missing)
	}
	return fmt.Sprintf("insufficient data for session %s: %d events, need at least %d", e.SessionID, e.Observed, e.Required)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// NewInsufficientDataError reports a sample below the configured floor.
func NewInsufficientDataError(sessionID SessionID, observed, required int) error {
	return &InsufficientDataError{SessionID: sessionID, Observed: observed, Required: required}
}

// NewMissingEventKindsError reports absent mandatory event kinds.
func NewMissingEventKindsError(sessionID SessionID, missing []string) error {
	return &InsufficientDataError{SessionID: sessionID, Missing: missing}
}

// MalformedEventError identifies the offending event and the fields it lacks.
type MalformedEventError struct {
	EventID EventID
	Kind    string
	Fields  []string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event %s: missing fields %v", e.Kind, e.EventID, e.Fields)
}

func (e *MalformedEventError) Unwrap() error { return ErrMalformedEvent }

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewIncompleteSessionError(id SessionID) error {
	return fmt.Errorf("%w: %s", ErrSessionIncomplete, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsIncompleteSessionError(err error) bool {
	return errors.Is(err, ErrSessionIncomplete)
}
