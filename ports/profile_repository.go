package ports

import (
	"context"

	"pymetrics/domain/core"
	"pymetrics/domain/metrics"
	"pymetrics/domain/traits"
)

// ProfileRepository is the outbound persistence boundary. The core's only
// writes are computed artifacts handed to this collaborator; a recomputation
// fully replaces the prior rows for a session.
type ProfileRepository interface {
	// ReplaceMetrics deletes any existing metric rows for the session and
	// writes the new set atomically.
	ReplaceMetrics(ctx context.Context, set *metrics.Set) error

	// ReplaceProfile deletes any existing trait profile for the session and
	// writes the new one atomically.
	ReplaceProfile(ctx context.Context, profile *traits.Profile) error

	// GetProfile returns the persisted trait profile for a session, or
	// core.ErrProfileNotFound.
	GetProfile(ctx context.Context, sessionID core.SessionID) (*traits.Profile, error)
}
