package ports

import (
	"context"

	"pymetrics/domain/behavioral"
	"pymetrics/domain/core"
)

// SessionEventReader is the inbound boundary to the event store collaborator.
// Implementations must return core.ErrSessionNotFound for unknown sessions and
// core.ErrSessionIncomplete for sessions that exist but have not ended, so the
// caller can tell the two conditions apart.
type SessionEventReader interface {
	// ReadSession returns the session metadata and its complete event list,
	// ordered by sequence index.
	ReadSession(ctx context.Context, sessionID core.SessionID) (*behavioral.Session, []behavioral.Event, error)

	// ListCompletedSessions returns identifiers of completed sessions, for
	// batch recomputation. Order carries no meaning.
	ListCompletedSessions(ctx context.Context, limit int) ([]core.SessionID, error)
}
