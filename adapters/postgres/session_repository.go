package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pymetrics/domain/behavioral"
	"pymetrics/domain/core"
	"pymetrics/ports"
)

// SessionRepositoryImpl implements SessionEventReader for PostgreSQL. The
// event store is owned by the game frontends; this adapter only reads.
type SessionRepositoryImpl struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session reader
func NewSessionRepository(db *sqlx.DB) ports.SessionEventReader {
	return &SessionRepositoryImpl{db: db}
}

// ReadSession returns session metadata and its full ordered event stream.
// Unknown sessions map to ErrSessionNotFound, sessions still in progress to
// ErrSessionIncomplete.
func (r *SessionRepositoryImpl) ReadSession(ctx context.Context, sessionID core.SessionID) (*behavioral.Session, []behavioral.Event, error) {
	var session behavioral.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT id, user_id, game_type, started_at, ended_at, completed, device_info
		FROM sessions
		WHERE id = $1
	`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, nil, err
	}

	if !session.Completed {
		return nil, nil, core.NewIncompleteSessionError(sessionID)
	}

	var events []behavioral.Event
	err = r.db.SelectContext(ctx, &events, `
		SELECT id, session_id, sequence, kind, timestamp, timestamp_ms, payload
		FROM events
		WHERE session_id = $1
		ORDER BY sequence, timestamp_ms
	`, sessionID)
	if err != nil {
		return nil, nil, err
	}

	return &session, events, nil
}

// ListCompletedSessions returns identifiers of completed sessions for batch
// recomputation, oldest first.
func (r *SessionRepositoryImpl) ListCompletedSessions(ctx context.Context, limit int) ([]core.SessionID, error) {
	query := `
		SELECT id FROM sessions
		WHERE completed = TRUE
		ORDER BY ended_at
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []core.SessionID
	for rows.Next() {
		var id core.SessionID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
