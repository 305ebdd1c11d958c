package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pymetrics/domain/core"
	"pymetrics/domain/metrics"
	"pymetrics/domain/traits"
	"pymetrics/ports"
)

// ProfileRepositoryImpl implements ProfileRepository for PostgreSQL.
type ProfileRepositoryImpl struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new PostgreSQL profile repository
func NewProfileRepository(db *sqlx.DB) ports.ProfileRepository {
	return &ProfileRepositoryImpl{db: db}
}

// ReplaceMetrics swaps the session's metric rows for the new set in one
// transaction, so a recomputation never leaves a partial mix of old and new.
func (r *ProfileRepositoryImpl) ReplaceMetrics(ctx context.Context, set *metrics.Set) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM behavioral_metrics WHERE session_id = $1`, set.SessionID); err != nil {
		return err
	}

	for _, name := range set.Names() {
		m := set.Metrics[name]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO behavioral_metrics (session_id, name, value, quality, sample_size, computed_at, schema_version)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, set.SessionID, m.Name, m.Value, m.Quality, m.SampleSize, m.ComputedAt, m.SchemaVersion)
		if err != nil {
			return fmt.Errorf("insert metric %s: %w", m.Name, err)
		}
	}

	return tx.Commit()
}

// ReplaceProfile upserts the session's trait profile. Scores are stored as
// JSONB alongside the fingerprint used to verify recomputation determinism.
func (r *ProfileRepositoryImpl) ReplaceProfile(ctx context.Context, profile *traits.Profile) error {
	scores, err := json.Marshal(profile.Scores)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO trait_profiles (session_id, scores, computed_at, assessment_version, schema_version, fingerprint)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE
		SET scores = EXCLUDED.scores,
		    computed_at = EXCLUDED.computed_at,
		    assessment_version = EXCLUDED.assessment_version,
		    schema_version = EXCLUDED.schema_version,
		    fingerprint = EXCLUDED.fingerprint
	`, profile.SessionID, scores, profile.ComputedAt, profile.AssessmentVersion, profile.SchemaVersion, profile.Fingerprint)
	return err
}

// GetProfile returns the persisted trait profile for a session.
func (r *ProfileRepositoryImpl) GetProfile(ctx context.Context, sessionID core.SessionID) (*traits.Profile, error) {
	var row struct {
		SessionID         core.SessionID         `db:"session_id"`
		Scores            []byte                 `db:"scores"`
		ComputedAt        core.Timestamp         `db:"computed_at"`
		AssessmentVersion string                 `db:"assessment_version"`
		SchemaVersion     string                 `db:"schema_version"`
		Fingerprint       core.ResultFingerprint `db:"fingerprint"`
	}

	err := r.db.GetContext(ctx, &row, `
		SELECT session_id, scores, computed_at, assessment_version, schema_version, fingerprint
		FROM trait_profiles
		WHERE session_id = $1
	`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", core.ErrProfileNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}

	profile := &traits.Profile{
		SessionID:         row.SessionID,
		ComputedAt:        row.ComputedAt,
		AssessmentVersion: row.AssessmentVersion,
		SchemaVersion:     row.SchemaVersion,
		Fingerprint:       row.Fingerprint,
	}
	if err := json.Unmarshal(row.Scores, &profile.Scores); err != nil {
		return nil, fmt.Errorf("decode trait scores for session %s: %w", sessionID, err)
	}

	return profile, nil
}
