package behavioral

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"pymetrics/domain/core"
)

// GameType identifies which cognitive/economic game produced a session.
type GameType string

const (
	GameBalloonRisk   GameType = "balloon_risk"
	GameMemoryCards   GameType = "memory_cards"
	GameReactionTimer GameType = "reaction_timer"
)

// KnownGameTypes lists every game the extractor carries a formula set for.
var KnownGameTypes = []GameType{GameBalloonRisk, GameMemoryCards, GameReactionTimer}

// IsKnown reports whether the extractor has a formula set for this game.
func (g GameType) IsKnown() bool {
	for _, k := range KnownGameTypes {
		if g == k {
			return true
		}
	}
	return false
}

// Event kinds per game. The kind selects the payload schema an event is
// validated against at the extractor boundary.
const (
	KindPump    = "pump"
	KindCashOut = "cash_out"
	KindPop     = "pop"

	KindCardFlip     = "card_flip"
	KindMatchAttempt = "match_attempt"

	KindStimulus = "stimulus"
	KindResponse = "response"
)

// Payload is the schema-less per-event field bag. It is read-only to the
// core: extractors fold over it, never mutate it.
type Payload map[string]any

// Float reads a numeric field, tolerating the int/float ambiguity of
// JSON-decoded payloads.
func (p Payload) Float(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Bool reads a boolean field.
func (p Payload) Bool(key string) (bool, bool) {
	v, ok := p[key].(bool)
	return v, ok
}

// String reads a string field.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

// Has reports field presence regardless of type.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Value implements driver.Valuer so payloads persist as JSONB.
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB columns.
func (p *Payload) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Payload", src)
	}
}

// Event is one atomic timestamped interaction within a session. Events are
// totally ordered by (Sequence, TimestampMS); the core only reads them.
type Event struct {
	ID          core.EventID   `json:"id" db:"id"`
	SessionID   core.SessionID `json:"session_id" db:"session_id"`
	Sequence    int            `json:"sequence" db:"sequence"`
	Kind        string         `json:"kind" db:"kind"`
	Timestamp   core.Timestamp `json:"timestamp" db:"timestamp"`
	TimestampMS int64          `json:"timestamp_ms" db:"timestamp_ms"`
	Payload     Payload        `json:"payload" db:"payload"`
}

// Session is one assessment attempt. Owned by the event store collaborator;
// the core treats it as read-only.
type Session struct {
	ID         core.SessionID `json:"id" db:"id"`
	UserID     core.UserID    `json:"user_id" db:"user_id"`
	GameType   GameType       `json:"game_type" db:"game_type"`
	StartedAt  core.Timestamp `json:"started_at" db:"started_at"`
	EndedAt    core.Timestamp `json:"ended_at" db:"ended_at"`
	Completed  bool           `json:"completed" db:"completed"`
	DeviceInfo Payload        `json:"device_info" db:"device_info"`
}

// DurationMS returns the wall-clock session length in milliseconds, or zero
// for a session that has not ended.
func (s Session) DurationMS() int64 {
	if s.EndedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Time().Sub(s.StartedAt.Time()).Milliseconds()
}
