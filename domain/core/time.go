package core

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// Before returns true if t is before u
func (t Timestamp) Before(u Timestamp) bool {
	return time.Time(t).Before(time.Time(u))
}

// After returns true if t is after u
func (t Timestamp) After(u Timestamp) bool {
	return time.Time(t).After(time.Time(u))
}

// UnixMilli returns the timestamp as milliseconds since the Unix epoch.
// Behavioral events carry millisecond precision end to end.
func (t Timestamp) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

// JSON marshaling for Timestamp
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tm time.Time
	if err := tm.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(tm)
	return nil
}

// String returns the RFC3339 representation
func (t Timestamp) String() string { return t.Time().Format(time.RFC3339) }

// Value implements driver.Valuer for database storage
func (t Timestamp) Value() (driver.Value, error) {
	return time.Time(t), nil
}

// Scan implements sql.Scanner; NULL scans to the zero timestamp.
func (t *Timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = Timestamp(v)
		return nil
	case nil:
		*t = Timestamp{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
}
