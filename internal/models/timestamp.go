package models

import (
	"fmt"
	"strconv"
	"time"
)

// TimestampLayout is the wire format of every timestamp in the API.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a UTC time with second precision that serializes as
// "YYYY-MM-DD HH:MM:SS".
type Timestamp time.Time

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// NewTimestamp truncates t to whole seconds in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC().Truncate(time.Second))
}

// FromUnix converts a unix-seconds value as stored in the database.
func FromUnix(sec int64) Timestamp {
	return Timestamp(time.Unix(sec, 0).UTC())
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// Unix returns the timestamp as unix seconds.
func (t Timestamp) Unix() int64 {
	return time.Time(t).Unix()
}

// IsZero reports whether the timestamp is unset.
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Timestamp) String() string {
	return time.Time(t).UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler so Go clients can decode
// API responses.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	*t = Timestamp(parsed)
	return nil
}
