package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WireLayout is the XWiki REST timestamp format: UTC, second precision.
const WireLayout = "2006-01-02T15:04:05Z"

// Timestamp is a UTC instant truncated to whole seconds that marshals in
// the wire layout.
type Timestamp struct {
	time.Time
}

// NewTimestamp normalizes t to UTC and second precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Second)}
}

// ParseTimestamp parses a wire value such as "2023-04-01T09:30:00Z".
// Offsets other than Z are accepted and converted to UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)

	t, err := time.Parse(WireLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
	}

	return NewTimestamp(t), nil
}

// String returns the wire representation.
func (t Timestamp) String() string {
	return t.UTC().Format(WireLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}
