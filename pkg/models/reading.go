package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultReadingLimit = 100
	MaxReadingLimit     = 1000
)

// SensorReading represents a single measurement from a sensor
type SensorReading struct {
	ID        uuid.UUID `json:"id"`
	SensorID  uuid.UUID `json:"sensor_id"`
	Value     float64   `json:"value"`
	Raw       *string   `json:"raw,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IngestRequest is the body accepted by the reading ingest endpoint
type IngestRequest struct {
	Value     *float64 `json:"value"`
	Timestamp *string  `json:"timestamp,omitempty"`
	Raw       *string  `json:"raw,omitempty"`
}

// Validate checks the request and returns the parsed timestamp, if any
func (r *IngestRequest) Validate() (*time.Time, error) {
	verr := NewValidationError()
	if r.Value == nil {
		verr.Add("value", "value is required")
	}

	var ts *time.Time
	if r.Timestamp != nil && strings.TrimSpace(*r.Timestamp) != "" {
		parsed, err := ParseTimestamp(*r.Timestamp)
		if err != nil {
			verr.Add("timestamp", err.Error())
		} else {
			ts = &parsed
		}
	}

	return ts, verr.OrNil()
}

// ReadingQueryParams holds the query parameters for sensor history
type ReadingQueryParams struct {
	SensorID uuid.UUID
	From     *time.Time
	To       *time.Time
	Limit    int
}

// Validate checks if the query parameters are valid
func (p *ReadingQueryParams) Validate() error {
	if p.Limit < 1 || p.Limit > MaxReadingLimit {
		return fmt.Errorf("limit must be between 1 and %d", MaxReadingLimit)
	}

	if p.From != nil && p.To != nil && p.From.After(*p.To) {
		return fmt.Errorf("'from' must not be after 'to'")
	}

	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 and the common ISO-8601 variants without
// zone. Zone-less values are taken as UTC. The result is always UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp: %q", s)
}
