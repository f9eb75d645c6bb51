// Package threshold decides whether a sensor value breaches the sensor's
// configured bounds.
package threshold

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Alert types
const (
	TypeHigh = "THRESHOLD_HIGH"
	TypeLow  = "THRESHOLD_LOW"
)

// Sensor statuses shown on the dashboard
const (
	StatusInactive = "inactive"
	StatusActive   = "active"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// ErrInvalidBounds is returned when the low bound is not below the high bound
var ErrInvalidBounds = errors.New("low threshold must be below high threshold")

// Bounds are the optional alert bounds of a sensor
type Bounds struct {
	Low  *float64
	High *float64
}

// Breach describes a violated bound
type Breach struct {
	Type    string
	Message string
}

// Evaluate applies the ordered rule: the high bound is checked first, the
// low bound only when the high bound did not fire. Both comparisons are strict.
func Evaluate(value float64, b Bounds) *Breach {
	if b.High != nil && value > *b.High {
		return &Breach{
			Type:    TypeHigh,
			Message: fmt.Sprintf("Value %s exceeded high threshold %s", formatNumber(value), formatNumber(*b.High)),
		}
	}

	if b.Low != nil && value < *b.Low {
		return &Breach{
			Type:    TypeLow,
			Message: fmt.Sprintf("Value %s dropped below low threshold %s", formatNumber(value), formatNumber(*b.Low)),
		}
	}

	return nil
}

// Status derives the dashboard status from the latest value
func Status(b Bounds, latest *float64) string {
	if latest == nil {
		return StatusInactive
	}

	switch br := Evaluate(*latest, b); {
	case br == nil:
		return StatusActive
	case br.Type == TypeHigh:
		return StatusCritical
	default:
		return StatusWarning
	}
}

// ValidateBounds rejects bound pairs where low >= high
func ValidateBounds(b Bounds) error {
	if b.Low != nil && b.High != nil && *b.Low >= *b.High {
		return ErrInvalidBounds
	}
	return nil
}

// formatNumber prints the shortest decimal form but keeps one fractional
// digit on whole numbers, so 85 reads "85.0" as in stored alert history
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
