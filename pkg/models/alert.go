package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/threshold"
)

// Alert is a recorded threshold breach
type Alert struct {
	ID           uuid.UUID `json:"id"`
	SensorID     uuid.UUID `json:"sensor_id"`
	Timestamp    time.Time `json:"timestamp"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	Acknowledged bool      `json:"acknowledged"`
}

// AlertWithContext is an alert enriched with its sensor and parcel
type AlertWithContext struct {
	Alert
	SensorDescription *string `json:"sensor_desc"`
	SensorType        *string `json:"sensor_type"`
	ParcelName        *string `json:"parcel_name"`
}

// AlertQueryParams holds the filters for alert listing
type AlertQueryParams struct {
	SensorID     *uuid.UUID
	Type         string
	From         *time.Time
	To           *time.Time
	Acknowledged *bool
	Limit        int
}

// Validate checks if the query parameters are valid
func (p *AlertQueryParams) Validate() error {
	if p.Type != "" && p.Type != threshold.TypeHigh && p.Type != threshold.TypeLow {
		return fmt.Errorf("invalid type: %s (valid: %s, %s)", p.Type, threshold.TypeHigh, threshold.TypeLow)
	}

	if p.Limit < 1 || p.Limit > MaxReadingLimit {
		return fmt.Errorf("limit must be between 1 and %d", MaxReadingLimit)
	}

	return nil
}
