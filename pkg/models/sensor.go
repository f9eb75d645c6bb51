package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/threshold"
)

// Sensor represents a physical sensor installed on a parcel
type Sensor struct {
	ID            uuid.UUID `json:"id"`
	ParcelID      uuid.UUID `json:"parcel_id"`
	Type          string    `json:"type"`
	Unit          string    `json:"unit"`
	Description   string    `json:"description"`
	ThresholdLow  *float64  `json:"threshold_low"`
	ThresholdHigh *float64  `json:"threshold_high"`
}

// Bounds returns the sensor's alert bounds
func (s Sensor) Bounds() threshold.Bounds {
	return threshold.Bounds{Low: s.ThresholdLow, High: s.ThresholdHigh}
}

// SensorInput is the writable part of a sensor
type SensorInput struct {
	Type          string   `json:"type"`
	Unit          string   `json:"unit"`
	Description   string   `json:"description"`
	ThresholdLow  *float64 `json:"threshold_low"`
	ThresholdHigh *float64 `json:"threshold_high"`
}

// Validate checks required sensor fields and the bound ordering
func (s *SensorInput) Validate() error {
	s.Type = strings.TrimSpace(s.Type)
	s.Unit = strings.TrimSpace(s.Unit)
	s.Description = strings.TrimSpace(s.Description)

	verr := NewValidationError()
	if s.Type == "" {
		verr.Add("type", "Type and Unit are required.")
	} else if !IsKnownSensorType(s.Type) {
		verr.Add("type", "Unknown sensor type: "+s.Type)
	}
	if s.Unit == "" {
		verr.Add("unit", "Type and Unit are required.")
	}
	if err := threshold.ValidateBounds(threshold.Bounds{Low: s.ThresholdLow, High: s.ThresholdHigh}); err != nil {
		verr.Add("threshold_low", err.Error())
	}
	return verr.OrNil()
}

// SensorWithLatestReading combines sensor info with its latest reading
type SensorWithLatestReading struct {
	Sensor        Sensor         `json:"sensor"`
	ParcelName    string         `json:"parcel_name"`
	LatestReading *SensorReading `json:"latest_reading,omitempty"`
}

// SensorOverview is the dashboard view of a sensor
type SensorOverview struct {
	Sensor
	CurrentValue *float64       `json:"current_value"`
	LastUpdated  *time.Time     `json:"last_updated"`
	Status       string         `json:"status"`
	History      []HistoryPoint `json:"history"`
}
