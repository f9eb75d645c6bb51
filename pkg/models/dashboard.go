package models

import (
	"time"

	"github.com/google/uuid"
)

// SystemStats are the headline counters of the dashboard
type SystemStats struct {
	ParcelsCount      int `json:"parcels_count"`
	SensorsCount      int `json:"sensors_count"`
	ActiveAlertsCount int `json:"active_alerts_count"`
}

// LatestReading is the newest value of one sensor. Value and Timestamp are
// nil for sensors that never reported.
type LatestReading struct {
	SensorID  uuid.UUID  `json:"sensor_id"`
	Type      string     `json:"type"`
	ParcelID  uuid.UUID  `json:"parcel_id"`
	Unit      string     `json:"unit"`
	Value     *float64   `json:"value"`
	Timestamp *time.Time `json:"timestamp"`
}

// DashboardSummary is the payload of the main dashboard endpoint
type DashboardSummary struct {
	Stats          SystemStats        `json:"stats"`
	LatestReadings []LatestReading    `json:"latest_readings"`
	ActiveAlerts   []AlertWithContext `json:"active_alerts"`
}

// HistoryPoint is one sample of a sparkline
type HistoryPoint struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemStatus describes the storage health shown on the data page
type SystemStatus struct {
	Connected   bool      `json:"connected"`
	TableExists bool      `json:"table_exists"`
	RecordCount int       `json:"record_count"`
	LastCheck   time.Time `json:"last_check"`
}
