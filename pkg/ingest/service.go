// Package ingest holds the single business rule of the reading endpoint:
// look up the sensor, evaluate its thresholds, persist the alert and the
// reading together and tell the registered listeners.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sguter90/fieldmaestro/pkg/threshold"
	"github.com/sirupsen/logrus"
)

// Store is the persistence the service needs
type Store interface {
	GetSensor(ctx context.Context, id uuid.UUID) (*models.Sensor, error)
	StoreReadingWithAlert(ctx context.Context, reading *models.SensorReading, alert *models.Alert) error
}

// Event is delivered to listeners after a reading was stored
type Event struct {
	Sensor  models.Sensor
	Reading models.SensorReading
	Alert   *models.Alert
}

// Listener is notified about every stored reading
type Listener interface {
	OnIngest(ctx context.Context, event Event)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(ctx context.Context, event Event)

// OnIngest calls f
func (f ListenerFunc) OnIngest(ctx context.Context, event Event) {
	f(ctx, event)
}

// Result is what one ingest produced
type Result struct {
	Reading models.SensorReading
	Alert   *models.Alert
}

// Service ingests single sensor values
type Service struct {
	store     Store
	listeners []Listener
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewService creates an ingest service. Listeners are invoked in the order
// given, synchronously, after the write committed.
func NewService(store Store, logger logrus.FieldLogger, listeners ...Listener) *Service {
	return &Service{
		store:     store,
		listeners: listeners,
		logger:    logger.WithField("component", "ingest"),
		now:       time.Now,
	}
}

// Ingest stores one value for a sensor. A missing sensor yields an error
// wrapping database.ErrNotFound and nothing is written. A nil timestamp means
// now.
func (s *Service) Ingest(ctx context.Context, sensorID uuid.UUID, value float64, timestamp *time.Time, raw *string) (*Result, error) {
	sensor, err := s.store.GetSensor(ctx, sensorID)
	if err != nil {
		return nil, err
	}

	ts := s.now().UTC()
	if timestamp != nil {
		ts = timestamp.UTC()
	}

	reading := models.SensorReading{
		ID:        uuid.New(),
		SensorID:  sensor.ID,
		Value:     value,
		Raw:       raw,
		Timestamp: ts,
	}

	var alert *models.Alert
	if breach := threshold.Evaluate(value, sensor.Bounds()); breach != nil {
		alert = &models.Alert{
			ID:        uuid.New(),
			SensorID:  sensor.ID,
			Timestamp: ts,
			Type:      breach.Type,
			Message:   breach.Message,
		}
	}

	if err := s.store.StoreReadingWithAlert(ctx, &reading, alert); err != nil {
		return nil, fmt.Errorf("failed to ingest reading for sensor %s: %w", sensorID, err)
	}

	if alert != nil {
		s.logger.WithFields(logrus.Fields{
			"sensor_id": sensor.ID,
			"type":      alert.Type,
			"value":     value,
		}).Warn(alert.Message)
	}

	event := Event{Sensor: *sensor, Reading: reading, Alert: alert}
	for _, l := range s.listeners {
		l.OnIngest(ctx, event)
	}

	return &Result{Reading: reading, Alert: alert}, nil
}
