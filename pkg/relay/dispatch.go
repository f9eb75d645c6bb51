package relay

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/api"
	"github.com/sirupsen/logrus"
)

// Sink receives one sensor value
type Sink interface {
	Send(ctx context.Context, sensorID uuid.UUID, value float64, raw string) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, sensorID uuid.UUID, value float64, raw string) error

// Send calls f
func (f SinkFunc) Send(ctx context.Context, sensorID uuid.UUID, value float64, raw string) error {
	return f(ctx, sensorID, value, raw)
}

// APISink posts values through the HTTP API
func APISink(client *api.Client) Sink {
	return SinkFunc(func(ctx context.Context, sensorID uuid.UUID, value float64, raw string) error {
		_, err := client.PostReading(ctx, sensorID, value, raw)
		return err
	})
}

// DispatchResult counts the outcome of one dispatch
type DispatchResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Dropped int `json:"dropped"`
}

// RawTag is the raw marker stored with relayed readings, e.g. MAIoTA_CO2
func RawTag(field string) string {
	return "MAIoTA_" + strings.ToUpper(field)
}

// Dispatch sends every mapped field independently. Unmapped fields are
// dropped and failures are logged; one failure never stops the others.
func Dispatch(ctx context.Context, sink Sink, mapping Mapping, values map[string]float64, logger logrus.FieldLogger) DispatchResult {
	var result DispatchResult

	for field, value := range values {
		sensorID, ok := mapping[field]
		if !ok {
			result.Dropped++
			continue
		}

		entry := logger.WithFields(logrus.Fields{
			"sensor_id": sensorID,
			"field":     field,
			"value":     value,
		})

		if err := sink.Send(ctx, sensorID, value, RawTag(field)); err != nil {
			entry.WithError(err).Warn("❌ Failed to send reading")
			result.Failed++
			continue
		}

		entry.Info("✓ Reading saved")
		result.Sent++
	}

	return result
}
