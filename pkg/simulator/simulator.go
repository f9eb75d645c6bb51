// Package simulator feeds synthetic readings for every known sensor into the
// reading API at a fixed interval.
package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sguter90/fieldmaestro/pkg/relay"
	"github.com/sirupsen/logrus"
)

// DefaultInterval is the pause between two rounds
const DefaultInterval = 5 * time.Second

// spikeChance is the probability of a spike per generated value
const spikeChance = 0.05

type drift struct {
	base  float64
	step  float64
	min   float64
	max   float64
	spike float64
}

var drifts = map[string]drift{
	models.SensorTypeTemperature:  {base: 24, step: 0.5, min: 10, max: 45, spike: 15},
	models.SensorTypeHumidity:     {base: 55, step: 2, min: 0, max: 100},
	models.SensorTypeSoilMoisture: {base: 35, step: 1, min: 0, max: 100, spike: -25},
	models.SensorTypeLight:        {base: 800, step: 50, min: 0, max: 2000},
}

var otherDrift = drift{base: 50, step: 1, min: math.Inf(-1), max: math.Inf(1)}

// Generator produces drifting values per sensor type
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator. A zero seed uses the clock.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Next returns the value following last, or starts from the type's base
// value when last is nil. Values are rounded to two decimals.
func (g *Generator) Next(sensorType string, last *float64) float64 {
	d, ok := drifts[sensorType]
	if !ok {
		d = otherDrift
	}

	current := d.base
	if last != nil {
		current = *last
	}

	next := current + (g.rng.Float64()*2-1)*d.step
	next = math.Max(d.min, math.Min(d.max, next))

	if g.rng.Float64() < spikeChance {
		next += d.spike
	}

	return math.Round(next*100) / 100
}

// Simulator periodically posts generated readings
type Simulator struct {
	directory relay.Directory
	sink      relay.Sink
	generator *Generator
	interval  time.Duration
	logger    logrus.FieldLogger
	now       func() time.Time

	mu      sync.Mutex
	sensors []models.Sensor
	last    map[uuid.UUID]float64
}

// New creates a simulator
func New(dir relay.Directory, sink relay.Sink, interval time.Duration, gen *Generator, logger logrus.FieldLogger) *Simulator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if gen == nil {
		gen = NewGenerator(0)
	}
	return &Simulator{
		directory: dir,
		sink:      sink,
		generator: gen,
		interval:  interval,
		logger:    logger.WithField("component", "simulator"),
		now:       time.Now,
		last:      make(map[uuid.UUID]float64),
	}
}

// Configure loads every sensor of every parcel
func (s *Simulator) Configure(ctx context.Context) (int, error) {
	s.logger.Info("Fetching system configuration")

	parcels, err := s.directory.GetParcels(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch parcels: %w", err)
	}

	var sensors []models.Sensor
	for _, p := range parcels {
		ps, err := s.directory.GetSensorsByParcel(ctx, p.ID)
		if err != nil {
			s.logger.WithError(err).WithField("parcel_id", p.ID).Warn("Failed to fetch sensors for parcel")
			continue
		}
		for _, sensor := range ps {
			s.logger.WithFields(logrus.Fields{
				"sensor_id": sensor.ID,
				"type":      sensor.Type,
				"parcel":    p.Name,
			}).Info("Configured sensor")
		}
		sensors = append(sensors, ps...)
	}

	s.mu.Lock()
	s.sensors = sensors
	s.mu.Unlock()

	s.logger.Infof("Simulation configured with %d active sensors", len(sensors))
	return len(sensors), nil
}

// Tick generates and posts one value per sensor. Failures are logged.
func (s *Simulator) Tick(ctx context.Context) (sentCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := fmt.Sprintf("SIM_%d", s.now().Unix())

	for _, sensor := range s.sensors {
		if ctx.Err() != nil {
			return sentCount
		}

		var last *float64
		if v, ok := s.last[sensor.ID]; ok {
			last = &v
		}
		value := s.generator.Next(sensor.Type, last)
		s.last[sensor.ID] = value

		entry := s.logger.WithFields(logrus.Fields{
			"sensor_id": sensor.ID,
			"type":      sensor.Type,
			"value":     value,
		})

		if err := s.sink.Send(ctx, sensor.ID, value, raw); err != nil {
			entry.WithError(err).Warn("❌ Failed to send reading")
			continue
		}

		entry.Infof("✓ Sent %v %s", value, sensor.Unit)
		sentCount++
	}

	return sentCount
}

// Run configures the simulator and loops until ctx is cancelled. It returns
// early when no sensors exist.
func (s *Simulator) Run(ctx context.Context) error {
	n, err := s.Configure(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		s.logger.Warn("No sensors found to simulate")
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Infof("✓ Simulation started (interval %s)", s.interval)

	// Send immediately on start
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("✓ Simulation stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}
