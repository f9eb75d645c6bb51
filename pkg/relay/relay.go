// Package relay bridges device frames from a message broker into the
// reading API: it discovers the target parcel's sensors, parses each frame
// and posts one reading per mapped field.
package relay

import (
	"context"
	"sync"

	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sguter90/fieldmaestro/pkg/parser"
	"github.com/sguter90/fieldmaestro/pkg/spool"
	"github.com/sirupsen/logrus"
)

// ConnectListener is notified after each (re)connect to the broker
type ConnectListener interface {
	OnConnect(ctx context.Context)
}

// ConnectListenerFunc adapts a function to ConnectListener
type ConnectListenerFunc func(ctx context.Context)

// OnConnect calls f
func (f ConnectListenerFunc) OnConnect(ctx context.Context) {
	f(ctx)
}

// Source delivers raw frames. Start returns once the first connection
// attempt was made; frames and connects are reported through the callbacks
// until Stop.
type Source interface {
	Start(ctx context.Context, onFrame func(topic, payload string), onConnect func()) error
	Stop()
}

// Config holds the relay settings
type Config struct {
	ParcelMarker string
}

// Relay turns frames into readings
type Relay struct {
	cfg       Config
	parser    parser.Parser
	directory Directory
	sink      Sink
	spool     *spool.Spool
	listeners []ConnectListener
	logger    logrus.FieldLogger

	mu        sync.RWMutex
	discovery *Discovery
}

// New creates a relay. The spool may be nil. Connect listeners run after the
// relay's own rediscovery, in the order given.
func New(cfg Config, p parser.Parser, dir Directory, sink Sink, sp *spool.Spool, logger logrus.FieldLogger, listeners ...ConnectListener) *Relay {
	if cfg.ParcelMarker == "" {
		cfg.ParcelMarker = DefaultParcelMarker
	}
	return &Relay{
		cfg:       cfg,
		parser:    p,
		directory: dir,
		sink:      sink,
		spool:     sp,
		listeners: listeners,
		logger:    logger.WithField("component", "relay"),
	}
}

// Discover refreshes the field to sensor mapping
func (r *Relay) Discover(ctx context.Context) error {
	d, err := Discover(ctx, r.directory, r.cfg.ParcelMarker, r.parser.Fields(), r.logger)
	if err != nil {
		r.logger.WithError(err).Error("❌ Discovery failed")
		return err
	}

	r.mu.Lock()
	r.discovery = d
	r.mu.Unlock()

	return nil
}

// Mapping returns a copy of the current mapping
func (r *Relay) Mapping() Mapping {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m := make(Mapping)
	if r.discovery != nil {
		for k, v := range r.discovery.Mapping {
			m[k] = v
		}
	}
	return m
}

// Target returns the parcel chosen by the last discovery, if any
func (r *Relay) Target() *models.Parcel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.discovery == nil {
		return nil
	}
	return r.discovery.Parcel
}

// HandleConnect reruns discovery and then notifies the connect listeners
func (r *Relay) HandleConnect(ctx context.Context) {
	r.logger.Info("✓ Connected to broker")
	_ = r.Discover(ctx)

	for _, l := range r.listeners {
		l.OnConnect(ctx)
	}
}

// HandleFrame spools, parses and dispatches one frame
func (r *Relay) HandleFrame(ctx context.Context, topic, frame string) DispatchResult {
	r.logger.WithField("topic", topic).Debugf("Frame received: %s", frame)

	if r.spool != nil {
		if err := r.spool.AppendFrame(topic, frame); err != nil {
			r.logger.WithError(err).Warn("Failed to spool frame")
		}
	}

	values := r.parser.Parse(frame)
	if len(values) == 0 {
		return DispatchResult{}
	}

	return Dispatch(ctx, r.sink, r.Mapping(), values, r.logger)
}

// Run performs an initial discovery, starts the source and blocks until ctx
// is cancelled.
func (r *Relay) Run(ctx context.Context, src Source) error {
	_ = r.Discover(ctx)

	err := src.Start(ctx,
		func(topic, payload string) { r.HandleFrame(ctx, topic, payload) },
		func() { r.HandleConnect(ctx) },
	)
	if err != nil {
		return err
	}

	<-ctx.Done()
	src.Stop()
	r.logger.Info("✓ Relay stopped")

	return nil
}
