package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/config"
	"github.com/sguter90/fieldmaestro/pkg/ingest"
	"github.com/sguter90/fieldmaestro/pkg/live"
	"github.com/sguter90/fieldmaestro/pkg/notify"
	"github.com/sguter90/fieldmaestro/pkg/parser"
	"github.com/sguter90/fieldmaestro/pkg/parser/maiota"
	"github.com/sguter90/fieldmaestro/pkg/relay"
	"github.com/sguter90/fieldmaestro/pkg/spool"
	"github.com/sirupsen/logrus"
)

// Services bundles the long-lived components shared by the HTTP handlers
type Services struct {
	Parsers *parser.Registry
	Ingest  *ingest.Service
	Hub     *live.Hub
	Mailer  *notify.Mailer
	Spool   *spool.Spool
}

// newParserRegistry registers every known frame format. A configured field
// map replaces the built-in MAIoTA table.
func newParserRegistry(fieldMapPath string, logger logrus.FieldLogger) (*parser.Registry, error) {
	var fields parser.FieldMap
	if fieldMapPath != "" {
		loaded, err := parser.LoadFieldMap(fieldMapPath)
		if err != nil {
			return nil, err
		}
		fields = loaded
	}

	registry := parser.NewRegistry()
	registry.Register(maiota.NewParser(fields, logger))
	return registry, nil
}

// InitServices wires the ingest pipeline and its listeners
func InitServices(cfg *config.Config, store ingest.Store, logger *logrus.Logger) (*Services, error) {
	parsers, err := newParserRegistry(cfg.FieldMapPath, logger)
	if err != nil {
		return nil, err
	}

	for _, p := range parsers.All() {
		logger.Infof("Registering parser: %s (%d fields)", p.Format(), len(p.Fields()))
	}

	services := &Services{
		Parsers: parsers,
		Hub:     live.NewHub(logger),
		Spool:   spool.New(cfg.Spool.Path, logger),
	}

	listeners := []ingest.Listener{services.Hub}
	if cfg.SMTP.Enabled() {
		services.Mailer = notify.NewMailer(cfg.SMTP, logger)
		listeners = append(listeners, services.Mailer)
		logger.Infof("📧 Alert mails go to %v via %s", cfg.SMTP.To, cfg.SMTP.Host)
	}

	services.Ingest = ingest.NewService(store, logger, listeners...)

	return services, nil
}

// Start launches the background workers. They stop when ctx is cancelled.
func (s *Services) Start(ctx context.Context) {
	if s.Hub != nil {
		go s.Hub.Run(ctx)
	}
	if s.Mailer != nil {
		go s.Mailer.Run(ctx)
	}
}

// ingestSink feeds relayed values straight into the ingest service
func ingestSink(svc *ingest.Service) relay.Sink {
	return relay.SinkFunc(func(ctx context.Context, sensorID uuid.UUID, value float64, raw string) error {
		if svc == nil {
			return fmt.Errorf("ingest service not configured")
		}
		var rawPtr *string
		if raw != "" {
			rawPtr = &raw
		}
		_, err := svc.Ingest(ctx, sensorID, value, nil, rawPtr)
		return err
	})
}
