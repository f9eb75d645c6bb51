package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sguter90/fieldmaestro/pkg/api"
	"github.com/sguter90/fieldmaestro/pkg/config"
	"github.com/sguter90/fieldmaestro/pkg/relay"
	"github.com/sguter90/fieldmaestro/pkg/spool"
	"github.com/spf13/cobra"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay broker frames to the API",
	Long: `Subscribe to the MQTT topic of the greenhouse node, parse every frame
and post the values of mapped sensors to the FieldMaestro API.`,
	RunE: runRelay,
}

func init() {
	rootCmd.AddCommand(relayCmd)
}

func newAPIClient(cfg *config.Config) *api.Client {
	opts := []api.ClientOption{api.WithToken(cfg.API.Token)}
	if cfg.API.Timeout > 0 {
		opts = append(opts, api.WithTimeout(cfg.API.Timeout))
	}
	return api.NewClient(cfg.API.BaseURL, opts...)
}

func runRelay(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	cfg := app.Config
	logger := app.Logger

	parsers, err := newParserRegistry(cfg.FieldMapPath, logger)
	if err != nil {
		return err
	}
	p, ok := parsers.Get(cfg.Relay.Format)
	if !ok {
		return fmt.Errorf("unknown frame format: %s", cfg.Relay.Format)
	}

	client := newAPIClient(cfg)

	// A reconnect is a good moment to learn whether the API is reachable
	checkAPI := relay.ConnectListenerFunc(func(ctx context.Context) {
		status, err := client.Health(ctx)
		if err != nil {
			logger.WithError(err).Warnf("⚠️  API at %s not reachable", client.BaseURL())
			return
		}
		logger.Infof("API at %s is %s (database %s)", client.BaseURL(), status.Status, status.Database)
	})

	r := relay.New(
		relay.Config{ParcelMarker: cfg.Relay.ParcelMarker},
		p,
		client,
		relay.APISink(client),
		spool.New(cfg.Spool.Path, logger),
		logger,
		checkAPI,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Infof("📡 Relaying %s frames from %s (%s) to %s", p.Format(), cfg.MQTT.Broker, cfg.MQTT.Topic, client.BaseURL())

	return r.Run(ctx, relay.NewMQTTSource(cfg.MQTT, logger))
}
