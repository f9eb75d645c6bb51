package main

import (
	"os/signal"
	"syscall"

	"github.com/sguter90/fieldmaestro/pkg/relay"
	"github.com/sguter90/fieldmaestro/pkg/simulator"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Post simulated readings to the API",
	Long: `Generate drifting readings for every sensor known to the API and post
them at a fixed interval. Useful for demos and dashboard development.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	cfg := app.Config

	client := newAPIClient(cfg)
	sim := simulator.New(client, relay.APISink(client), cfg.Sim.Interval, nil, app.Logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.Logger.Infof("🎲 Simulating readings against %s every %s", client.BaseURL(), cfg.Sim.Interval)

	return sim.Run(ctx)
}
