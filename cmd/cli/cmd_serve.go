package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the FieldMaestro server",
	Long:  `Start the FieldMaestro server to receive readings and serve the dashboard API.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	cfg := app.Config
	logger := app.Logger

	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	dbManager, err := databaseFrom(cmd)
	if err != nil {
		return err
	}

	services, err := InitServices(cfg, dbManager, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services.Start(ctx)

	// Setup Router
	routeManager := NewRouteManager(dbManager, services, cfg.JWTSecret, cfg.Server.AllowedOrigins, cfg.Relay.ParcelMarker, logger)
	routeManager.Setup()

	addr := cfg.Server.Addr()
	server := &http.Server{
		Handler:      routeManager.Router,
		Addr:         addr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Server shutdown error")
		}
	}()

	logger.Infof("🚀 Starting FieldMaestro server on %s...", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
