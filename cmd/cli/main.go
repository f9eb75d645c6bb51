package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/sguter90/fieldmaestro/pkg/config"
	"github.com/sguter90/fieldmaestro/pkg/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	currentApp *App
)

var rootCmd = &cobra.Command{
	Use:   "fieldmaestro",
	Short: "FieldMaestro - Farm Telemetry Management System",
	Long: `FieldMaestro ingests sensor readings from farm parcels, raises
threshold alerts and serves the data to the monitoring dashboard.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadApp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./fieldmaestro.yaml)")
}

// App carries what every command needs
type App struct {
	Config *config.Config
	Logger *logrus.Logger

	dbOnce    sync.Once
	dbManager *database.DatabaseManager
	dbErr     error
}

type appContextKey struct{}

// Database opens the configured database on first use
func (a *App) Database() (*database.DatabaseManager, error) {
	a.dbOnce.Do(func() {
		a.dbManager, a.dbErr = database.NewDatabaseManager(a.Config.Database, a.Logger)
	})
	return a.dbManager, a.dbErr
}

// Close releases the database if it was opened
func (a *App) Close() {
	if a.dbManager != nil {
		a.dbManager.Close()
	}
}

func loadApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}

	app := &App{Config: cfg, Logger: logger}
	currentApp = app
	cmd.SetContext(context.WithValue(cmd.Context(), appContextKey{}, app))

	return nil
}

func appFrom(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey{}).(*App)
}

// databaseFrom opens the database and applies pending migrations
func databaseFrom(cmd *cobra.Command) (*database.DatabaseManager, error) {
	dbManager, err := appFrom(cmd).Database()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return dbManager, nil
}

func main() {
	ctx := context.Background()

	err := rootCmd.ExecuteContext(ctx)
	if currentApp != nil {
		currentApp.Close()
	}

	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
