package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Dialect names the SQL flavour of the connected database
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

var (
	// ErrNotFound is returned when a referenced row does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write
	ErrConflict = errors.New("already exists")
)

// Config selects and parameterises the database connection
type Config struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DatabaseManager handles all database operations
type DatabaseManager struct {
	db            *sql.DB
	dialect       Dialect
	healthChecker *HealthChecker
	logger        *logrus.Logger
}

// NewDatabaseManager opens the configured database and starts health checking
func NewDatabaseManager(cfg Config, logger *logrus.Logger) (*DatabaseManager, error) {
	db, dialect, err := connectDatabase(cfg)
	if err != nil {
		return nil, err
	}

	dm := newDatabaseManager(db, dialect, logger)
	dm.healthChecker.Start()

	logger.WithFields(logrus.Fields{
		"driver": dialect,
	}).Info("✓ Database connected")

	return dm, nil
}

func newDatabaseManager(db *sql.DB, dialect Dialect, logger *logrus.Logger) *DatabaseManager {
	return &DatabaseManager{
		db:            db,
		dialect:       dialect,
		healthChecker: NewHealthChecker(db, 30*time.Second, logger),
		logger:        logger,
	}
}

// GetDB returns the underlying database connection
func (dm *DatabaseManager) GetDB() *sql.DB {
	return dm.db
}

// Dialect returns the SQL dialect in use
func (dm *DatabaseManager) Dialect() Dialect {
	return dm.dialect
}

// Close closes the database connection and stops health checking
func (dm *DatabaseManager) Close() error {
	if dm.healthChecker != nil {
		dm.healthChecker.Stop()
	}
	if dm.db != nil {
		return dm.db.Close()
	}
	return nil
}

// QueryWithHealthCheck executes a query with connection health verification
func (dm *DatabaseManager) QueryWithHealthCheck(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return nil, err
	}

	return dm.db.QueryContext(ctx, dm.rebind(query), args...)
}

// QueryRowWithHealthCheck executes a query that returns a single row with health check.
// A failed health check is logged; the row then carries the driver error.
func (dm *DatabaseManager) QueryRowWithHealthCheck(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		dm.logger.WithError(err).Warn("❌ Query issued on unhealthy connection")
	}

	return dm.db.QueryRowContext(ctx, dm.rebind(query), args...)
}

// ExecWithHealthCheck executes a statement with connection health verification
func (dm *DatabaseManager) ExecWithHealthCheck(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return nil, err
	}

	return dm.db.ExecContext(ctx, dm.rebind(query), args...)
}

// IsConnectionHealthy returns the current health status
func (dm *DatabaseManager) IsConnectionHealthy() bool {
	return dm.healthChecker.IsHealthy()
}

// Init initializes the database with migrations
func (dm *DatabaseManager) Init() error {
	dm.logger.Info("Running database migrations...")

	runner, err := NewMigrationsRunner(dm.db, dm.dialect, dm.logger)
	if err != nil {
		return fmt.Errorf("failed to create migration runner: %w", err)
	}

	if err := runner.Run(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	dm.logger.Info("✓ Database initialization completed successfully")
	return nil
}

// withTx runs fn inside a transaction. Statements issued through tx must be
// passed through rebind by the caller.
func (dm *DatabaseManager) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return err
	}

	tx, err := dm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			dm.logger.WithError(rbErr).Error("❌ Rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// rebind rewrites '?' placeholders to the '$n' form PostgreSQL expects
func (dm *DatabaseManager) rebind(query string) string {
	if dm.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// isUniqueViolation reports whether err comes from a unique constraint
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	return false
}

// connectDatabase establishes a connection to the configured database
func connectDatabase(cfg Config) (*sql.DB, Dialect, error) {
	switch Dialect(cfg.Driver) {
	case DialectPostgres:
		db, err := connectPostgres(cfg)
		return db, DialectPostgres, err
	case DialectSQLite, "sqlite", "":
		db, err := connectSQLite(cfg.Path)
		return db, DialectSQLite, err
	default:
		return nil, "", fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func connectSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = "fieldmaestro.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=1&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)
	db, err := sql.Open(string(DialectSQLite), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite serialises writers; one connection keeps transactions simple
	db.SetMaxOpenConns(1)

	return db, nil
}

func connectPostgres(cfg Config) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sql.Open(string(DialectPostgres), connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}
