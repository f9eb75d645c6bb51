package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

//go:embed sql/sqlite/*.sql sql/postgres/*.sql
var migrationFiles embed.FS

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationsRunner handles database migrations
type MigrationsRunner struct {
	db         *sql.DB
	dialect    Dialect
	migrations []Migration
	logger     *logrus.Logger
}

// NewMigrationsRunner creates a new migration runner for the given dialect
func NewMigrationsRunner(db *sql.DB, dialect Dialect, logger *logrus.Logger) (*MigrationsRunner, error) {
	runner := &MigrationsRunner{
		db:         db,
		dialect:    dialect,
		migrations: []Migration{},
		logger:     logger,
	}

	if err := runner.loadMigrations(); err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	return runner, nil
}

// DisableLogging silences progress output, used by tests
func (r *MigrationsRunner) DisableLogging() {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	r.logger = quiet
}

// Migrations returns the loaded migrations in version order
func (r *MigrationsRunner) Migrations() []Migration {
	return r.migrations
}

func (r *MigrationsRunner) migrationDir() string {
	if r.dialect == DialectPostgres {
		return "sql/postgres"
	}
	return "sql/sqlite"
}

// loadMigrations loads all .up.sql files of the runner's dialect
func (r *MigrationsRunner) loadMigrations() error {
	dir := r.migrationDir()
	entries, err := migrationFiles.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migration directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filename := entry.Name()
		if !strings.HasSuffix(filename, ".up.sql") {
			continue
		}

		// 000001_name.up.sql
		parts := strings.SplitN(filename, "_", 2)
		if len(parts) < 2 {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(parts[0], "%d", &version); err != nil {
			r.logger.Warnf("Skipping invalid migration file: %s", filename)
			continue
		}

		content, err := migrationFiles.ReadFile(path.Join(dir, filename))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		r.migrations = append(r.migrations, Migration{
			Version: version,
			Name:    strings.TrimSuffix(parts[1], ".up.sql"),
			SQL:     string(content),
		})
	}

	sort.Slice(r.migrations, func(i, j int) bool {
		return r.migrations[i].Version < r.migrations[j].Version
	})

	return nil
}

// createMigrationsTable creates the schema_migrations table if it doesn't exist
func (r *MigrationsRunner) createMigrationsTable() error {
	query := `
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version INTEGER PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `
	_, err := r.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (r *MigrationsRunner) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := r.db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// Run executes all pending migrations, each in its own transaction
func (r *MigrationsRunner) Run() error {
	if err := r.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := r.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	pendingCount := 0
	for _, migration := range r.migrations {
		if !applied[migration.Version] {
			pendingCount++
		}
	}

	if pendingCount == 0 {
		r.logger.Info("No pending migrations")
		return nil
	}

	r.logger.Infof("Found %d pending migration(s)", pendingCount)

	insert := "INSERT INTO schema_migrations (version, name) VALUES (?, ?)"
	if r.dialect == DialectPostgres {
		insert = "INSERT INTO schema_migrations (version, name) VALUES ($1, $2)"
	}

	for _, migration := range r.migrations {
		if applied[migration.Version] {
			continue
		}

		r.logger.Infof("Applying migration %d: %s", migration.Version, migration.Name)

		tx, err := r.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.Exec(migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec(insert, migration.Version, migration.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		r.logger.Infof("✓ Successfully applied migration %d: %s", migration.Version, migration.Name)
	}

	r.logger.Info("All migrations completed successfully")
	return nil
}
