package database

import (
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLoadMigrations(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	for _, dialect := range []Dialect{DialectSQLite, DialectPostgres} {
		runner, err := NewMigrationsRunner(db, dialect, NewTestLogger())
		if err != nil {
			t.Fatalf("Expected NewMigrationsRunner to succeed for %s: %v", dialect, err)
		}

		migrations := runner.Migrations()
		if len(migrations) == 0 {
			t.Fatalf("Expected at least one migration for %s", dialect)
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("Migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		first := migrations[0]
		if first.Version != 1 || first.Name != "init" {
			t.Errorf("Expected 000001_init, got %d_%s", first.Version, first.Name)
		}
		for _, table := range []string{"users", "parcels", "sensors", "sensor_data", "alerts", "imported_records"} {
			if !strings.Contains(first.SQL, "CREATE TABLE IF NOT EXISTS "+table+" ") {
				t.Errorf("Expected %s migration to create table %s", dialect, table)
			}
		}
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	dm := NewTestDatabaseManager(t)

	// Already migrated once by the helper
	if err := runMigrations(dm.db, dm.dialect); err != nil {
		t.Fatalf("Expected second run to succeed: %v", err)
	}

	var count int
	if err := dm.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 applied migration, got %d", count)
	}
}
