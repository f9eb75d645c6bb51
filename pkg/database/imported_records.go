package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
)

// InsertRecordsBatch stores records in one transaction and returns how many
// were written. Callers validate records first.
func (dm *DatabaseManager) InsertRecordsBatch(ctx context.Context, records []models.ImportedRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query := dm.rebind(`
        INSERT INTO imported_records (id, source_key, data_type, value_str, value_num, category, timestamp, metadata)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `)

	inserted := 0
	err := dm.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := range records {
			r := &records[i]
			if r.ID == uuid.Nil {
				r.ID = uuid.New()
			}
			if r.Timestamp.IsZero() {
				r.Timestamp = time.Now()
			}
			r.Timestamp = r.Timestamp.UTC()

			_, err := stmt.ExecContext(ctx, r.ID, r.SourceKey, r.DataType, r.ValueStr, r.ValueNum, r.Category, r.Timestamp, r.Metadata)
			if err != nil {
				return fmt.Errorf("failed to insert record %s: %w", r.SourceKey, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

func recordSearchClause(search string) (string, []interface{}) {
	if search == "" {
		return "", nil
	}
	pattern := "%" + search + "%"
	return " WHERE LOWER(source_key) LIKE LOWER(?) OR LOWER(category) LIKE LOWER(?)", []interface{}{pattern, pattern}
}

// FetchRecords returns one page of imported records, newest first
func (dm *DatabaseManager) FetchRecords(ctx context.Context, params models.RecordQueryParams) ([]models.ImportedRecord, error) {
	where, args := recordSearchClause(params.Search)
	query := `
        SELECT id, source_key, data_type, value_str, value_num, category, timestamp, metadata
        FROM imported_records` + where + `
        ORDER BY timestamp DESC, id DESC
        LIMIT ? OFFSET ?
    `
	args = append(args, params.PageSize, params.Offset())

	rows, err := dm.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []models.ImportedRecord{}
	for rows.Next() {
		var r models.ImportedRecord
		err := rows.Scan(&r.ID, &r.SourceKey, &r.DataType, &r.ValueStr, &r.ValueNum, &r.Category, &r.Timestamp, &r.Metadata)
		if err != nil {
			dm.logger.WithError(err).Warn("❌ Failed to scan record")
			continue
		}
		r.Timestamp = r.Timestamp.UTC()
		records = append(records, r)
	}

	return records, rows.Err()
}

// CountRecords returns the number of imported records matching search
func (dm *DatabaseManager) CountRecords(ctx context.Context, search string) (int, error) {
	where, args := recordSearchClause(search)

	var count int
	if err := dm.QueryRowWithHealthCheck(ctx, `SELECT COUNT(*) FROM imported_records`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// CheckStatus reports storage connectivity and the imported record count.
// It never fails; problems show up as false flags.
func (dm *DatabaseManager) CheckStatus(ctx context.Context) models.SystemStatus {
	status := models.SystemStatus{LastCheck: time.Now().UTC()}

	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		dm.logger.WithError(err).Warn("❌ Status check failed")
		return status
	}
	status.Connected = true

	var existsQuery string
	if dm.dialect == DialectPostgres {
		existsQuery = `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?`
	} else {
		existsQuery = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	}

	var tables int
	if err := dm.QueryRowWithHealthCheck(ctx, existsQuery, "imported_records").Scan(&tables); err != nil || tables == 0 {
		return status
	}
	status.TableExists = true

	count, err := dm.CountRecords(ctx, "")
	if err != nil {
		dm.logger.WithError(err).Warn("❌ Status check failed")
		return status
	}
	status.RecordCount = count

	return status
}
