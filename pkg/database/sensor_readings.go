package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
)

const (
	insertReadingQuery = `INSERT INTO sensor_data (id, sensor_id, value, raw, timestamp) VALUES (?, ?, ?, ?, ?)`
	insertAlertQuery   = `INSERT INTO alerts (id, sensor_id, timestamp, type, message, acknowledged) VALUES (?, ?, ?, ?, ?, ?)`
)

// StoreReadingWithAlert persists the optional alert and then the reading in
// one transaction. Missing IDs are generated and timestamps forced to UTC.
func (dm *DatabaseManager) StoreReadingWithAlert(ctx context.Context, reading *models.SensorReading, alert *models.Alert) error {
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}
	reading.Timestamp = reading.Timestamp.UTC()

	if alert != nil {
		if alert.ID == uuid.Nil {
			alert.ID = uuid.New()
		}
		alert.Timestamp = alert.Timestamp.UTC()
	}

	return dm.withTx(ctx, func(tx *sql.Tx) error {
		if alert != nil {
			_, err := tx.ExecContext(ctx, dm.rebind(insertAlertQuery),
				alert.ID, alert.SensorID, alert.Timestamp, alert.Type, alert.Message, alert.Acknowledged)
			if err != nil {
				return fmt.Errorf("failed to create alert: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx, dm.rebind(insertReadingQuery),
			reading.ID, reading.SensorID, reading.Value, reading.Raw, reading.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to store reading: %w", err)
		}

		return nil
	})
}

// StoreSensorReading stores a single reading without threshold handling
func (dm *DatabaseManager) StoreSensorReading(ctx context.Context, reading *models.SensorReading) error {
	return dm.StoreReadingWithAlert(ctx, reading, nil)
}

// GetSensorReadings returns the history of one sensor, newest first
func (dm *DatabaseManager) GetSensorReadings(ctx context.Context, params models.ReadingQueryParams) ([]models.SensorReading, error) {
	query := `SELECT id, sensor_id, value, raw, timestamp FROM sensor_data WHERE sensor_id = ?`
	args := []interface{}{params.SensorID}

	if params.From != nil {
		query += " AND timestamp >= ?"
		args = append(args, params.From.UTC())
	}
	if params.To != nil {
		query += " AND timestamp <= ?"
		args = append(args, params.To.UTC())
	}

	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, params.Limit)

	rows, err := dm.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	readings := []models.SensorReading{}
	for rows.Next() {
		var r models.SensorReading
		if err := rows.Scan(&r.ID, &r.SensorID, &r.Value, &r.Raw, &r.Timestamp); err != nil {
			dm.logger.WithError(err).Warn("❌ Failed to scan reading")
			continue
		}
		r.Timestamp = r.Timestamp.UTC()
		readings = append(readings, r)
	}

	return readings, rows.Err()
}

// GetLatestReadings returns the most recent reading of every sensor. Sensors
// without readings are included with nil value and timestamp.
func (dm *DatabaseManager) GetLatestReadings(ctx context.Context) ([]models.LatestReading, error) {
	query := `
        SELECT s.id, s.type, s.parcel_id, s.unit, sd.value, sd.timestamp
        FROM sensors s
        LEFT JOIN sensor_data sd ON sd.id = (
            SELECT id FROM sensor_data
            WHERE sensor_id = s.id
            ORDER BY timestamp DESC, id DESC
            LIMIT 1
        )
        ORDER BY s.parcel_id, s.type, s.id
    `

	rows, err := dm.QueryWithHealthCheck(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest readings: %w", err)
	}
	defer rows.Close()

	latest := []models.LatestReading{}
	for rows.Next() {
		var lr models.LatestReading
		if err := rows.Scan(&lr.SensorID, &lr.Type, &lr.ParcelID, &lr.Unit, &lr.Value, &lr.Timestamp); err != nil {
			dm.logger.WithError(err).Warn("❌ Failed to scan latest reading")
			continue
		}
		if lr.Timestamp != nil {
			ts := lr.Timestamp.UTC()
			lr.Timestamp = &ts
		}
		latest = append(latest, lr)
	}

	return latest, rows.Err()
}

// GetSensorHistoryBatch returns up to limit recent points per sensor,
// oldest first, for sparklines
func (dm *DatabaseManager) GetSensorHistoryBatch(ctx context.Context, limit int) (map[uuid.UUID][]models.HistoryPoint, error) {
	query := `
        SELECT sd.sensor_id, sd.value, sd.timestamp
        FROM sensor_data sd
        JOIN (
            SELECT id, ROW_NUMBER() OVER (PARTITION BY sensor_id ORDER BY timestamp DESC, id DESC) AS rn
            FROM sensor_data
        ) ranked ON ranked.id = sd.id
        WHERE ranked.rn <= ?
        ORDER BY sd.sensor_id, sd.timestamp ASC
    `

	rows, err := dm.QueryWithHealthCheck(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor history: %w", err)
	}
	defer rows.Close()

	history := make(map[uuid.UUID][]models.HistoryPoint)
	for rows.Next() {
		var sensorID uuid.UUID
		var value float64
		var ts time.Time
		if err := rows.Scan(&sensorID, &value, &ts); err != nil {
			dm.logger.WithError(err).Warn("❌ Failed to scan history point")
			continue
		}
		history[sensorID] = append(history[sensorID], models.HistoryPoint{Value: value, Timestamp: ts.UTC()})
	}

	return history, rows.Err()
}
