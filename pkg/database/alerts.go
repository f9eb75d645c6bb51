package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
)

// GetFilteredAlerts returns alerts matching the filters, newest first, with
// their sensor and parcel context. A zero limit returns every match.
func (dm *DatabaseManager) GetFilteredAlerts(ctx context.Context, params models.AlertQueryParams) ([]models.AlertWithContext, error) {
	query := `
        SELECT a.id, a.sensor_id, a.timestamp, a.type, a.message, a.acknowledged,
            s.description, s.type, p.name
        FROM alerts a
        LEFT JOIN sensors s ON a.sensor_id = s.id
        LEFT JOIN parcels p ON s.parcel_id = p.id
        WHERE 1=1
    `
	args := []interface{}{}

	if params.SensorID != nil && *params.SensorID != uuid.Nil {
		query += " AND a.sensor_id = ?"
		args = append(args, *params.SensorID)
	}
	if params.Type != "" {
		query += " AND a.type = ?"
		args = append(args, params.Type)
	}
	if params.From != nil {
		query += " AND a.timestamp >= ?"
		args = append(args, params.From.UTC())
	}
	if params.To != nil {
		query += " AND a.timestamp <= ?"
		args = append(args, params.To.UTC())
	}
	if params.Acknowledged != nil {
		query += " AND a.acknowledged = ?"
		args = append(args, *params.Acknowledged)
	}

	query += " ORDER BY a.timestamp DESC, a.id DESC"
	if params.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, params.Limit)
	}

	rows, err := dm.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.AlertWithContext{}
	for rows.Next() {
		var a models.AlertWithContext
		err := rows.Scan(
			&a.ID, &a.SensorID, &a.Timestamp, &a.Type, &a.Message, &a.Acknowledged,
			&a.SensorDescription, &a.SensorType, &a.ParcelName,
		)
		if err != nil {
			dm.logger.WithError(err).Warn("❌ Failed to scan alert")
			continue
		}
		a.Timestamp = a.Timestamp.UTC()
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// GetUnacknowledgedAlerts returns every open alert, newest first
func (dm *DatabaseManager) GetUnacknowledgedAlerts(ctx context.Context) ([]models.AlertWithContext, error) {
	acknowledged := false
	return dm.GetFilteredAlerts(ctx, models.AlertQueryParams{Acknowledged: &acknowledged})
}

// GetAlert returns one alert or ErrNotFound
func (dm *DatabaseManager) GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	query := `SELECT id, sensor_id, timestamp, type, message, acknowledged FROM alerts WHERE id = ?`

	var a models.Alert
	err := dm.QueryRowWithHealthCheck(ctx, query, id).
		Scan(&a.ID, &a.SensorID, &a.Timestamp, &a.Type, &a.Message, &a.Acknowledged)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query alert: %w", err)
	}
	a.Timestamp = a.Timestamp.UTC()

	return &a, nil
}

// AcknowledgeAlert marks an alert as acknowledged. Acknowledging twice is a
// no-op; an unknown alert yields ErrNotFound.
func (dm *DatabaseManager) AcknowledgeAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	if _, err := dm.ExecWithHealthCheck(ctx, `UPDATE alerts SET acknowledged = ? WHERE id = ?`, true, id); err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	return dm.GetAlert(ctx, id)
}
