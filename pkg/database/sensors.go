package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
)

const sensorColumns = `s.id, s.parcel_id, s.type, s.unit, s.description, s.threshold_low, s.threshold_high`

func scanSensor(scanner interface{ Scan(...interface{}) error }, s *models.Sensor) error {
	return scanner.Scan(&s.ID, &s.ParcelID, &s.Type, &s.Unit, &s.Description, &s.ThresholdLow, &s.ThresholdHigh)
}

// CreateSensor creates a new sensor on a parcel
func (dm *DatabaseManager) CreateSensor(ctx context.Context, parcelID uuid.UUID, input models.SensorInput) (*models.Sensor, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if _, err := dm.GetParcel(ctx, parcelID); err != nil {
		return nil, err
	}

	sensor := models.Sensor{
		ID:            uuid.New(),
		ParcelID:      parcelID,
		Type:          input.Type,
		Unit:          input.Unit,
		Description:   input.Description,
		ThresholdLow:  input.ThresholdLow,
		ThresholdHigh: input.ThresholdHigh,
	}

	query := `
        INSERT INTO sensors (id, parcel_id, type, unit, description, threshold_low, threshold_high)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `

	_, err := dm.ExecWithHealthCheck(ctx, query,
		sensor.ID,
		sensor.ParcelID,
		sensor.Type,
		sensor.Unit,
		sensor.Description,
		sensor.ThresholdLow,
		sensor.ThresholdHigh,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sensor: %w", err)
	}

	return &sensor, nil
}

// GetSensor returns one sensor or ErrNotFound
func (dm *DatabaseManager) GetSensor(ctx context.Context, id uuid.UUID) (*models.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors s WHERE s.id = ?`

	var sensor models.Sensor
	err := scanSensor(dm.QueryRowWithHealthCheck(ctx, query, id), &sensor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sensor %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor: %w", err)
	}

	return &sensor, nil
}

// GetSensors returns every sensor
func (dm *DatabaseManager) GetSensors(ctx context.Context) ([]models.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors s ORDER BY s.parcel_id, s.type, s.id`
	return dm.querySensors(ctx, query)
}

// GetSensorsByParcel returns the sensors of a parcel or ErrNotFound for an
// unknown parcel. A known parcel without sensors yields an empty list.
func (dm *DatabaseManager) GetSensorsByParcel(ctx context.Context, parcelID uuid.UUID) ([]models.Sensor, error) {
	if _, err := dm.GetParcel(ctx, parcelID); err != nil {
		return nil, err
	}

	query := `SELECT ` + sensorColumns + ` FROM sensors s WHERE s.parcel_id = ? ORDER BY s.type, s.id`
	return dm.querySensors(ctx, query, parcelID)
}

func (dm *DatabaseManager) querySensors(ctx context.Context, query string, args ...interface{}) ([]models.Sensor, error) {
	rows, err := dm.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensors: %w", err)
	}
	defer rows.Close()

	sensors := []models.Sensor{}
	for rows.Next() {
		var s models.Sensor
		if err := scanSensor(rows, &s); err != nil {
			dm.logger.WithError(err).Warn("❌ Failed to scan sensor")
			continue
		}
		sensors = append(sensors, s)
	}

	return sensors, rows.Err()
}

// UpdateSensor replaces the writable fields of a sensor
func (dm *DatabaseManager) UpdateSensor(ctx context.Context, id uuid.UUID, input models.SensorInput) (*models.Sensor, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	query := `
        UPDATE sensors
        SET type = ?, unit = ?, description = ?, threshold_low = ?, threshold_high = ?
        WHERE id = ?
    `

	res, err := dm.ExecWithHealthCheck(ctx, query,
		input.Type,
		input.Unit,
		input.Description,
		input.ThresholdLow,
		input.ThresholdHigh,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update sensor: %w", err)
	}
	if err := expectAffected(res, "sensor", id); err != nil {
		return nil, err
	}

	return dm.GetSensor(ctx, id)
}

// DeleteSensor removes a sensor together with its readings and alerts
func (dm *DatabaseManager) DeleteSensor(ctx context.Context, id uuid.UUID) error {
	res, err := dm.ExecWithHealthCheck(ctx, `DELETE FROM sensors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sensor: %w", err)
	}
	return expectAffected(res, "sensor", id)
}

// GetSensorsWithLatestReading returns each sensor with its parcel name and newest reading
func (dm *DatabaseManager) GetSensorsWithLatestReading(ctx context.Context) ([]models.SensorWithLatestReading, error) {
	query := `
        SELECT ` + sensorColumns + `, p.name,
            sd.id, sd.value, sd.raw, sd.timestamp
        FROM sensors s
        JOIN parcels p ON p.id = s.parcel_id
        LEFT JOIN sensor_data sd ON sd.id = (
            SELECT id FROM sensor_data
            WHERE sensor_id = s.id
            ORDER BY timestamp DESC, id DESC
            LIMIT 1
        )
        ORDER BY p.name, s.type, s.id
    `

	rows, err := dm.QueryWithHealthCheck(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensors: %w", err)
	}
	defer rows.Close()

	sensors := []models.SensorWithLatestReading{}
	for rows.Next() {
		var swr models.SensorWithLatestReading
		var readingID *uuid.UUID
		var readingValue *float64
		var readingRaw *string
		var readingTimestamp *time.Time

		err := rows.Scan(
			&swr.Sensor.ID, &swr.Sensor.ParcelID, &swr.Sensor.Type, &swr.Sensor.Unit,
			&swr.Sensor.Description, &swr.Sensor.ThresholdLow, &swr.Sensor.ThresholdHigh,
			&swr.ParcelName,
			&readingID, &readingValue, &readingRaw, &readingTimestamp,
		)
		if err != nil {
			dm.logger.WithError(err).Warn("❌ Failed to scan sensor")
			continue
		}

		if readingID != nil && readingValue != nil && readingTimestamp != nil {
			swr.LatestReading = &models.SensorReading{
				ID:        *readingID,
				SensorID:  swr.Sensor.ID,
				Value:     *readingValue,
				Raw:       readingRaw,
				Timestamp: readingTimestamp.UTC(),
			}
		}

		sensors = append(sensors, swr)
	}

	return sensors, rows.Err()
}
