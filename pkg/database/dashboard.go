package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sguter90/fieldmaestro/pkg/threshold"
)

// SparklineLength is the number of history points attached to each sensor
const SparklineLength = 20

// GetSystemStats returns the dashboard counters
func (dm *DatabaseManager) GetSystemStats(ctx context.Context) (models.SystemStats, error) {
	var stats models.SystemStats

	counters := []struct {
		query string
		args  []interface{}
		dest  *int
	}{
		{`SELECT COUNT(*) FROM parcels`, nil, &stats.ParcelsCount},
		{`SELECT COUNT(*) FROM sensors`, nil, &stats.SensorsCount},
		{`SELECT COUNT(*) FROM alerts WHERE acknowledged = ?`, []interface{}{false}, &stats.ActiveAlertsCount},
	}

	for _, c := range counters {
		if err := dm.QueryRowWithHealthCheck(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return models.SystemStats{}, fmt.Errorf("failed to read system stats: %w", err)
		}
	}

	return stats, nil
}

// GetDashboardSummary assembles stats, latest readings and open alerts
func (dm *DatabaseManager) GetDashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	stats, err := dm.GetSystemStats(ctx)
	if err != nil {
		return nil, err
	}

	latest, err := dm.GetLatestReadings(ctx)
	if err != nil {
		return nil, err
	}

	alerts, err := dm.GetUnacknowledgedAlerts(ctx)
	if err != nil {
		return nil, err
	}

	return &models.DashboardSummary{
		Stats:          stats,
		LatestReadings: latest,
		ActiveAlerts:   alerts,
	}, nil
}

// GetParcelOverviews returns every parcel with its sensors, their current
// value, derived status and sparkline history
func (dm *DatabaseManager) GetParcelOverviews(ctx context.Context) ([]models.ParcelOverview, error) {
	parcels, err := dm.GetParcels(ctx)
	if err != nil {
		return nil, err
	}

	sensors, err := dm.GetSensorsWithLatestReading(ctx)
	if err != nil {
		return nil, err
	}

	history, err := dm.GetSensorHistoryBatch(ctx, SparklineLength)
	if err != nil {
		dm.logger.WithError(err).Warn("❌ Failed to load sensor history")
		history = map[uuid.UUID][]models.HistoryPoint{}
	}

	byParcel := make(map[uuid.UUID][]models.SensorOverview)
	for _, swr := range sensors {
		overview := models.SensorOverview{
			Sensor:  swr.Sensor,
			History: history[swr.Sensor.ID],
		}
		if overview.History == nil {
			overview.History = []models.HistoryPoint{}
		}
		if swr.LatestReading != nil {
			value := swr.LatestReading.Value
			ts := swr.LatestReading.Timestamp
			overview.CurrentValue = &value
			overview.LastUpdated = &ts
		}
		overview.Status = threshold.Status(swr.Sensor.Bounds(), overview.CurrentValue)

		byParcel[swr.Sensor.ParcelID] = append(byParcel[swr.Sensor.ParcelID], overview)
	}

	overviews := make([]models.ParcelOverview, 0, len(parcels))
	for _, p := range parcels {
		sensorList := byParcel[p.ID]
		if sensorList == nil {
			sensorList = []models.SensorOverview{}
		}
		overviews = append(overviews, models.ParcelOverview{Parcel: p, Sensors: sensorList})
	}

	return overviews, nil
}
