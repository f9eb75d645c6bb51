package database

import (
	"context"
	"testing"
	"time"

	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sguter90/fieldmaestro/pkg/threshold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDashboardSummary(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	_, sensor := createParcelWithSensor(t, dm)
	alert := seedAlert(t, dm, sensor.ID, threshold.TypeHigh, time.Now())
	seedAlert(t, dm, sensor.ID, threshold.TypeLow, time.Now())
	_, err := dm.AcknowledgeAlert(ctx, alert.ID)
	require.NoError(t, err)

	summary, err := dm.GetDashboardSummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, models.SystemStats{ParcelsCount: 1, SensorsCount: 1, ActiveAlertsCount: 1}, summary.Stats)
	assert.Len(t, summary.LatestReadings, 1)
	require.Len(t, summary.ActiveAlerts, 1)
	assert.Equal(t, threshold.TypeLow, summary.ActiveAlerts[0].Type)
}

func TestGetParcelOverviews(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	parcel, hot := createParcelWithSensor(t, dm)
	idle, err := dm.CreateSensor(ctx, parcel.ID, models.SensorInput{Type: models.SensorTypeLight, Unit: "Lux"})
	require.NoError(t, err)
	cold, err := dm.CreateSensor(ctx, parcel.ID, models.SensorInput{
		Type: models.SensorTypeSoilMoisture, Unit: "%", ThresholdLow: floatPtr(30),
	})
	require.NoError(t, err)
	empty, err := dm.CreateParcel(ctx, models.ParcelInput{Name: "Barren", Location: "West"})
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, dm.StoreSensorReading(ctx, &models.SensorReading{SensorID: hot.ID, Value: 45, Timestamp: now}))
	require.NoError(t, dm.StoreSensorReading(ctx, &models.SensorReading{SensorID: cold.ID, Value: 10, Timestamp: now}))

	overviews, err := dm.GetParcelOverviews(ctx)
	require.NoError(t, err)
	require.Len(t, overviews, 2)

	statuses := map[string]string{}
	for _, o := range overviews {
		if o.ID == empty.ID {
			assert.Empty(t, o.Sensors)
			continue
		}
		require.Len(t, o.Sensors, 3)
		for _, s := range o.Sensors {
			statuses[s.ID.String()] = s.Status
		}
	}

	assert.Equal(t, threshold.StatusCritical, statuses[hot.ID.String()])
	assert.Equal(t, threshold.StatusWarning, statuses[cold.ID.String()])
	assert.Equal(t, threshold.StatusInactive, statuses[idle.ID.String()])
}
