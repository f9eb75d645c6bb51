package database

import (
	"context"
	"testing"
	"time"

	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSensorReading_DefaultsAndRaw(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	_, sensor := createParcelWithSensor(t, dm)

	raw := "MAIoTA_TEMPERATURE"
	local := time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	reading := &models.SensorReading{SensorID: sensor.ID, Value: 24.5, Raw: &raw, Timestamp: local}
	require.NoError(t, dm.StoreSensorReading(ctx, reading))

	readings, err := dm.GetSensorReadings(ctx, models.ReadingQueryParams{SensorID: sensor.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, readings, 1)

	got := readings[0]
	assert.Equal(t, reading.ID, got.ID)
	assert.Equal(t, 24.5, got.Value)
	require.NotNil(t, got.Raw)
	assert.Equal(t, raw, *got.Raw)
	assert.True(t, got.Timestamp.Equal(local))
	assert.Equal(t, time.UTC, got.Timestamp.Location())
}

func TestGetSensorReadings_RangeOrderLimit(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	_, sensor := createParcelWithSensor(t, dm)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		r := &models.SensorReading{SensorID: sensor.ID, Value: float64(i), Timestamp: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, dm.StoreSensorReading(ctx, r))
	}

	all, err := dm.GetSensorReadings(ctx, models.ReadingQueryParams{SensorID: sensor.ID, Limit: 100})
	require.NoError(t, err)
	require.Len(t, all, 10)
	assert.Equal(t, 9.0, all[0].Value, "newest first")
	assert.Equal(t, 0.0, all[9].Value)

	limited, err := dm.GetSensorReadings(ctx, models.ReadingQueryParams{SensorID: sensor.ID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, limited, 3)
	assert.Equal(t, 7.0, limited[2].Value)

	from := base.Add(2 * time.Hour)
	to := base.Add(4 * time.Hour)
	ranged, err := dm.GetSensorReadings(ctx, models.ReadingQueryParams{SensorID: sensor.ID, From: &from, To: &to, Limit: 100})
	require.NoError(t, err)
	require.Len(t, ranged, 3)
	assert.Equal(t, 4.0, ranged[0].Value)
	assert.Equal(t, 2.0, ranged[2].Value)
}

func TestGetLatestReadings(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	parcel, sensor := createParcelWithSensor(t, dm)
	idle, err := dm.CreateSensor(ctx, parcel.ID, models.SensorInput{Type: models.SensorTypeCOV, Unit: "index"})
	require.NoError(t, err)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, dm.StoreSensorReading(ctx, &models.SensorReading{SensorID: sensor.ID, Value: 1, Timestamp: base}))
	require.NoError(t, dm.StoreSensorReading(ctx, &models.SensorReading{SensorID: sensor.ID, Value: 2, Timestamp: base.Add(time.Second)}))

	latest, err := dm.GetLatestReadings(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)

	for _, lr := range latest {
		switch lr.SensorID {
		case sensor.ID:
			require.NotNil(t, lr.Value)
			assert.Equal(t, 2.0, *lr.Value)
			assert.Equal(t, parcel.ID, lr.ParcelID)
			assert.Equal(t, "°C", lr.Unit)
		case idle.ID:
			assert.Nil(t, lr.Value)
			assert.Nil(t, lr.Timestamp)
		default:
			assert.Failf(t, "unexpected sensor", "sensor %s", lr.SensorID)
		}
	}
}

func TestGetSensorHistoryBatch(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	_, sensor := createParcelWithSensor(t, dm)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < SparklineLength+5; i++ {
		r := &models.SensorReading{SensorID: sensor.ID, Value: float64(i), Timestamp: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, dm.StoreSensorReading(ctx, r))
	}

	history, err := dm.GetSensorHistoryBatch(ctx, SparklineLength)
	require.NoError(t, err)

	points := history[sensor.ID]
	require.Len(t, points, SparklineLength)
	assert.Equal(t, 5.0, points[0].Value, "oldest of the most recent window first")
	assert.Equal(t, float64(SparklineLength+4), points[len(points)-1].Value)
}
