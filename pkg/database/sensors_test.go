package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSensor(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	parcel, sensor := createParcelWithSensor(t, dm)

	loaded, err := dm.GetSensor(ctx, sensor.ID)
	require.NoError(t, err)
	assert.Equal(t, parcel.ID, loaded.ParcelID)
	assert.Equal(t, models.SensorTypeTemperature, loaded.Type)
	require.NotNil(t, loaded.ThresholdLow)
	require.NotNil(t, loaded.ThresholdHigh)
	assert.Equal(t, 20.0, *loaded.ThresholdLow)
	assert.Equal(t, 30.0, *loaded.ThresholdHigh)
}

func TestCreateSensor_NullThresholds(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	parcel, _ := createParcelWithSensor(t, dm)
	sensor, err := dm.CreateSensor(ctx, parcel.ID, models.SensorInput{Type: models.SensorTypeLight, Unit: "Lux"})
	require.NoError(t, err)

	loaded, err := dm.GetSensor(ctx, sensor.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.ThresholdLow)
	assert.Nil(t, loaded.ThresholdHigh)
}

func TestCreateSensor_UnknownParcel(t *testing.T) {
	dm := setupTestDatabaseManager(t)

	_, err := dm.CreateSensor(context.Background(), uuid.New(), models.SensorInput{Type: models.SensorTypeCO2, Unit: "ppm"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSensor_InvertedBounds(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	parcel, _ := createParcelWithSensor(t, dm)

	_, err := dm.CreateSensor(context.Background(), parcel.ID, models.SensorInput{
		Type:          models.SensorTypeHumidity,
		Unit:          "%",
		ThresholdLow:  floatPtr(80),
		ThresholdHigh: floatPtr(20),
	})
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "threshold_low")
}

func TestGetSensorsByParcel(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	parcel, sensor := createParcelWithSensor(t, dm)

	sensors, err := dm.GetSensorsByParcel(ctx, parcel.ID)
	require.NoError(t, err)
	require.Len(t, sensors, 1)
	assert.Equal(t, sensor.ID, sensors[0].ID)

	empty, err := dm.CreateParcel(ctx, models.ParcelInput{Name: "Empty", Location: "Nowhere"})
	require.NoError(t, err)
	sensors, err = dm.GetSensorsByParcel(ctx, empty.ID)
	require.NoError(t, err)
	assert.NotNil(t, sensors)
	assert.Empty(t, sensors)

	_, err = dm.GetSensorsByParcel(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndDeleteSensor(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	_, sensor := createParcelWithSensor(t, dm)

	updated, err := dm.UpdateSensor(ctx, sensor.ID, models.SensorInput{
		Type:         models.SensorTypeTemperature,
		Unit:         "°C",
		Description:  "Moved to bench 2",
		ThresholdLow: floatPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "Moved to bench 2", updated.Description)
	assert.Nil(t, updated.ThresholdHigh)

	require.NoError(t, dm.DeleteSensor(ctx, sensor.ID))
	assert.ErrorIs(t, dm.DeleteSensor(ctx, sensor.ID), ErrNotFound)

	_, err = dm.UpdateSensor(ctx, sensor.ID, models.SensorInput{Type: models.SensorTypeTemperature, Unit: "°C"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSensorsWithLatestReading(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	parcel, sensor := createParcelWithSensor(t, dm)
	silent, err := dm.CreateSensor(ctx, parcel.ID, models.SensorInput{Type: models.SensorTypeNOx, Unit: "index"})
	require.NoError(t, err)

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, v := range []float64{21, 22, 23} {
		r := &models.SensorReading{SensorID: sensor.ID, Value: v, Timestamp: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, dm.StoreSensorReading(ctx, r))
	}

	list, err := dm.GetSensorsWithLatestReading(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	found := map[uuid.UUID]models.SensorWithLatestReading{}
	for _, swr := range list {
		found[swr.Sensor.ID] = swr
		assert.Equal(t, "Greenhouse A", swr.ParcelName)
	}

	require.NotNil(t, found[sensor.ID].LatestReading)
	assert.Equal(t, 23.0, found[sensor.ID].LatestReading.Value)
	assert.True(t, found[sensor.ID].LatestReading.Timestamp.Equal(base.Add(2*time.Minute)))
	assert.Nil(t, found[silent.ID].LatestReading)
}
