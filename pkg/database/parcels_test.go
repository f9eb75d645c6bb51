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

func floatPtr(v float64) *float64 {
	return &v
}

// createParcelWithSensor seeds one parcel with one temperature sensor (20..30)
func createParcelWithSensor(t *testing.T, dm *DatabaseManager) (*models.Parcel, *models.Sensor) {
	t.Helper()
	ctx := context.Background()

	parcel, err := dm.CreateParcel(ctx, models.ParcelInput{Name: "Greenhouse A", Location: "North"})
	require.NoError(t, err)

	sensor, err := dm.CreateSensor(ctx, parcel.ID, models.SensorInput{
		Type:          models.SensorTypeTemperature,
		Unit:          "°C",
		Description:   "Air temperature",
		ThresholdLow:  floatPtr(20),
		ThresholdHigh: floatPtr(30),
	})
	require.NoError(t, err)

	return parcel, sensor
}

func TestParcelCRUD(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	created, err := dm.CreateParcel(ctx, models.ParcelInput{Name: "Orchard", Location: "South"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	loaded, err := dm.GetParcel(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *loaded)

	updated, err := dm.UpdateParcel(ctx, created.ID, models.ParcelInput{Name: "Orchard 2", Location: "South-East"})
	require.NoError(t, err)
	assert.Equal(t, "Orchard 2", updated.Name)

	parcels, err := dm.GetParcels(ctx)
	require.NoError(t, err)
	require.Len(t, parcels, 1)
	assert.Equal(t, "South-East", parcels[0].Location)

	require.NoError(t, dm.DeleteParcel(ctx, created.ID))
	_, err = dm.GetParcel(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetParcels_CreationOrder(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	for _, name := range []string{"Zeta Field", "Alpha Field", "Mid Field"} {
		_, err := dm.CreateParcel(ctx, models.ParcelInput{Name: name, Location: "East"})
		require.NoError(t, err)
	}

	parcels, err := dm.GetParcels(ctx)
	require.NoError(t, err)
	require.Len(t, parcels, 3)
	assert.Equal(t, "Zeta Field", parcels[0].Name)
	assert.Equal(t, "Alpha Field", parcels[1].Name)
	assert.Equal(t, "Mid Field", parcels[2].Name)
}

func TestParcel_Validation(t *testing.T) {
	dm := setupTestDatabaseManager(t)

	_, err := dm.CreateParcel(context.Background(), models.ParcelInput{Name: "No location"})
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestParcel_UnknownID(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()
	id := uuid.New()

	_, err := dm.UpdateParcel(ctx, id, models.ParcelInput{Name: "x", Location: "y"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, dm.DeleteParcel(ctx, id), ErrNotFound)
}

func TestDeleteParcel_Cascades(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	parcel, sensor := createParcelWithSensor(t, dm)

	reading := &models.SensorReading{SensorID: sensor.ID, Value: 35, Timestamp: time.Now()}
	alert := &models.Alert{SensorID: sensor.ID, Timestamp: reading.Timestamp, Type: "THRESHOLD_HIGH", Message: "hot"}
	require.NoError(t, dm.StoreReadingWithAlert(ctx, reading, alert))

	require.NoError(t, dm.DeleteParcel(ctx, parcel.ID))

	_, err := dm.GetSensor(ctx, sensor.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int
	require.NoError(t, dm.GetDB().QueryRow(`SELECT COUNT(*) FROM sensor_data`).Scan(&count))
	assert.Equal(t, 0, count)
	require.NoError(t, dm.GetDB().QueryRow(`SELECT COUNT(*) FROM alerts`).Scan(&count))
	assert.Equal(t, 0, count)
}
