package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/database"
	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sguter90/fieldmaestro/pkg/threshold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func setupService(t *testing.T, listeners ...Listener) (*Service, *database.DatabaseManager, *models.Sensor) {
	t.Helper()

	dm := database.NewTestDatabaseManager(t)
	ctx := context.Background()

	parcel, err := dm.CreateParcel(ctx, models.ParcelInput{Name: "Greenhouse A", Location: "Sector G-01"})
	require.NoError(t, err)

	sensor, err := dm.CreateSensor(ctx, parcel.ID, models.SensorInput{
		Type:          models.SensorTypeTemperature,
		Unit:          "°C",
		ThresholdLow:  floatPtr(20),
		ThresholdHigh: floatPtr(80),
	})
	require.NoError(t, err)

	return NewService(dm, database.NewTestLogger(), listeners...), dm, sensor
}

func TestIngest_HighBreachCreatesAlert(t *testing.T) {
	svc, dm, sensor := setupService(t)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, sensor.ID, 85, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Alert)

	assert.Equal(t, threshold.TypeHigh, res.Alert.Type)
	assert.Equal(t, "Value 85.0 exceeded high threshold 80.0", res.Alert.Message)
	assert.False(t, res.Alert.Acknowledged)
	assert.Equal(t, res.Reading.Timestamp, res.Alert.Timestamp)

	alerts, err := dm.GetUnacknowledgedAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, res.Alert.ID, alerts[0].ID)

	readings, err := dm.GetSensorReadings(ctx, models.ReadingQueryParams{SensorID: sensor.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 85.0, readings[0].Value)
}

func TestIngest_LowBreachAndNormalValue(t *testing.T) {
	svc, dm, sensor := setupService(t)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, sensor.ID, 10, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Alert)
	assert.Equal(t, threshold.TypeLow, res.Alert.Type)
	assert.Equal(t, "Value 10.0 dropped below low threshold 20.0", res.Alert.Message)

	res, err = svc.Ingest(ctx, sensor.ID, 50, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Alert)

	alerts, err := dm.GetUnacknowledgedAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestIngest_TimestampAndRaw(t *testing.T) {
	svc, _, sensor := setupService(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	res, err := svc.Ingest(context.Background(), sensor.ID, 25, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, fixed, res.Reading.Timestamp)
	assert.Nil(t, res.Reading.Raw)

	zone := time.FixedZone("CEST", 2*60*60)
	given := time.Date(2024, 5, 2, 14, 0, 0, 0, zone)
	raw := "MAIoTA_TEMPERATURE"

	res, err = svc.Ingest(context.Background(), sensor.ID, 25, &given, &raw)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, res.Reading.Timestamp.Location())
	assert.True(t, given.Equal(res.Reading.Timestamp))
	require.NotNil(t, res.Reading.Raw)
	assert.Equal(t, raw, *res.Reading.Raw)
}

func TestIngest_UnknownSensor(t *testing.T) {
	var called bool
	svc, dm, _ := setupService(t, ListenerFunc(func(ctx context.Context, event Event) {
		called = true
	}))
	ctx := context.Background()

	_, err := svc.Ingest(ctx, uuid.New(), 85, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrNotFound))
	assert.False(t, called)

	stats, err := dm.GetSystemStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ActiveAlertsCount)
}

func TestIngest_ListenersInRegistrationOrder(t *testing.T) {
	var order []string
	first := ListenerFunc(func(ctx context.Context, event Event) {
		order = append(order, "first")
		assert.NotNil(t, event.Alert)
		assert.Equal(t, models.SensorTypeTemperature, event.Sensor.Type)
	})
	second := ListenerFunc(func(ctx context.Context, event Event) {
		order = append(order, "second")
	})

	svc, _, sensor := setupService(t, first, second)

	_, err := svc.Ingest(context.Background(), sensor.ID, 90, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

type failingStore struct {
	sensor *models.Sensor
}

func (f *failingStore) GetSensor(ctx context.Context, id uuid.UUID) (*models.Sensor, error) {
	return f.sensor, nil
}

func (f *failingStore) StoreReadingWithAlert(ctx context.Context, reading *models.SensorReading, alert *models.Alert) error {
	return errors.New("disk full")
}

func TestIngest_StorageFailure(t *testing.T) {
	store := &failingStore{sensor: &models.Sensor{ID: uuid.New(), Type: models.SensorTypeCO2}}
	svc := NewService(store, database.NewTestLogger())

	_, err := svc.Ingest(context.Background(), store.sensor.ID, 400, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, errors.Is(err, database.ErrNotFound))
}
