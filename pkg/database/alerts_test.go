package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAlert(t *testing.T, dm *DatabaseManager, sensorID uuid.UUID, typ string, ts time.Time) *models.Alert {
	t.Helper()
	alert := &models.Alert{SensorID: sensorID, Timestamp: ts, Type: typ, Message: typ + " alert"}
	reading := &models.SensorReading{SensorID: sensorID, Value: 0, Timestamp: ts}
	require.NoError(t, dm.StoreReadingWithAlert(context.Background(), reading, alert))
	return alert
}

func TestGetFilteredAlerts(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	_, sensor := createParcelWithSensor(t, dm)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	high := seedAlert(t, dm, sensor.ID, "THRESHOLD_HIGH", base)
	seedAlert(t, dm, sensor.ID, "THRESHOLD_LOW", base.Add(time.Hour))
	seedAlert(t, dm, sensor.ID, "THRESHOLD_HIGH", base.Add(2*time.Hour))

	all, err := dm.GetFilteredAlerts(ctx, models.AlertQueryParams{Limit: 100})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Timestamp.Equal(base.Add(2*time.Hour)), "newest first")
	require.NotNil(t, all[0].ParcelName)
	assert.Equal(t, "Greenhouse A", *all[0].ParcelName)
	require.NotNil(t, all[0].SensorType)
	assert.Equal(t, models.SensorTypeTemperature, *all[0].SensorType)

	highs, err := dm.GetFilteredAlerts(ctx, models.AlertQueryParams{Type: "THRESHOLD_HIGH", Limit: 100})
	require.NoError(t, err)
	assert.Len(t, highs, 2)

	from := base.Add(30 * time.Minute)
	to := base.Add(90 * time.Minute)
	ranged, err := dm.GetFilteredAlerts(ctx, models.AlertQueryParams{From: &from, To: &to, Limit: 100})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "THRESHOLD_LOW", ranged[0].Type)

	_, err = dm.AcknowledgeAlert(ctx, high.ID)
	require.NoError(t, err)

	acknowledged := true
	acked, err := dm.GetFilteredAlerts(ctx, models.AlertQueryParams{Acknowledged: &acknowledged, Limit: 100})
	require.NoError(t, err)
	require.Len(t, acked, 1)
	assert.Equal(t, high.ID, acked[0].ID)

	open, err := dm.GetUnacknowledgedAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	limited, err := dm.GetFilteredAlerts(ctx, models.AlertQueryParams{SensorID: &sensor.ID, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGetUnacknowledgedAlerts_NoLimit(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	_, sensor := createParcelWithSensor(t, dm)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	total := models.MaxReadingLimit + 5

	query := dm.rebind(`INSERT INTO alerts (id, sensor_id, timestamp, type, message, acknowledged) VALUES (?, ?, ?, ?, ?, ?)`)
	err := dm.withTx(ctx, func(tx *sql.Tx) error {
		for i := 0; i < total; i++ {
			_, err := tx.ExecContext(ctx, query, uuid.New(), sensor.ID, base.Add(time.Duration(i)*time.Second), "THRESHOLD_HIGH", "high", false)
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	open, err := dm.GetUnacknowledgedAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, open, total)

	summary, err := dm.GetDashboardSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, total, summary.Stats.ActiveAlertsCount)
	assert.Len(t, summary.ActiveAlerts, total)
}

func TestAcknowledgeAlert_Idempotent(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	_, sensor := createParcelWithSensor(t, dm)
	alert := seedAlert(t, dm, sensor.ID, "THRESHOLD_LOW", time.Now())

	first, err := dm.AcknowledgeAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, first.Acknowledged)

	second, err := dm.AcknowledgeAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAcknowledgeAlert_NotFound(t *testing.T) {
	dm := setupTestDatabaseManager(t)

	_, err := dm.AcknowledgeAlert(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreReadingWithAlert_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dm := newDatabaseManager(db, DialectSQLite, NewTestLogger())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO alerts").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sensor_data").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	reading := &models.SensorReading{SensorID: uuid.New(), Value: 99, Timestamp: time.Now()}
	alert := &models.Alert{SensorID: reading.SensorID, Timestamp: reading.Timestamp, Type: "THRESHOLD_HIGH", Message: "hot"}

	err = dm.StoreReadingWithAlert(context.Background(), reading, alert)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}
