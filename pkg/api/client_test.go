package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetParcelsAndSensors(t *testing.T) {
	parcelID := uuid.New()
	sensorID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/parcels":
			json.NewEncoder(w).Encode([]models.Parcel{{ID: parcelID, Name: "Greenhouse A", Location: "G-01"}})
		case "/api/v1/parcels/" + parcelID.String() + "/sensors":
			json.NewEncoder(w).Encode([]models.Sensor{{ID: sensorID, ParcelID: parcelID, Type: "co2", Unit: "ppm"}})
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	ctx := context.Background()

	parcels, err := client.GetParcels(ctx)
	require.NoError(t, err)
	require.Len(t, parcels, 1)
	assert.Equal(t, "Greenhouse A", parcels[0].Name)

	sensors, err := client.GetSensorsByParcel(ctx, parcelID)
	require.NoError(t, err)
	require.Len(t, sensors, 1)
	assert.Equal(t, sensorID, sensors[0].ID)

	_, err = client.GetSensorsByParcel(ctx, uuid.New())
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "API error (status 404): not found", err.Error())
}

func TestClient_PostReading(t *testing.T) {
	sensorID := uuid.New()
	readingID := uuid.New()

	var received models.IngestRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/sensors/"+sensorID.String()+"/data", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(IngestResponse{ID: readingID, Status: "success", Message: "Data ingested successfully."})
	}))
	defer server.Close()

	client := NewClient(server.URL, WithToken("secret"))
	resp, err := client.PostReading(context.Background(), sensorID, 26.03, "MAIoTA_TEMPERATURE")
	require.NoError(t, err)

	assert.Equal(t, readingID, resp.ID)
	require.NotNil(t, received.Value)
	assert.Equal(t, 26.03, *received.Value)
	require.NotNil(t, received.Raw)
	assert.Equal(t, "MAIoTA_TEMPERATURE", *received.Raw)
	assert.Nil(t, received.Timestamp)
}

func TestClient_PostReading_OnlyOKCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"status":"queued"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.PostReading(context.Background(), uuid.New(), 1, "")

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusAccepted, apiErr.StatusCode)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithTimeout(20*time.Millisecond))
	_, err := client.Health(context.Background())
	assert.Error(t, err)
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy","timestamp":"2024-05-01T12:00:00Z","database":"connected"}`))
	}))
	defer server.Close()

	health, err := NewClient(server.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "connected", health.Database)
}
