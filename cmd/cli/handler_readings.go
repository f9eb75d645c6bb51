package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sguter90/fieldmaestro/pkg/database"
	"github.com/sguter90/fieldmaestro/pkg/models"
)

// IngestResponse is returned for a stored reading
type IngestResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ingestReadingHandler stores one value for a sensor and evaluates its
// thresholds. Body: {"value": 21.5, "timestamp": "...", "raw": "..."}
func (rm *RouteManager) ingestReadingHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sensor")
	if !ok {
		return
	}

	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ts, err := req.Validate()
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	result, err := rm.services.Ingest.Ingest(r.Context(), id, *req.Value, ts, req.Raw)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, sensorNotFound(id))
		return
	}
	if err != nil {
		rm.logger.WithError(err).WithField("sensor_id", id).Error("❌ Failed to ingest data")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to ingest data: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		ID:      result.Reading.ID.String(),
		Status:  "success",
		Message: "Data ingested successfully.",
	})
}

// getSensorDataHandler returns the history of a sensor, newest first
// Query params:
//   - from: start time (ISO-8601)
//   - to: end time (ISO-8601)
//   - limit: max number of results (default: 100, max: 1000)
func (rm *RouteManager) getSensorDataHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sensor")
	if !ok {
		return
	}

	params, err := parseReadingQueryParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	params.SensorID = id

	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := rm.dbManager.GetSensor(r.Context(), id); err != nil {
		rm.writeStoreError(w, err, sensorNotFound(id), "query sensor")
		return
	}

	readings, err := rm.dbManager.GetSensorReadings(r.Context(), params)
	if err != nil {
		rm.writeStoreError(w, err, "", "query readings")
		return
	}

	writeJSON(w, http.StatusOK, readings)
}

// parseReadingQueryParams extracts and parses query parameters from the request
func parseReadingQueryParams(r *http.Request) (models.ReadingQueryParams, error) {
	params := models.ReadingQueryParams{}

	limit, err := queryInt(r, "limit", models.DefaultReadingLimit)
	if err != nil {
		return params, err
	}
	params.Limit = limit

	if params.From, err = queryTime(r, "from"); err != nil {
		return params, err
	}
	if params.To, err = queryTime(r, "to"); err != nil {
		return params, err
	}

	return params, nil
}

// queryTime parses an optional ISO-8601 query parameter
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := models.ParseTimestamp(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid '%s': %w", name, err)
	}
	return &t, nil
}
