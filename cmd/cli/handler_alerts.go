package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
)

func alertNotFound(id uuid.UUID) string {
	return fmt.Sprintf("Alert with ID %s not found.", id)
}

// getAlertsHandler lists alerts, newest first
// Query params:
//   - sensor_id: only alerts of this sensor
//   - type: HIGH or LOW
//   - from, to: time window (ISO-8601)
//   - acknowledged: true or false
//   - limit: max number of results (default: 100, max: 1000)
func (rm *RouteManager) getAlertsHandler(w http.ResponseWriter, r *http.Request) {
	params, err := parseAlertQueryParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alerts, err := rm.dbManager.GetFilteredAlerts(r.Context(), params)
	if err != nil {
		rm.writeStoreError(w, err, "", "query alerts")
		return
	}

	writeJSON(w, http.StatusOK, alerts)
}

// acknowledgeAlertHandler marks an alert as seen. Repeating it is harmless.
func (rm *RouteManager) acknowledgeAlertHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "alert")
	if !ok {
		return
	}

	alert, err := rm.dbManager.AcknowledgeAlert(r.Context(), id)
	if err != nil {
		rm.writeStoreError(w, err, alertNotFound(id), "acknowledge alert")
		return
	}

	if user := GetUserFromContext(r.Context()); user != nil {
		rm.logger.WithField("alert_id", id).Infof("✅ Alert acknowledged by %s", user.Username)
	}

	writeJSON(w, http.StatusOK, alert)
}

func parseAlertQueryParams(r *http.Request) (models.AlertQueryParams, error) {
	q := r.URL.Query()
	params := models.AlertQueryParams{Type: q.Get("type")}

	limit, err := queryInt(r, "limit", models.DefaultReadingLimit)
	if err != nil {
		return params, err
	}
	params.Limit = limit

	if raw := q.Get("sensor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return params, fmt.Errorf("invalid 'sensor_id': %s", raw)
		}
		params.SensorID = &id
	}

	if raw := q.Get("acknowledged"); raw != "" {
		ack, err := strconv.ParseBool(raw)
		if err != nil {
			return params, fmt.Errorf("invalid 'acknowledged': %s", raw)
		}
		params.Acknowledged = &ack
	}

	if params.From, err = queryTime(r, "from"); err != nil {
		return params, err
	}
	if params.To, err = queryTime(r, "to"); err != nil {
		return params, err
	}

	return params, nil
}
