package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sirupsen/logrus"
)

func sensorNotFound(id fmt.Stringer) string {
	return fmt.Sprintf("Sensor with ID %s not found.", id)
}

// getSensorsHandler returns every sensor with its parcel name and latest
// reading
func (rm *RouteManager) getSensorsHandler(w http.ResponseWriter, r *http.Request) {
	sensors, err := rm.dbManager.GetSensorsWithLatestReading(r.Context())
	if err != nil {
		rm.writeStoreError(w, err, "", "query sensors")
		return
	}

	writeJSON(w, http.StatusOK, sensors)
}

// getSensorHandler returns a single sensor by ID
func (rm *RouteManager) getSensorHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sensor")
	if !ok {
		return
	}

	sensor, err := rm.dbManager.GetSensor(r.Context(), id)
	if err != nil {
		rm.writeStoreError(w, err, sensorNotFound(id), "query sensor")
		return
	}

	writeJSON(w, http.StatusOK, sensor)
}

func (rm *RouteManager) createSensorHandler(w http.ResponseWriter, r *http.Request) {
	parcelID, ok := pathID(w, r, "parcel")
	if !ok {
		return
	}

	var input models.SensorInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sensor, err := rm.dbManager.CreateSensor(r.Context(), parcelID, input)
	if err != nil {
		rm.writeStoreError(w, err, parcelNotFound(parcelID), "create sensor")
		return
	}

	rm.logger.WithFields(logrus.Fields{
		"sensor_id": sensor.ID,
		"parcel_id": parcelID,
	}).Infof("✓ Sensor '%s' created", sensor.Type)
	writeJSON(w, http.StatusCreated, sensor)
}

func (rm *RouteManager) updateSensorHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sensor")
	if !ok {
		return
	}

	var input models.SensorInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sensor, err := rm.dbManager.UpdateSensor(r.Context(), id, input)
	if err != nil {
		rm.writeStoreError(w, err, sensorNotFound(id), "update sensor")
		return
	}

	writeJSON(w, http.StatusOK, sensor)
}

func (rm *RouteManager) deleteSensorHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sensor")
	if !ok {
		return
	}

	if err := rm.dbManager.DeleteSensor(r.Context(), id); err != nil {
		rm.writeStoreError(w, err, sensorNotFound(id), "delete sensor")
		return
	}

	rm.logger.WithField("sensor_id", id).Info("✓ Sensor deleted")
	w.WriteHeader(http.StatusNoContent)
}
