package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sguter90/fieldmaestro/pkg/models"
)

func parcelNotFound(id fmt.Stringer) string {
	return fmt.Sprintf("Parcel with ID %s not found.", id)
}

// getParcelsHandler returns all parcels
func (rm *RouteManager) getParcelsHandler(w http.ResponseWriter, r *http.Request) {
	parcels, err := rm.dbManager.GetParcels(r.Context())
	if err != nil {
		rm.writeStoreError(w, err, "", "query parcels")
		return
	}

	writeJSON(w, http.StatusOK, parcels)
}

// getParcelHandler returns a single parcel by ID
func (rm *RouteManager) getParcelHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "parcel")
	if !ok {
		return
	}

	parcel, err := rm.dbManager.GetParcel(r.Context(), id)
	if err != nil {
		rm.writeStoreError(w, err, parcelNotFound(id), "query parcel")
		return
	}

	writeJSON(w, http.StatusOK, parcel)
}

// getParcelSensorsHandler returns the sensors of a parcel
func (rm *RouteManager) getParcelSensorsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "parcel")
	if !ok {
		return
	}

	sensors, err := rm.dbManager.GetSensorsByParcel(r.Context(), id)
	if err != nil {
		rm.writeStoreError(w, err, parcelNotFound(id), "query sensors")
		return
	}

	writeJSON(w, http.StatusOK, sensors)
}

func (rm *RouteManager) createParcelHandler(w http.ResponseWriter, r *http.Request) {
	var input models.ParcelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	parcel, err := rm.dbManager.CreateParcel(r.Context(), input)
	if err != nil {
		rm.writeStoreError(w, err, "", "create parcel")
		return
	}

	rm.logger.WithField("parcel_id", parcel.ID).Infof("✓ Parcel '%s' created", parcel.Name)
	writeJSON(w, http.StatusCreated, parcel)
}

func (rm *RouteManager) updateParcelHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "parcel")
	if !ok {
		return
	}

	var input models.ParcelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	parcel, err := rm.dbManager.UpdateParcel(r.Context(), id, input)
	if err != nil {
		rm.writeStoreError(w, err, parcelNotFound(id), "update parcel")
		return
	}

	writeJSON(w, http.StatusOK, parcel)
}

func (rm *RouteManager) deleteParcelHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "parcel")
	if !ok {
		return
	}

	if err := rm.dbManager.DeleteParcel(r.Context(), id); err != nil {
		rm.writeStoreError(w, err, parcelNotFound(id), "delete parcel")
		return
	}

	rm.logger.WithField("parcel_id", id).Info("✓ Parcel deleted")
	w.WriteHeader(http.StatusNoContent)
}
