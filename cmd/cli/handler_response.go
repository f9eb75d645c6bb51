package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sguter90/fieldmaestro/pkg/database"
	"github.com/sguter90/fieldmaestro/pkg/models"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeBadRequest reports validation errors with their fields
func writeBadRequest(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Fields: verr.Fields})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// pathID parses the {id} route variable
func pathID(w http.ResponseWriter, r *http.Request, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+entity+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt parses an integer query parameter, returning def when absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return v, nil
}

// writeStoreError maps persistence errors onto status codes
func (rm *RouteManager) writeStoreError(w http.ResponseWriter, err error, notFound, action string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeBadRequest(w, err)
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, database.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		rm.logger.WithError(err).Errorf("❌ Failed to %s", action)
		writeError(w, http.StatusInternalServerError, "Failed to "+action+": "+err.Error())
	}
}
