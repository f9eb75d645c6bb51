package main

import (
	"net/http"
	"time"
)

// healthHandler returns server health status
func (rm *RouteManager) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, database := "healthy", "connected"
	if !rm.dbManager.IsConnectionHealthy() {
		status, database = "degraded", "disconnected"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  database,
	})
}
