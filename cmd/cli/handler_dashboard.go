package main

import (
	"net/http"
)

func (rm *RouteManager) getDashboardHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := rm.dbManager.GetDashboardSummary(r.Context())
	if err != nil {
		rm.writeStoreError(w, err, "", "build dashboard")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// getParcelOverviewsHandler returns every parcel with its sensors' latest
// values and open alert counts
func (rm *RouteManager) getParcelOverviewsHandler(w http.ResponseWriter, r *http.Request) {
	overviews, err := rm.dbManager.GetParcelOverviews(r.Context())
	if err != nil {
		rm.writeStoreError(w, err, "", "query parcel overviews")
		return
	}

	writeJSON(w, http.StatusOK, overviews)
}
