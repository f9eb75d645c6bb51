package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sguter90/fieldmaestro/pkg/database"
	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sirupsen/logrus"
)

// RouteManager handles all API routes
type RouteManager struct {
	dbManager      *database.DatabaseManager
	services       *Services
	jwtSecret      []byte
	allowedOrigins []string
	parcelMarker   string
	logger         *logrus.Logger
	Router         *mux.Router
}

// NewRouteManager creates a new RouteManager instance
func NewRouteManager(dbManager *database.DatabaseManager, services *Services, jwtSecret string, allowedOrigins []string, parcelMarker string, logger *logrus.Logger) *RouteManager {
	return &RouteManager{
		dbManager:      dbManager,
		services:       services,
		jwtSecret:      []byte(jwtSecret),
		allowedOrigins: allowedOrigins,
		parcelMarker:   parcelMarker,
		logger:         logger,
		Router:         mux.NewRouter(),
	}
}

// Setup configures all API routes
func (rm *RouteManager) Setup() {
	r := rm.Router
	r.Use(rm.corsMiddleware)
	r.Use(rm.loggingMiddleware)

	// Global OPTIONS handler - catches all preflight requests
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.HandleFunc("/health", rm.healthHandler).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	rm.setupAPIRoutes(api)
}

// setupAPIRoutes configures all API v1 routes
func (rm *RouteManager) setupAPIRoutes(api *mux.Router) {
	api.HandleFunc("/health", rm.healthHandler).Methods("GET")

	// Public auth endpoints (no auth required)
	api.HandleFunc("/auth/login", rm.handleLogin).Methods("POST")

	// Parcels
	api.HandleFunc("/parcels", rm.getParcelsHandler).Methods("GET")
	api.HandleFunc("/parcels/{id}", rm.getParcelHandler).Methods("GET")
	api.HandleFunc("/parcels/{id}/sensors", rm.getParcelSensorsHandler).Methods("GET")

	// Sensors
	api.HandleFunc("/sensors", rm.getSensorsHandler).Methods("GET")
	api.HandleFunc("/sensors/{id}", rm.getSensorHandler).Methods("GET")

	// Readings. Devices and the relay post without a token.
	api.HandleFunc("/sensors/{id}/data", rm.ingestReadingHandler).Methods("POST")
	api.HandleFunc("/sensors/{id}/data", rm.getSensorDataHandler).Methods("GET")
	api.HandleFunc("/frames/{format}", rm.frameHandler).Methods("POST")

	// Alerts
	api.HandleFunc("/alerts", rm.getAlertsHandler).Methods("GET")

	// Dashboard
	api.HandleFunc("/dashboard", rm.getDashboardHandler).Methods("GET")
	api.HandleFunc("/dashboard/parcels", rm.getParcelOverviewsHandler).Methods("GET")

	// Imported records
	api.HandleFunc("/records", rm.getRecordsHandler).Methods("GET")
	api.HandleFunc("/system/status", rm.getSystemStatusHandler).Methods("GET")

	// Live stream
	if rm.services != nil && rm.services.Hub != nil {
		api.HandleFunc("/ws", rm.services.Hub.Handler(rm.allowedOrigins)).Methods("GET")
	}

	// Protected endpoints (auth required)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(rm.JWTAuthMiddleware)

	protected.HandleFunc("/auth/me", rm.handleMe).Methods("GET")
	protected.HandleFunc("/auth/refresh", rm.handleRefreshToken).Methods("POST")
	protected.HandleFunc("/alerts/{id}/acknowledge", rm.acknowledgeAlertHandler).Methods("POST")

	// Management (admin and technical staff)
	manage := protected.PathPrefix("").Subrouter()
	manage.Use(requireRole(models.RoleAdmin, models.RoleTechnical))

	manage.HandleFunc("/parcels", rm.createParcelHandler).Methods("POST")
	manage.HandleFunc("/parcels/{id}", rm.updateParcelHandler).Methods("PUT")
	manage.HandleFunc("/parcels/{id}", rm.deleteParcelHandler).Methods("DELETE")
	manage.HandleFunc("/parcels/{id}/sensors", rm.createSensorHandler).Methods("POST")
	manage.HandleFunc("/sensors/{id}", rm.updateSensorHandler).Methods("PUT")
	manage.HandleFunc("/sensors/{id}", rm.deleteSensorHandler).Methods("DELETE")
	manage.HandleFunc("/records/import", rm.importRecordsHandler).Methods("POST")
}
