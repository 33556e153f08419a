package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"starbrowse/internal/database"
	"starbrowse/internal/logging"
	"starbrowse/internal/middleware"
	"starbrowse/internal/notify"
	"starbrowse/internal/scanner"
)

// Handlers holds the dependencies of the HTTP API.
type Handlers struct {
	db        *database.Database
	hub       *notify.Hub
	status    *notify.StatusLine
	scanner   *scanner.Scanner
	startTime time.Time
}

// New creates the HTTP API handlers.
func New(db *database.Database, hub *notify.Hub, status *notify.StatusLine, sc *scanner.Scanner) *Handlers {
	return &Handlers{
		db:        db,
		hub:       hub,
		status:    status,
		scanner:   sc,
		startTime: time.Now(),
	}
}

// Router builds the daemon's route table.
func (h *Handlers) Router(metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging(middleware.DefaultLoggingConfig()))
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/api/status", h.Status).Methods(http.MethodGet)
	r.HandleFunc("/api/scan", h.TriggerScan).Methods(http.MethodPost)
	r.HandleFunc("/api/search", h.Search).Methods(http.MethodGet)
	r.HandleFunc("/api/events", h.Events).Methods(http.MethodGet)
	r.HandleFunc("/api/folders", h.ListFolders).Methods(http.MethodGet)
	r.HandleFunc("/api/folders", h.AddFolder).Methods(http.MethodPost)
	r.HandleFunc("/api/folders/{id:[0-9]+}", h.RemoveFolder).Methods(http.MethodDelete)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	return r
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warn("failed to write response: %v", err)
	}
}

// errorResponse is the JSON body for error replies.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
