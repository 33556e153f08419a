package handlers

import (
	"context"
	"net/http"

	"starbrowse/internal/database"
	"starbrowse/internal/notify"
	"starbrowse/internal/scanner"
)

// StatusResponse summarizes the catalog and scanner state.
type StatusResponse struct {
	Scanner    scanner.Status        `json:"scanner"`
	Catalog    database.CatalogStats `json:"catalog"`
	StatusLine string                `json:"statusLine,omitempty"`
	Severity   notify.Severity       `json:"statusSeverity,omitempty"`
}

// Status returns catalog statistics and the scanner's state.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.CalculateStats(r.Context())
	if err != nil {
		notify.HandleError(h.hub, h.status, "status query", err)
		writeError(w, http.StatusInternalServerError, "failed to read catalog statistics")
		return
	}

	message, severity := h.status.Get()
	writeJSON(w, http.StatusOK, StatusResponse{
		Scanner:    h.scanner.Status(),
		Catalog:    stats,
		StatusLine: message,
		Severity:   severity,
	})
}

// TriggerScan starts a scan pass immediately. Returns 409 when a pass is
// already running.
func (h *Handlers) TriggerScan(w http.ResponseWriter, _ *http.Request) {
	if h.scanner.Status().Scanning {
		writeError(w, http.StatusConflict, "a scan is already in progress")
		return
	}

	// The pass outlives the request, so it gets its own context.
	go func() {
		if err := h.scanner.ScanNow(context.Background()); err != nil {
			notify.HandleError(h.hub, h.status, "manual scan", err)
		}
	}()

	h.status.Set("Scan requested", notify.SeverityInfo, notify.DefaultStatusTimeout)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scan started"})
}

// Events returns the most recent notification events, oldest first.
func (h *Handlers) Events(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.History())
}
