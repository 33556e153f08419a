package handlers

import (
	"net/http"
	"strconv"

	"starbrowse/internal/database"
	"starbrowse/internal/notify"
)

const defaultSearchLimit = 100

// SearchResponse contains full-text search results.
type SearchResponse struct {
	Query   string           `json:"query"`
	Count   int              `json:"count"`
	Results []database.Image `json:"results"`
}

// Search runs a full-text query over image descriptions.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	results, err := h.db.SearchDescriptions(r.Context(), query, limit)
	if err != nil {
		notify.HandleError(h.hub, h.status, "search", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		Count:   len(results),
		Results: results,
	})
}
