package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"starbrowse/internal/notify"
)

// ListFolders returns all registered folders.
func (h *Handlers) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.db.GetFolders(r.Context(), false)
	if err != nil {
		notify.HandleError(h.hub, h.status, "folder list", err)
		writeError(w, http.StatusInternalServerError, "failed to list folders")
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

type addFolderRequest struct {
	Path string `json:"path"`
}

// AddFolder registers a folder for scanning. The path must exist and be a
// directory.
func (h *Handlers) AddFolder(w http.ResponseWriter, r *http.Request) {
	var req addFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "request body must be {\"path\": \"...\"}")
		return
	}

	info, err := os.Stat(req.Path)
	if err != nil || !info.IsDir() {
		writeError(w, http.StatusBadRequest, "path is not an accessible directory")
		return
	}

	folder, err := h.db.AddFolder(r.Context(), req.Path)
	if err != nil {
		notify.HandleError(h.hub, h.status, "folder registration", err)
		writeError(w, http.StatusInternalServerError, "failed to add folder")
		return
	}

	h.hub.Info("Folder added", folder.Path)
	writeJSON(w, http.StatusCreated, folder)
}

// RemoveFolder deletes a folder and all of its cataloged images.
func (h *Handlers) RemoveFolder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid folder id")
		return
	}

	if err := h.db.RemoveFolder(r.Context(), id); err != nil {
		notify.HandleError(h.hub, h.status, "folder removal", err)
		writeError(w, http.StatusInternalServerError, "failed to remove folder")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
