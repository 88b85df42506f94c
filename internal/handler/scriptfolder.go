package handler

import (
	"log/slog"
	"net/http"

	sfSvc "autohub/internal/domain/services/scriptfolder"
	"autohub/internal/httputil"
)

// ScriptFolderHandler handles the flat script collections (developer-only)
type ScriptFolderHandler struct {
	folderService sfSvc.FolderService
	logger        *slog.Logger
}

// NewScriptFolderHandler creates a new script folder handler
func NewScriptFolderHandler(folderService sfSvc.FolderService, logger *slog.Logger) *ScriptFolderHandler {
	return &ScriptFolderHandler{
		folderService: folderService,
		logger:        logger,
	}
}

// ListFolders retrieves all collections, newest first
// GET /api/script-folders
func (h *ScriptFolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	folders, err := h.folderService.ListFolders(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folders)
}

// CreateFolder creates a collection owned by the acting user
// POST /api/script-folders
// Returns 201 with the new collection
func (h *ScriptFolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireDeveloper(w, r)
	if !ok {
		return
	}

	var req sfSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	folder, err := h.folderService.CreateFolder(r.Context(), actor.ID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// DeleteFolder removes a collection and its memberships
// DELETE /api/script-folders/{id}
func (h *ScriptFolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Folder ID")
	if !ok {
		return
	}

	if err := h.folderService.DeleteFolder(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddRequest puts a request into a collection
// POST /api/script-folders/{id}/add-request/{requestID}
func (h *ScriptFolderHandler) AddRequest(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Folder ID")
	if !ok {
		return
	}

	requestID, ok := PathParam(w, r, "requestID", "Request ID")
	if !ok {
		return
	}

	if err := h.folderService.AddRequest(r.Context(), id, requestID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

// RemoveRequest takes a request out of a collection
// DELETE /api/script-folders/{id}/remove-request/{requestID}
func (h *ScriptFolderHandler) RemoveRequest(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Folder ID")
	if !ok {
		return
	}

	requestID, ok := PathParam(w, r, "requestID", "Request ID")
	if !ok {
		return
	}

	if err := h.folderService.RemoveRequest(r.Context(), id, requestID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ListFolderRequests retrieves the member requests of a collection
// GET /api/script-folders/{id}/requests
func (h *ScriptFolderHandler) ListFolderRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Folder ID")
	if !ok {
		return
	}

	requests, err := h.folderService.ListFolderRequests(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, requests)
}
