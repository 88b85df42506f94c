package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	treeModels "autohub/internal/domain/models/scripttree"
	treeSvc "autohub/internal/domain/services/scripttree"
	"autohub/internal/httputil"
)

// TreeHandler handles script library HTTP requests. Every route is
// developer-only; the library is the delivery team's workspace.
type TreeHandler struct {
	treeService treeSvc.TreeService
	logger      *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(treeService treeSvc.TreeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{
		treeService: treeService,
		logger:      logger,
	}
}

// GetTree synchronizes completed requests into the library and returns
// the nested tree
// GET /api/script-tree
// The response is a list of roots; the library always has exactly one
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireDeveloper(w, r)
	if !ok {
		return
	}

	tree, err := h.treeService.GetTree(r.Context(), actor.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, []*treeModels.TreeNode{tree})
}

// CreateFolder creates a folder node
// POST /api/script-tree/folder
// Parent defaults to the root folder. Returns 201 with the new node
func (h *TreeHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireDeveloper(w, r)
	if !ok {
		return
	}

	var req treeSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := h.treeService.CreateFolder(r.Context(), actor.ID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// LinkFile links a request's result into the library as a FILE node
// POST /api/script-tree/file
// Parent defaults to the root folder. Returns 201 with the new node
func (h *TreeHandler) LinkFile(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireDeveloper(w, r)
	if !ok {
		return
	}

	var req treeSvc.LinkFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := h.treeService.LinkFile(r.Context(), actor.ID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// UpdateNode moves and/or renames a node in one step
// PUT /api/script-tree/{id}
func (h *TreeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Node ID")
	if !ok {
		return
	}

	var req treeSvc.UpdateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := h.treeService.UpdateNode(r.Context(), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode removes a node and its whole subtree
// DELETE /api/script-tree/{id}
func (h *TreeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Node ID")
	if !ok {
		return
	}

	if err := h.treeService.DeleteNode(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export streams the library as a zip archive
// GET /api/script-tree/export
// The archive is assembled in memory so failures can still produce a
// proper error response
func (h *TreeHandler) Export(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireDeveloper(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.treeService.ExportArchive(r.Context(), actor.ID, &buf); err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="script-library.zip"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
