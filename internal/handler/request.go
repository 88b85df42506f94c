package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	wrSvc "autohub/internal/domain/services/workrequest"
	"autohub/internal/httputil"
)

// RequestHandler handles work request HTTP requests
// Follows Clean Architecture: handlers only communicate with services, never repositories
type RequestHandler struct {
	requestService wrSvc.RequestService
	logger         *slog.Logger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestService wrSvc.RequestService, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		logger:         logger,
	}
}

// ListRequests retrieves visible requests, newest first
// GET /api/requests?status=PENDING
// Developers see everything, employees only their own
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	status := r.URL.Query().Get("status")

	requests, err := h.requestService.ListRequests(r.Context(), actor, status)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, requests)
}

// GetRequest retrieves a single request
// GET /api/requests/{id}
func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Request ID")
	if !ok {
		return
	}

	request, err := h.requestService.GetRequest(r.Context(), actor, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, request)
}

// CreateRequest files a new work request
// POST /api/requests
// Returns 201 with the stored request
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req wrSvc.CreateRequestRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request, err := h.requestService.CreateRequest(r.Context(), actor, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, request)
}

// updateRequestBody is the wire form of a partial update. OptionalString
// distinguishes absent fields from explicit nulls on nullable columns.
type updateRequestBody struct {
	Title          *string                 `json:"title"`
	Description    *string                 `json:"description"`
	Priority       *string                 `json:"priority"`
	ProjectName    httputil.OptionalString `json:"project_name"`
	ToolVersion    httputil.OptionalString `json:"tool_version"`
	DueDate        httputil.OptionalString `json:"due_date"`
	Status         *string                 `json:"status"`
	DeveloperNotes httputil.OptionalString `json:"developer_notes"`
	ResultScript   httputil.OptionalString `json:"result_script"`
	ResultFileName httputil.OptionalString `json:"result_file_name"`
	AIAnalysis     httputil.OptionalString `json:"ai_analysis"`
}

// UpdateRequest applies a partial update
// PUT /api/requests/{id}
// Privileged fields submitted by employees are dropped by the service
func (h *RequestHandler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Request ID")
	if !ok {
		return
	}

	var body updateRequestBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := wrSvc.UpdateRequestRequest{
		Title:          body.Title,
		Description:    body.Description,
		Priority:       body.Priority,
		ProjectName:    optionalField(body.ProjectName),
		ToolVersion:    optionalField(body.ToolVersion),
		DueDate:        optionalField(body.DueDate),
		Status:         body.Status,
		DeveloperNotes: optionalField(body.DeveloperNotes),
		ResultScript:   optionalField(body.ResultScript),
		ResultFileName: optionalField(body.ResultFileName),
		AIAnalysis:     optionalField(body.AIAnalysis),
	}

	request, err := h.requestService.UpdateRequest(r.Context(), actor, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, request)
}

// DeleteRequest removes a request and its script tree nodes
// DELETE /api/requests/{id}
func (h *RequestHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Request ID")
	if !ok {
		return
	}

	if err := h.requestService.DeleteRequest(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SubmitResultFiles appends delivered files and records the submission event
// POST /api/requests/{id}/result-files
// Returns the updated request
func (h *RequestHandler) SubmitResultFiles(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireDeveloper(w, r)
	if !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Request ID")
	if !ok {
		return
	}

	var body struct {
		Files []wrSvc.ResultFileUpload `json:"files"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request, err := h.requestService.SubmitResultFiles(r.Context(), actor, id, body.Files)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, request)
}

// DeleteResultFile removes one delivered file
// DELETE /api/requests/{id}/result-files/{fileID}
func (h *RequestHandler) DeleteResultFile(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Request ID")
	if !ok {
		return
	}

	fileID, ok := PathParam(w, r, "fileID", "Result file ID")
	if !ok {
		return
	}

	if err := h.requestService.DeleteResultFile(r.Context(), id, fileID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListComments retrieves a request's comments, oldest first
// GET /api/requests/{id}/comments
func (h *RequestHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Request ID")
	if !ok {
		return
	}

	comments, err := h.requestService.ListComments(r.Context(), actor, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, comments)
}

// AddComment appends a comment to a request
// POST /api/requests/{id}/comments
// Returns 201 with the stored comment
func (h *RequestHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Request ID")
	if !ok {
		return
	}

	var req wrSvc.AddCommentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.requestService.AddComment(r.Context(), actor, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, comment)
}

// AnalyzeRequest runs the AI analysis and returns its verdict
// POST /api/requests/{id}/analyze
// The verdict is also persisted on the request's ai_analysis field
func (h *RequestHandler) AnalyzeRequest(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Request ID")
	if !ok {
		return
	}

	request, err := h.requestService.AnalyzeRequest(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	// The stored verdict is validated JSON; relay it as the response body
	var verdict json.RawMessage
	if request.AIAnalysis != nil {
		verdict = json.RawMessage(*request.AIAnalysis)
	}

	httputil.RespondJSON(w, http.StatusOK, verdict)
}

// optionalField converts the wire tri-state into the service's form
func optionalField(o httputil.OptionalString) wrSvc.OptionalField {
	return wrSvc.OptionalField{Present: o.Present, Value: o.Value}
}
