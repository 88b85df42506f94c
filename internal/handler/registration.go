package handler

import (
	"log/slog"
	"net/http"

	identitySvc "autohub/internal/domain/services/identity"
	"autohub/internal/httputil"
)

// RegistrationHandler handles the signup review queue
type RegistrationHandler struct {
	userService identitySvc.UserService
	logger      *slog.Logger
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(userService identitySvc.UserService, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		userService: userService,
		logger:      logger,
	}
}

// ListRegistrations retrieves signup requests, newest first
// GET /api/registration-requests?status=PENDING
func (h *RegistrationHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	status := r.URL.Query().Get("status")

	registrations, err := h.userService.ListRegistrations(r.Context(), status)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, registrations)
}

// ApproveRegistration turns a pending signup into an employee account
// POST /api/registration-requests/{id}/approve
// Returns the created account
func (h *RegistrationHandler) ApproveRegistration(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireDeveloper(w, r)
	if !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Registration request ID")
	if !ok {
		return
	}

	user, err := h.userService.ApproveRegistration(r.Context(), actor, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// RejectRegistration marks a pending signup rejected
// POST /api/registration-requests/{id}/reject
func (h *RegistrationHandler) RejectRegistration(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireDeveloper(w, r)
	if !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "Registration request ID")
	if !ok {
		return
	}

	if _, err := h.userService.RejectRegistration(r.Context(), actor, id); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
