package handler

import (
	"log/slog"
	"net/http"

	identitySvc "autohub/internal/domain/services/identity"
	"autohub/internal/httputil"
)

// UserHandler handles account administration HTTP requests
type UserHandler struct {
	userService identitySvc.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService identitySvc.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// Me returns the authenticated user's own account
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// ListUsers retrieves all accounts
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, users)
}

// CreateUser provisions an account directly, bypassing the registration queue
// POST /api/users
// Returns 201 with the new account
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireDeveloper(w, r)
	if !ok {
		return
	}

	var req identitySvc.CreateUserRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.CreateUser(r.Context(), actor, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, user)
}

// PromoteUser raises an employee to developer
// POST /api/users/{id}/promote
func (h *UserHandler) PromoteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireDeveloper(w, r)
	if !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "User ID")
	if !ok {
		return
	}

	user, err := h.userService.PromoteUser(r.Context(), actor, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// DemoteUser lowers a developer to employee
// POST /api/users/{id}/demote
func (h *UserHandler) DemoteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireDeveloper(w, r)
	if !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "User ID")
	if !ok {
		return
	}

	user, err := h.userService.DemoteUser(r.Context(), actor, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account together with its requests and their
// script tree nodes
// DELETE /api/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireDeveloper(w, r)
	if !ok {
		return
	}

	id, ok := PathParam(w, r, "id", "User ID")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), actor, id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
