package handler

import (
	"log/slog"
	"net/http"

	identitySvc "autohub/internal/domain/services/identity"
	"autohub/internal/httputil"
)

// AuthHandler handles login and self-service registration
type AuthHandler struct {
	authService identitySvc.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService identitySvc.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login verifies credentials and issues an access token
// POST /api/auth/login
// Returns 401 on bad credentials, 429 when the caller's IP is throttled
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req identitySvc.LoginRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.authService.Login(r.Context(), &req, clientIP(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, response)
}

// Register files a registration request for developer review
// POST /api/auth/register
// Returns 201 with the pending request
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req identitySvc.RegisterRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	registration, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, registration)
}
