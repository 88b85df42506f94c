package handler

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"autohub/internal/domain"
	identityModels "autohub/internal/domain/models/identity"
	"autohub/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	// Typed domain errors carry their own status code
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrThrottled):
		httputil.RespondError(w, http.StatusTooManyRequests, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// PathParam extracts a named path parameter, responding 400 when it is
// missing. The label names the parameter in the error message.
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := r.PathValue(name)
	if value == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	return value, true
}

// currentUser returns the authenticated user placed in the context by the
// auth middleware, responding 401 when it is absent.
func currentUser(w http.ResponseWriter, r *http.Request) (*identityModels.User, bool) {
	user := httputil.GetUser(r)
	if user == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}
	return user, true
}

// requireDeveloper returns the authenticated user when they hold the
// developer role, responding 403 otherwise.
func requireDeveloper(w http.ResponseWriter, r *http.Request) (*identityModels.User, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	if !user.IsDeveloper() {
		httputil.RespondError(w, http.StatusForbidden, "Only developers can access this resource")
		return nil, false
	}
	return user, true
}

// clientIP resolves the caller's address for the login throttle. The
// first X-Forwarded-For hop wins when a proxy sits in front of the API.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
