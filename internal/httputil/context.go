package httputil

import (
	"context"
	"net/http"

	identityModels "autohub/internal/domain/models/identity"
)

// Context key type to avoid collisions
type contextKey string

const (
	userKey contextKey = "user"
)

// WithUser adds the authenticated user to the request context
func WithUser(r *http.Request, user *identityModels.User) *http.Request {
	ctx := context.WithValue(r.Context(), userKey, user)
	return r.WithContext(ctx)
}

// GetUser retrieves the authenticated user from context, nil if absent
func GetUser(r *http.Request) *identityModels.User {
	user, _ := r.Context().Value(userKey).(*identityModels.User)
	return user
}

// GetUserID retrieves the authenticated user's ID, empty if absent
func GetUserID(r *http.Request) string {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return ""
}
