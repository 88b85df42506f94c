package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"autohub/internal/auth"
	identitySvc "autohub/internal/domain/services/identity"
	"autohub/internal/httputil"
)

// publicPaths lists routes reachable without a bearer token. Everything
// else behind the middleware requires an authenticated user.
var publicPaths = map[string]bool{
	"/":                  true,
	"/health":            true,
	"/api/auth/login":    true,
	"/api/auth/register": true,
}

// AuthMiddleware verifies the bearer token on protected routes and loads
// the account it belongs to into the request context. Tokens are checked
// through the TokenVerifier so the middleware works the same whether they
// were issued locally or by an external identity provider.
func AuthMiddleware(verifier auth.TokenVerifier, authService identitySvc.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				httputil.RespondError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("token verification failed",
					"error", err,
					"path", r.URL.Path,
				)
				w.Header().Set("WWW-Authenticate", "Bearer")
				httputil.RespondError(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			// The subject must map to a live account. A valid token for a
			// deleted user is rejected the same way as a forged one.
			user, err := authService.GetUser(r.Context(), claims.GetUserID())
			if err != nil {
				logger.Debug("token subject has no account",
					"user_id", claims.GetUserID(),
					"error", err,
				)
				w.Header().Set("WWW-Authenticate", "Bearer")
				httputil.RespondError(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			next.ServeHTTP(w, httputil.WithUser(r, user))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
// Returns false when the header is absent or not a bearer scheme.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}

	return token, true
}
