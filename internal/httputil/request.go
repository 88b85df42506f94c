package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ParseJSON decodes JSON from the request body into the given destination.
// It limits the request body size to prevent abuse and provides clear error messages.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	// Limit request body to 10MB (requires w for proper 413 response).
	// Base64 result files ride on this path, so the cap has headroom.
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	decoder := json.NewDecoder(r.Body)
	// DisallowUnknownFields() is intentionally NOT used so clients can
	// keep sending fields the server has since dropped. Validation is
	// performed downstream via domain-specific validators.

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
