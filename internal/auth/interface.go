package auth

import identityModels "autohub/internal/domain/models/identity"

// TokenVerifier defines the interface for bearer token verification.
// This abstraction keeps the middleware agnostic to the auth mode: tokens
// may be locally issued (HS256, shared secret) or minted by an external
// identity provider and verified against its JWKS endpoint.
type TokenVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*identityModels.AccessClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	// Should be called when the verifier is no longer needed.
	Close() error
}
