package identity

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the JWT claims payload carried by AutoHub access tokens.
// Locally issued tokens populate every field; tokens minted by an external
// identity provider must at minimum carry the registered subject claim.
type AccessClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"role"`
}

// GetUserID returns the user ID from the JWT subject claim.
// This is the primary identifier for the authenticated user.
func (c *AccessClaims) GetUserID() string {
	return c.Subject
}
