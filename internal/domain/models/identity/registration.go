package identity

import (
	"time"
)

// Registration request lifecycle states.
const (
	RegistrationPending  = "PENDING"
	RegistrationApproved = "APPROVED"
	RegistrationRejected = "REJECTED"
)

// RegistrationRequest is a self-service signup awaiting developer review.
// The password is hashed at request time so approval never sees plaintext.
type RegistrationRequest struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Name         string     `json:"name" db:"name"`
	CompanyTitle string     `json:"company_title" db:"company_title"`
	Status       string     `json:"status" db:"status"`
	ReviewedBy   *string    `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
