package identity

import (
	"time"
)

// User roles. DEVELOPER is the privileged role: it manages users,
// registration requests, result files and the script tree.
const (
	RoleDeveloper = "DEVELOPER"
	RoleEmployee  = "EMPLOYEE"
)

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"` // normalized: trimmed, lowercased
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Role         string    `json:"role" db:"role"`
	CompanyTitle *string   `json:"company_title,omitempty" db:"company_title"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsDeveloper reports whether the user holds the privileged role.
func (u *User) IsDeveloper() bool {
	return u.Role == RoleDeveloper
}
