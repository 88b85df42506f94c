package workrequest

import (
	"time"
)

// Comment is a discussion entry on a request. AuthorName is snapshotted
// at write time; UserID goes null when the author account is deleted.
type Comment struct {
	ID         string    `json:"id" db:"id"`
	RequestID  string    `json:"request_id" db:"request_id"`
	UserID     *string   `json:"user_id,omitempty" db:"user_id"`
	AuthorName string    `json:"author_name" db:"author_name"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
