package scriptfolder

import "time"

// DefaultColor is applied to collections created without an explicit color.
const DefaultColor = "#6366f1"

// ScriptFolder is a flat, colored collection of requests. It predates the
// script tree and survives alongside it; membership carries no hierarchy.
type ScriptFolder struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	Color       *string   `json:"color" db:"color"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
