package config

const (
	// MaxNodeNameLength is the maximum length for script tree node names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxNodeNameLength = 255

	// MaxRequestTitleLength is the maximum length for request titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (titles should be short and descriptive).
	MaxRequestTitleLength = 255

	// MaxUserNameLength is the maximum length for display names.
	// Same as request titles for consistency.
	MaxUserNameLength = 255

	// MaxCommentLength is the maximum length for a single comment body.
	// Set to 4000 to keep comment threads readable while leaving room
	// for pasted error output.
	MaxCommentLength = 4000

	// MinPasswordLength is the minimum length for account passwords.
	MinPasswordLength = 8
)
