package workrequest

import (
	"time"
)

// Request lifecycle states. Only COMPLETED requests feed the script tree.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
)

// Submission event kinds.
const (
	EventSubmission   = "SUBMISSION"
	EventResubmission = "RESUBMISSION"
)

type Request struct {
	ID             string    `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Description    string    `json:"description" db:"description"`
	Status         string    `json:"status" db:"status"`
	Priority       string    `json:"priority" db:"priority"`
	ProjectName    *string   `json:"project_name,omitempty" db:"project_name"`
	ToolVersion    *string   `json:"tool_version,omitempty" db:"tool_version"`
	RequesterID    string    `json:"requester_id" db:"requester_id"`
	RequesterName  string    `json:"requester_name" db:"requester_name"`
	DueDate        *string   `json:"due_date,omitempty" db:"due_date"`
	ResultScript   *string   `json:"result_script,omitempty" db:"result_script"`
	ResultFileName *string   `json:"result_file_name,omitempty" db:"result_file_name"`
	AIAnalysis     *string   `json:"ai_analysis,omitempty" db:"ai_analysis"`
	DeveloperNotes *string   `json:"developer_notes,omitempty" db:"developer_notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	// Child collections, loaded with the request
	ResultFiles      []ResultFile      `json:"result_files"`
	Attachments      []Attachment      `json:"attachments"`
	SubmissionEvents []SubmissionEvent `json:"submission_events"`
}

// SubmissionCount is the number of result deliveries recorded so far.
func (r *Request) SubmissionCount() int {
	return len(r.SubmissionEvents)
}

// ResultFile is a delivered script artifact. Data holds the payload as
// base64, possibly wrapped in a data URL ("data:...;base64,....").
type ResultFile struct {
	ID         string    `json:"id" db:"id"`
	RequestID  string    `json:"request_id" db:"request_id"`
	Name       string    `json:"name" db:"name"`
	MimeType   string    `json:"mime_type" db:"mime_type"`
	Data       string    `json:"data" db:"data"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// Attachment is requester-supplied context (screenshots, sample models).
type Attachment struct {
	ID        string    `json:"id" db:"id"`
	RequestID string    `json:"request_id" db:"request_id"`
	Name      string    `json:"name" db:"name"`
	MimeType  string    `json:"mime_type" db:"mime_type"`
	Data      string    `json:"data" db:"data"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SubmissionEvent records one result delivery (first = SUBMISSION,
// later ones = RESUBMISSION) and how many files it added.
type SubmissionEvent struct {
	ID         string    `json:"id" db:"id"`
	RequestID  string    `json:"request_id" db:"request_id"`
	Kind       string    `json:"kind" db:"kind"`
	AddedFiles int       `json:"added_files" db:"added_files"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
