package domain

import "time"

// Source tells whether a submission arrived as a document or a photo.
type Source string

const (
	SourceDocument Source = "document"
	SourcePhoto    Source = "photo"
)

// Submission is a signed document accepted and stored on Drive.
type Submission struct {
	ID          int64     `json:"id"`
	ChatID      int64     `json:"chat_id"`
	UserID      int64     `json:"user_id,omitempty"`
	Username    string    `json:"username,omitempty"`
	SignerName  string    `json:"signer_name"`
	Filename    string    `json:"filename"`
	DriveFileID string    `json:"drive_file_id"`
	Size        int64     `json:"size"`
	Source      Source    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}
