package studio

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a thumbnail record. The generating record
// is written before any backend call, so a crash mid-generation leaves a
// discoverable record instead of losing the request.
type Status string

const (
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Thumbnail is one generation request and its outcome.
type Thumbnail struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"-"`
	Prompt      string    `json:"prompt"`
	Title       string    `json:"title"`
	ImageURL    string    `json:"image_url,omitempty"`
	StoragePath string    `json:"-"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ImageInput is a caller-supplied reference image, base64 encoded.
type ImageInput struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}
