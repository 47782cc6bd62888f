package studio

import (
	"context"

	"github.com/google/uuid"
)

// Store persists thumbnail records. All lookups are scoped to the owning
// user; a record is never visible across users.
type Store interface {
	// Create inserts the record in its initial status.
	Create(ctx context.Context, thumb *Thumbnail) error

	// Get returns the user's record or ErrThumbnailNotFound.
	Get(ctx context.Context, userID, id uuid.UUID) (*Thumbnail, error)

	// SetCompleted marks the record completed with its public image URL.
	SetCompleted(ctx context.Context, id uuid.UUID, imageURL string) error

	// SetFailed marks the record failed.
	SetFailed(ctx context.Context, id uuid.UUID) error

	// ListCompleted returns the user's completed thumbnails, newest first,
	// capped at limit.
	ListCompleted(ctx context.Context, userID uuid.UUID, limit int) ([]Thumbnail, error)

	// Delete removes the user's record or returns ErrThumbnailNotFound.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
