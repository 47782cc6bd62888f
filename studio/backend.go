package studio

import (
	"context"
	"time"
)

// Backend produces image bytes for a prompt. Implementations are expected to
// be safe for concurrent use.
type Backend interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Generate returns encoded image bytes for the prompt, optionally
	// conditioned on decoded reference images.
	Generate(ctx context.Context, prompt string, images []ReferenceImage) ([]byte, error)
}

// ReferenceImage is a decoded caller-supplied image passed to a backend.
type ReferenceImage struct {
	Data     []byte
	MimeType string
}

// BackendPolicy is one rung of the fallback ladder: a backend, its attempt
// budget, and the pause between attempts. The ladder is tried in order and
// stops at the first success.
type BackendPolicy struct {
	Backend     Backend
	MaxAttempts int
	Backoff     time.Duration
}
