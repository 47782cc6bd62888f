package studio

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded in-memory Store for tests and local runs.
type MemoryStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Thumbnail
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*Thumbnail)}
}

func (s *MemoryStore) Create(_ context.Context, thumb *Thumbnail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	copied := *thumb
	copied.CreatedAt = now
	copied.UpdatedAt = now
	s.records[thumb.ID] = &copied
	thumb.CreatedAt = now
	thumb.UpdatedAt = now
	return nil
}

// Records returns every stored thumbnail for the user regardless of status.
// Test accessor.
func (s *MemoryStore) Records(userID uuid.UUID) []Thumbnail {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Thumbnail
	for _, thumb := range s.records {
		if thumb.UserID == userID {
			out = append(out, *thumb)
		}
	}
	return out
}

func (s *MemoryStore) Get(_ context.Context, userID, id uuid.UUID) (*Thumbnail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thumb, ok := s.records[id]
	if !ok || thumb.UserID != userID {
		return nil, ErrThumbnailNotFound
	}
	copied := *thumb
	return &copied, nil
}

func (s *MemoryStore) SetCompleted(_ context.Context, id uuid.UUID, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thumb, ok := s.records[id]
	if !ok {
		return ErrThumbnailNotFound
	}
	thumb.Status = StatusCompleted
	thumb.ImageURL = imageURL
	thumb.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) SetFailed(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thumb, ok := s.records[id]
	if !ok {
		return ErrThumbnailNotFound
	}
	thumb.Status = StatusFailed
	thumb.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListCompleted(_ context.Context, userID uuid.UUID, limit int) ([]Thumbnail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Thumbnail
	for _, thumb := range s.records {
		if thumb.UserID == userID && thumb.Status == StatusCompleted {
			out = append(out, *thumb)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thumb, ok := s.records[id]
	if !ok || thumb.UserID != userID {
		return ErrThumbnailNotFound
	}
	delete(s.records, id)
	return nil
}
