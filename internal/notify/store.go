package notify

import (
	"context"
	"sync"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// Store persists one session's notification list. The dispatcher serializes access, so a
// store only needs to make Load and Save individually safe.
type Store interface {
	Load(ctx context.Context) ([]models.Notification, error)
	Save(ctx context.Context, notifications []models.Notification) error
}

// MemoryStore keeps notifications in process memory
type MemoryStore struct {
	mu            sync.RWMutex
	notifications []models.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification(nil), s.notifications...), nil
}

func (s *MemoryStore) Save(ctx context.Context, notifications []models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append([]models.Notification(nil), notifications...)
	return nil
}
