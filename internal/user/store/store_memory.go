package store

import (
	"context"
	"sync"

	"github.com/Aleksandr505/Confa/internal/user/models"
)

// MemoryStore keeps users in process memory for tests and local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.User
	byName map[string]int64
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		byID:   make(map[int64]models.User),
		byName: make(map[string]int64),
	}
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return nil, nil
	}
	user := s.byID[id]
	return &user, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *MemoryStore) Save(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == 0 {
		user.ID = s.nextID
		s.nextID++
	}
	s.byID[user.ID] = *user
	s.byName[user.Username] = user.ID
	return nil
}
