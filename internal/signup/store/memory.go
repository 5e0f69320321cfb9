package store

import (
	"context"
	"sort"
	"sync"

	"waitlist/internal/signup/models"
)

// MemoryStore is an in-memory Store for single-process runs and tests. The
// map is keyed by normalized email, so uniqueness holds under the lock.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.SignupRecord
}

// NewMemory creates an empty in-memory signup store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.SignupRecord),
	}
}

func (s *MemoryStore) Insert(_ context.Context, record *models.SignupRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.Email]; exists {
		return ErrDuplicateEmail
	}

	stored := *record
	s.records[record.Email] = &stored
	return nil
}

func (s *MemoryStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.records[email]
	return exists, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.SignupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.SignupRecord, 0, len(s.records))
	for _, record := range s.records {
		copied := *record
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) Health(context.Context) error {
	return nil
}
