package store

import (
	"context"
	"sync"

	"travel-companion/internal/models"
)

// MemoryStore is an in-process SessionStore used in tests and for the
// "memory" database driver.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.PreferenceRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.PreferenceRecord),
	}
}

func (s *MemoryStore) GetOrCreate(_ context.Context, sessionID, userID string) (*models.PreferenceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[sessionID]; ok {
		return existing.Clone(), nil
	}

	record := models.NewPreferenceRecord(sessionID, userID)
	s.records[sessionID] = record.Clone()
	return record, nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*models.PreferenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return record.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, record *models.PreferenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.SessionID] = record.Clone()
	return nil
}
