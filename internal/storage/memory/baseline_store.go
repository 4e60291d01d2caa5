package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/storage"
)

// BaselineStore is an in-memory implementation of storage.BaselineStore.
type BaselineStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MonthlyBaseline // keyed by player|month
}

// NewBaselineStore creates a new in-memory baseline store.
func NewBaselineStore() *BaselineStore {
	return &BaselineStore{
		data: make(map[string]*domain.MonthlyBaseline),
	}
}

// Compile-time interface check.
var _ storage.BaselineStore = (*BaselineStore)(nil)

func baselineKey(playerID, month string) string {
	return fmt.Sprintf("%s|%s", playerID, month)
}

// Get retrieves the baseline for (player, month).
func (s *BaselineStore) Get(_ context.Context, playerID, month string) (*domain.MonthlyBaseline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.data[baselineKey(playerID, month)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *b
	return &out, nil
}

// Insert adds a baseline. Returns ErrDuplicateKey if (player, month) exists.
func (s *BaselineStore) Insert(_ context.Context, b *domain.MonthlyBaseline) error {
	if b == nil || b.PlayerID == "" || b.Month == "" {
		return storage.ErrInvalidInput
	}

	key := baselineKey(b.PlayerID, b.Month)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	stored := *b
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.data[key] = &stored
	return nil
}
