package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data []*domain.LeaderboardSnapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert adds a new snapshot.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.LeaderboardSnapshot) error {
	if snap == nil || snap.GeneratedAt.IsZero() {
		return storage.ErrInvalidInput
	}

	stored := *snap
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.Entries = append([]domain.LeaderboardEntry(nil), snap.Entries...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, &stored)
	return nil
}

// All returns every stored snapshot, oldest first. Test helper.
func (s *SnapshotStore) All() []*domain.LeaderboardSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.LeaderboardSnapshot, len(s.data))
	copy(out, s.data)
	return out
}
