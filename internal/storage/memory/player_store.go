package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/storage"
)

// PlayerStore is an in-memory implementation of storage.PlayerStore.
type PlayerStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Player // keyed by player id
}

// NewPlayerStore creates a new in-memory player store.
func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		data: make(map[string]*domain.Player),
	}
}

// Compile-time interface check.
var _ storage.PlayerStore = (*PlayerStore)(nil)

// Upsert creates a player or refreshes the osu! binding for an existing chat id.
func (s *PlayerStore) Upsert(_ context.Context, p *domain.Player) (*domain.Player, error) {
	if p == nil || p.ChatID == "" || p.OsuUserID == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data {
		if existing.ChatID == p.ChatID {
			existing.OsuUserID = p.OsuUserID
			existing.OsuUsername = p.OsuUsername
			out := *existing
			return &out, nil
		}
	}

	stored := *p
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.RegisteredAt.IsZero() {
		stored.RegisteredAt = time.Now().UTC()
	}
	s.data[stored.ID] = &stored
	out := stored
	return &out, nil
}

// GetByChatID retrieves a player by chat id.
func (s *PlayerStore) GetByChatID(_ context.Context, chatID string) (*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.data {
		if p.ChatID == chatID {
			out := *p
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetByUsername retrieves a player by osu! username, case-insensitive.
func (s *PlayerStore) GetByUsername(_ context.Context, username string) (*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.data {
		if strings.EqualFold(p.OsuUsername, username) {
			out := *p
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

// List retrieves all registered players ordered by registration time.
func (s *PlayerStore) List(_ context.Context) ([]*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Player, 0, len(s.data))
	for _, p := range s.data {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
