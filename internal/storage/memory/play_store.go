package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/storage"
)

// PlayStore is an in-memory implementation of storage.PlayStore.
type PlayStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Play // keyed by composite key
}

// NewPlayStore creates a new in-memory play store.
func NewPlayStore() *PlayStore {
	return &PlayStore{
		data: make(map[string]*domain.Play),
	}
}

// Compile-time interface check.
var _ storage.PlayStore = (*PlayStore)(nil)

// playKey generates the identity key for a play.
func playKey(playerID, beatmapID string, ts time.Time) string {
	return fmt.Sprintf("%s|%s|%d", playerID, beatmapID, ts.UTC().UnixNano())
}

// Insert adds a new play. Returns ErrDuplicateKey if the identity exists.
func (s *PlayStore) Insert(_ context.Context, p *domain.Play) error {
	if p == nil || p.PlayerID == "" || p.BeatmapID == "" || p.Timestamp.IsZero() {
		return storage.ErrInvalidInput
	}

	key := playKey(p.PlayerID, p.BeatmapID, p.Timestamp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	stored := *p
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.PushValue != nil {
		pv := *stored.PushValue
		stored.PushValue = &pv
	}
	s.data[key] = &stored
	return nil
}

// SumPushValues totals a player's push values, optionally since a timestamp.
func (s *PlayStore) SumPushValues(_ context.Context, playerID string, since *time.Time) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, p := range s.data {
		if p.PlayerID != playerID || p.PushValue == nil {
			continue
		}
		if since != nil && p.Timestamp.Before(*since) {
			continue
		}
		total += *p.PushValue
	}
	return total, nil
}

// ListMonth retrieves a player's plays within the given UTC calendar month.
func (s *PlayStore) ListMonth(_ context.Context, playerID string, year int, month time.Month) ([]*domain.Play, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Play
	for _, p := range s.data {
		if p.PlayerID != playerID {
			continue
		}
		ts := p.Timestamp.UTC()
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// ListSince retrieves a player's plays at or after since, newest first.
func (s *PlayStore) ListSince(_ context.Context, playerID string, since time.Time) ([]*domain.Play, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Play
	for _, p := range s.data {
		if p.PlayerID != playerID || p.Timestamp.Before(since) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
