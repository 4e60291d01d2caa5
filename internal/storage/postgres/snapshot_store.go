package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// Entries are persisted as a JSONB array, one object per ranked row.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

type snapshotEntry struct {
	Rank           int     `json:"rank"`
	PlayerID       string  `json:"player_id"`
	OsuUsername    string  `json:"osu_username"`
	CumulativePush float64 `json:"cumulative_push_value"`
}

// Insert adds a new snapshot.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.LeaderboardSnapshot) error {
	if snap == nil || snap.GeneratedAt.IsZero() {
		return storage.ErrInvalidInput
	}

	id := snap.ID
	if id == "" {
		id = uuid.NewString()
	}

	entries := make([]snapshotEntry, len(snap.Entries))
	for i, e := range snap.Entries {
		entries[i] = snapshotEntry{
			Rank:           e.Rank,
			PlayerID:       e.PlayerID,
			OsuUsername:    e.OsuUsername,
			CumulativePush: e.CumulativePush,
		}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal snapshot entries: %w", err)
	}

	query := `
		INSERT INTO leaderboard_snapshots (id, generated_at, scope_hours, entries)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := s.pool.Exec(ctx, query, id, snap.GeneratedAt.UTC(), snap.ScopeHours, payload); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}
