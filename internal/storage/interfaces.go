package storage

import (
	"context"
	"time"

	"osu-push-tracker/internal/domain"
)

// PlayerStore provides access to registered players.
type PlayerStore interface {
	// Upsert creates a player or refreshes the osu! binding for an existing
	// chat id. Returns the stored player.
	Upsert(ctx context.Context, p *domain.Player) (*domain.Player, error)

	// GetByChatID retrieves a player by chat id. Returns ErrNotFound if not registered.
	GetByChatID(ctx context.Context, chatID string) (*domain.Player, error)

	// GetByUsername retrieves a player by osu! username, case-insensitive.
	// Returns ErrNotFound if not registered.
	GetByUsername(ctx context.Context, username string) (*domain.Player, error)

	// List retrieves all registered players ordered by registration time.
	List(ctx context.Context) ([]*domain.Player, error)
}

// PlayStore provides access to ingested plays.
type PlayStore interface {
	// Insert adds a new play. Returns ErrDuplicateKey if a play with the same
	// (player_id, beatmap_id, timestamp) already exists.
	Insert(ctx context.Context, p *domain.Play) error

	// SumPushValues totals the push values of a player's plays, optionally
	// restricted to plays at or after since. Plays without a computed push
	// value are skipped. Returns 0 for an unknown player.
	SumPushValues(ctx context.Context, playerID string, since *time.Time) (float64, error)

	// ListMonth retrieves a player's plays within the given UTC calendar
	// month, ordered by timestamp ASC.
	ListMonth(ctx context.Context, playerID string, year int, month time.Month) ([]*domain.Play, error)

	// ListSince retrieves a player's plays at or after since, newest first.
	ListSince(ctx context.Context, playerID string, since time.Time) ([]*domain.Play, error)
}

// BaselineStore provides access to monthly baselines.
type BaselineStore interface {
	// Get retrieves the baseline for (player_id, month). Returns ErrNotFound
	// if the month has not been initialized yet.
	Get(ctx context.Context, playerID, month string) (*domain.MonthlyBaseline, error)

	// Insert adds a baseline. Returns ErrDuplicateKey if (player_id, month)
	// exists; baselines are create-only and the first writer wins.
	Insert(ctx context.Context, b *domain.MonthlyBaseline) error
}

// SnapshotStore preserves computed leaderboards.
type SnapshotStore interface {
	// Insert adds a new snapshot.
	Insert(ctx context.Context, s *domain.LeaderboardSnapshot) error
}
