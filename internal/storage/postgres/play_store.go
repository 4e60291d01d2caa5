package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/storage"
)

// PlayStore implements storage.PlayStore using PostgreSQL.
type PlayStore struct {
	pool *Pool
}

// NewPlayStore creates a new PlayStore.
func NewPlayStore(pool *Pool) *PlayStore {
	return &PlayStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PlayStore = (*PlayStore)(nil)

// Insert adds a new play. Returns ErrDuplicateKey if
// (player_id, beatmap_id, timestamp) exists.
func (s *PlayStore) Insert(ctx context.Context, p *domain.Play) error {
	if p == nil || p.PlayerID == "" || p.BeatmapID == "" || p.Timestamp.IsZero() {
		return storage.ErrInvalidInput
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `
		INSERT INTO plays (
			id, player_id, ts, beatmap_id, map_length_seconds, star_rating,
			miss_count, accuracy_percent, pp, failed, push_value, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		id,
		p.PlayerID,
		p.Timestamp.UTC(),
		p.BeatmapID,
		p.MapLengthSeconds,
		p.StarRating,
		p.MissCount,
		p.AccuracyPercent,
		p.PP,
		p.Failed,
		p.PushValue,
		p.Source,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert play: %w", err)
	}
	return nil
}

// SumPushValues totals the push values of a player's plays, optionally
// restricted to plays at or after since.
func (s *PlayStore) SumPushValues(ctx context.Context, playerID string, since *time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(push_value), 0)
		FROM plays
		WHERE player_id = $1 AND push_value IS NOT NULL
	`
	args := []any{playerID}
	if since != nil {
		query += " AND ts >= $2"
		args = append(args, since.UTC())
	}

	var total float64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum push values: %w", err)
	}
	return total, nil
}

// ListMonth retrieves a player's plays within the given UTC calendar month,
// ordered by timestamp ASC.
func (s *PlayStore) ListMonth(ctx context.Context, playerID string, year int, month time.Month) ([]*domain.Play, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := `
		SELECT id, player_id, ts, beatmap_id, map_length_seconds, star_rating,
		       miss_count, accuracy_percent, pp, failed, push_value, source
		FROM plays
		WHERE player_id = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts ASC
	`

	return s.queryPlays(ctx, query, playerID, start, end)
}

// ListSince retrieves a player's plays at or after since, newest first.
func (s *PlayStore) ListSince(ctx context.Context, playerID string, since time.Time) ([]*domain.Play, error) {
	query := `
		SELECT id, player_id, ts, beatmap_id, map_length_seconds, star_rating,
		       miss_count, accuracy_percent, pp, failed, push_value, source
		FROM plays
		WHERE player_id = $1 AND ts >= $2
		ORDER BY ts DESC
	`

	return s.queryPlays(ctx, query, playerID, since.UTC())
}

func (s *PlayStore) queryPlays(ctx context.Context, query string, args ...any) ([]*domain.Play, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plays: %w", err)
	}
	defer rows.Close()

	var out []*domain.Play
	for rows.Next() {
		var p domain.Play
		if err := rows.Scan(
			&p.ID, &p.PlayerID, &p.Timestamp, &p.BeatmapID, &p.MapLengthSeconds,
			&p.StarRating, &p.MissCount, &p.AccuracyPercent, &p.PP, &p.Failed,
			&p.PushValue, &p.Source,
		); err != nil {
			return nil, fmt.Errorf("scan play: %w", err)
		}
		p.Timestamp = p.Timestamp.UTC()
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plays: %w", err)
	}
	return out, nil
}
