package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/storage"
)

// BaselineStore implements storage.BaselineStore using PostgreSQL.
type BaselineStore struct {
	pool *Pool
}

// NewBaselineStore creates a new BaselineStore.
func NewBaselineStore(pool *Pool) *BaselineStore {
	return &BaselineStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BaselineStore = (*BaselineStore)(nil)

// Get retrieves the baseline for (player_id, month).
func (s *BaselineStore) Get(ctx context.Context, playerID, month string) (*domain.MonthlyBaseline, error) {
	query := `
		SELECT id, player_id, month, top10_avg_stars, top10_miss_sum, ts_stat, pp50_threshold
		FROM monthly_baselines
		WHERE player_id = $1 AND month = $2
	`

	var out domain.MonthlyBaseline
	err := s.pool.QueryRow(ctx, query, playerID, month).Scan(
		&out.ID, &out.PlayerID, &out.Month, &out.Top10AvgStars,
		&out.Top10MissSum, &out.TS, &out.PP50Threshold,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get baseline: %w", err)
	}
	return &out, nil
}

// Insert adds a baseline. Returns ErrDuplicateKey if (player_id, month)
// exists; the first writer wins.
func (s *BaselineStore) Insert(ctx context.Context, b *domain.MonthlyBaseline) error {
	if b == nil || b.PlayerID == "" || b.Month == "" {
		return storage.ErrInvalidInput
	}

	id := b.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `
		INSERT INTO monthly_baselines (
			id, player_id, month, top10_avg_stars, top10_miss_sum, ts_stat, pp50_threshold
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		id, b.PlayerID, b.Month, b.Top10AvgStars, b.Top10MissSum, b.TS, b.PP50Threshold,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert baseline: %w", err)
	}
	return nil
}
