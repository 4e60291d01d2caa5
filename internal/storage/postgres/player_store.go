package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/storage"
)

// PlayerStore implements storage.PlayerStore using PostgreSQL.
type PlayerStore struct {
	pool *Pool
}

// NewPlayerStore creates a new PlayerStore.
func NewPlayerStore(pool *Pool) *PlayerStore {
	return &PlayerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PlayerStore = (*PlayerStore)(nil)

// Upsert creates a player or refreshes the osu! binding for an existing chat id.
func (s *PlayerStore) Upsert(ctx context.Context, p *domain.Player) (*domain.Player, error) {
	if p == nil || p.ChatID == "" || p.OsuUserID == "" {
		return nil, storage.ErrInvalidInput
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	registeredAt := p.RegisteredAt
	if registeredAt.IsZero() {
		registeredAt = time.Now()
	}

	query := `
		INSERT INTO players (id, chat_id, osu_user_id, osu_username, registered_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chat_id) DO UPDATE
			SET osu_user_id = EXCLUDED.osu_user_id,
			    osu_username = EXCLUDED.osu_username
		RETURNING id, chat_id, osu_user_id, osu_username, registered_at
	`

	var out domain.Player
	err := s.pool.QueryRow(ctx, query, id, p.ChatID, p.OsuUserID, p.OsuUsername, registeredAt.UTC()).
		Scan(&out.ID, &out.ChatID, &out.OsuUserID, &out.OsuUsername, &out.RegisteredAt)
	if err != nil {
		return nil, fmt.Errorf("upsert player: %w", err)
	}
	return &out, nil
}

// GetByChatID retrieves a player by chat id. Returns ErrNotFound if not registered.
func (s *PlayerStore) GetByChatID(ctx context.Context, chatID string) (*domain.Player, error) {
	query := `
		SELECT id, chat_id, osu_user_id, osu_username, registered_at
		FROM players
		WHERE chat_id = $1
	`

	var out domain.Player
	err := s.pool.QueryRow(ctx, query, chatID).
		Scan(&out.ID, &out.ChatID, &out.OsuUserID, &out.OsuUsername, &out.RegisteredAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get player by chat id: %w", err)
	}
	return &out, nil
}

// GetByUsername retrieves a player by osu! username, case-insensitive.
func (s *PlayerStore) GetByUsername(ctx context.Context, username string) (*domain.Player, error) {
	query := `
		SELECT id, chat_id, osu_user_id, osu_username, registered_at
		FROM players
		WHERE lower(osu_username) = lower($1)
	`

	var out domain.Player
	err := s.pool.QueryRow(ctx, query, username).
		Scan(&out.ID, &out.ChatID, &out.OsuUserID, &out.OsuUsername, &out.RegisteredAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get player by username: %w", err)
	}
	return &out, nil
}

// List retrieves all registered players ordered by registration time.
func (s *PlayerStore) List(ctx context.Context) ([]*domain.Player, error) {
	query := `
		SELECT id, chat_id, osu_user_id, osu_username, registered_at
		FROM players
		ORDER BY registered_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []*domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.ChatID, &p.OsuUserID, &p.OsuUsername, &p.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return out, nil
}
