// Package service exposes the tracker's user-facing operations: player
// registration, on-demand sync, cumulative push queries, baselines,
// leaderboards and histogram data. The chat layer calls into this package
// and nothing below it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/leaderboard"
	"osu-push-tracker/internal/osuapi"
	"osu-push-tracker/internal/storage"
)

// ErrUnknownOsuUser means the osu! API could not resolve the identifier.
// Presented to users as "not found", never as a failure.
var ErrUnknownOsuUser = errors.New("osu user not found")

// Resolver resolves osu! identifiers to profiles.
type Resolver interface {
	LookupUser(ctx context.Context, identifier string) (*osuapi.UserProfile, error)
}

// PlayerSyncer runs the ingestion pipeline for a single player.
type PlayerSyncer interface {
	SyncPlayerRecent(ctx context.Context, player *domain.Player) (int, error)
	EnsureBaseline(ctx context.Context, player *domain.Player, month string) (*domain.MonthlyBaseline, error)
}

// Board builds leaderboards and histograms.
type Board interface {
	Build(ctx context.Context, sinceHours *int) ([]domain.LeaderboardEntry, error)
	StarHistogram(ctx context.Context, playerID string) ([]leaderboard.HistogramBucket, error)
}

// Service wires the tracker's operations together.
type Service struct {
	resolver Resolver
	syncer   PlayerSyncer
	board    Board
	players  storage.PlayerStore
	plays    storage.PlayStore
	logger   *log.Logger

	now func() time.Time
}

// New creates a Service. A nil logger falls back to a default stdout logger.
func New(resolver Resolver, syncer PlayerSyncer, board Board, players storage.PlayerStore, plays storage.PlayStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stdout, "[service] ", log.LstdFlags)
	}
	return &Service{
		resolver: resolver,
		syncer:   syncer,
		board:    board,
		players:  players,
		plays:    plays,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterPlayer binds a chat user to an osu! account, resolving the
// identifier through the API first. Re-registering an existing chat user
// rebinds it to the new account.
func (s *Service) RegisterPlayer(ctx context.Context, chatID, identifier string) (*domain.Player, error) {
	profile, err := s.resolver.LookupUser(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("resolve osu user: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOsuUser, identifier)
	}

	player, err := s.players.Upsert(ctx, &domain.Player{
		ChatID:      chatID,
		OsuUserID:   strconv.FormatInt(profile.ID, 10),
		OsuUsername: profile.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("store player: %w", err)
	}

	s.logger.Printf("registered %s as osu user %s (%s)", chatID, player.OsuUsername, player.OsuUserID)
	return player, nil
}

// SyncPlayer runs an on-demand recent-play sync for a registered chat user.
// Returns the number of newly stored plays.
func (s *Service) SyncPlayer(ctx context.Context, chatID string) (int, error) {
	player, err := s.players.GetByChatID(ctx, chatID)
	if err != nil {
		return 0, fmt.Errorf("lookup player: %w", err)
	}
	return s.syncer.SyncPlayerRecent(ctx, player)
}

// CumulativePush totals a player's push values, all-time when sinceHours is
// nil or over the trailing window otherwise.
func (s *Service) CumulativePush(ctx context.Context, chatID string, sinceHours *int) (float64, error) {
	player, err := s.players.GetByChatID(ctx, chatID)
	if err != nil {
		return 0, fmt.Errorf("lookup player: %w", err)
	}

	var since *time.Time
	if sinceHours != nil {
		t := s.now().UTC().Add(-time.Duration(*sinceHours) * time.Hour)
		since = &t
	}
	return s.plays.SumPushValues(ctx, player.ID, since)
}

// MonthlyBaseline returns (computing if needed) the player's baseline for
// the given "YYYY-MM" month; an empty month means the current UTC month.
func (s *Service) MonthlyBaseline(ctx context.Context, chatID, month string) (*domain.MonthlyBaseline, error) {
	player, err := s.players.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("lookup player: %w", err)
	}
	if month == "" {
		month = domain.MonthKeyOf(s.now())
	}
	return s.syncer.EnsureBaseline(ctx, player, month)
}

// RecentPlays lists a registered chat user's stored plays from the trailing
// window, newest first.
func (s *Service) RecentPlays(ctx context.Context, chatID string, sinceHours int) ([]*domain.Play, error) {
	player, err := s.players.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("lookup player: %w", err)
	}
	since := s.now().UTC().Add(-time.Duration(sinceHours) * time.Hour)
	return s.plays.ListSince(ctx, player.ID, since)
}

// Leaderboard ranks all registered players by cumulative push value.
func (s *Service) Leaderboard(ctx context.Context, sinceHours *int) ([]domain.LeaderboardEntry, error) {
	return s.board.Build(ctx, sinceHours)
}

// StarHistogram returns the current-month difficulty distribution of a
// registered chat user's plays.
func (s *Service) StarHistogram(ctx context.Context, chatID string) ([]leaderboard.HistogramBucket, error) {
	player, err := s.players.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("lookup player: %w", err)
	}
	return s.board.StarHistogram(ctx, player.ID)
}
