package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/leaderboard"
	"osu-push-tracker/internal/osuapi"
	"osu-push-tracker/internal/storage"
	"osu-push-tracker/internal/storage/memory"
)

func ptr[T any](v T) *T { return &v }

type fakeResolver struct {
	profiles map[string]*osuapi.UserProfile
}

func (f *fakeResolver) LookupUser(ctx context.Context, identifier string) (*osuapi.UserProfile, error) {
	return f.profiles[identifier], nil
}

type fakeSyncer struct {
	synced   int
	baseline *domain.MonthlyBaseline
	months   []string
}

func (f *fakeSyncer) SyncPlayerRecent(ctx context.Context, player *domain.Player) (int, error) {
	f.synced++
	return 3, nil
}

func (f *fakeSyncer) EnsureBaseline(ctx context.Context, player *domain.Player, month string) (*domain.MonthlyBaseline, error) {
	f.months = append(f.months, month)
	return f.baseline, nil
}

type fakeBoard struct {
	entries []domain.LeaderboardEntry
	buckets []leaderboard.HistogramBucket
}

func (f *fakeBoard) Build(ctx context.Context, sinceHours *int) ([]domain.LeaderboardEntry, error) {
	return f.entries, nil
}

func (f *fakeBoard) StarHistogram(ctx context.Context, playerID string) ([]leaderboard.HistogramBucket, error) {
	return f.buckets, nil
}

type fixture struct {
	svc      *Service
	resolver *fakeResolver
	syncer   *fakeSyncer
	board    *fakeBoard
	players  *memory.PlayerStore
	plays    *memory.PlayStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	resolver := &fakeResolver{profiles: map[string]*osuapi.UserProfile{
		"cookiezi": {ID: 124493, Username: "Cookiezi"},
	}}
	syn := &fakeSyncer{baseline: &domain.MonthlyBaseline{Month: "2026-08", TS: 5.5}}
	board := &fakeBoard{}
	players := memory.NewPlayerStore()
	plays := memory.NewPlayStore()

	svc := New(resolver, syn, board, players, plays, nil)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	}
	return &fixture{svc: svc, resolver: resolver, syncer: syn, board: board, players: players, plays: plays}
}

func TestRegisterPlayer(t *testing.T) {
	f := newFixture(t)

	player, err := f.svc.RegisterPlayer(context.Background(), "chat-1", "cookiezi")
	require.NoError(t, err)
	assert.Equal(t, "124493", player.OsuUserID)
	assert.Equal(t, "Cookiezi", player.OsuUsername)

	stored, err := f.players.GetByChatID(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, player.ID, stored.ID)
}

func TestRegisterPlayer_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RegisterPlayer(context.Background(), "chat-1", "ghost")
	assert.ErrorIs(t, err, ErrUnknownOsuUser)
}

func TestSyncPlayer(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RegisterPlayer(context.Background(), "chat-1", "cookiezi")
	require.NoError(t, err)

	n, err := f.svc.SyncPlayer(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, f.syncer.synced)
}

func TestSyncPlayer_Unregistered(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SyncPlayer(context.Background(), "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCumulativePush(t *testing.T) {
	f := newFixture(t)
	player, err := f.svc.RegisterPlayer(context.Background(), "chat-1", "cookiezi")
	require.NoError(t, err)

	insert := func(ts time.Time, push float64) {
		require.NoError(t, f.plays.Insert(context.Background(), &domain.Play{
			ID:        uuid.NewString(),
			PlayerID:  player.ID,
			Timestamp: ts,
			BeatmapID: uuid.NewString(),
			PushValue: &push,
			Source:    domain.PlaySourceRecent,
		}))
	}
	insert(time.Date(2026, 8, 15, 6, 0, 0, 0, time.UTC), 100) // inside 24h
	insert(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 50)   // outside 24h

	total, err := f.svc.CumulativePush(context.Background(), "chat-1", nil)
	require.NoError(t, err)
	assert.InDelta(t, 150.0, total, 1e-9)

	total, err = f.svc.CumulativePush(context.Background(), "chat-1", ptr(24))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, total, 1e-9)
}

func TestRecentPlays(t *testing.T) {
	f := newFixture(t)
	player, err := f.svc.RegisterPlayer(context.Background(), "chat-1", "cookiezi")
	require.NoError(t, err)

	insert := func(ts time.Time) {
		require.NoError(t, f.plays.Insert(context.Background(), &domain.Play{
			ID:        uuid.NewString(),
			PlayerID:  player.ID,
			Timestamp: ts,
			BeatmapID: uuid.NewString(),
			Source:    domain.PlaySourceRecent,
		}))
	}
	insert(time.Date(2026, 8, 15, 6, 0, 0, 0, time.UTC))
	insert(time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC))
	insert(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) // outside window

	plays, err := f.svc.RecentPlays(context.Background(), "chat-1", 24)
	require.NoError(t, err)
	require.Len(t, plays, 2)
	// Newest first.
	assert.True(t, plays[0].Timestamp.After(plays[1].Timestamp))
}

func TestMonthlyBaseline_DefaultsToCurrentMonth(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RegisterPlayer(context.Background(), "chat-1", "cookiezi")
	require.NoError(t, err)

	b, err := f.svc.MonthlyBaseline(context.Background(), "chat-1", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-08", b.Month)
	assert.Equal(t, []string{"2026-08"}, f.syncer.months)

	_, err = f.svc.MonthlyBaseline(context.Background(), "chat-1", "2026-07")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08", "2026-07"}, f.syncer.months)
}

func TestStarHistogram(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RegisterPlayer(context.Background(), "chat-1", "cookiezi")
	require.NoError(t, err)

	f.board.buckets = []leaderboard.HistogramBucket{{LowerBound: 5.0, Count: 2}}

	buckets, err := f.svc.StarHistogram(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Len(t, buckets, 1)
}
