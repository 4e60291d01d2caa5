package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/storage"
	"osu-push-tracker/internal/storage/postgres"
)

func insertTestPlayer(t *testing.T, pool *postgres.Pool, chatID string) *domain.Player {
	t.Helper()

	players := postgres.NewPlayerStore(pool)
	p, err := players.Upsert(context.Background(), &domain.Player{
		ChatID:       chatID,
		OsuUserID:    "1001",
		OsuUsername:  "player-" + chatID,
		RegisteredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return p
}

func TestPlayStore_Postgres_IdempotentInsert(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	player := insertTestPlayer(t, pool, "chat-1")
	store := postgres.NewPlayStore(pool)

	play := &domain.Play{
		PlayerID:         player.ID,
		Timestamp:        time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC),
		BeatmapID:        "42",
		MapLengthSeconds: 120,
		StarRating:       5.2,
		MissCount:        3,
		AccuracyPercent:  96.5,
		PP:               123.4,
		PushValue:        ptr(80.0),
		Source:           domain.PlaySourceRecent,
	}

	require.NoError(t, store.Insert(ctx, play))

	dup := *play
	dup.ID = ""
	err := store.Insert(ctx, &dup)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	plays, err := store.ListMonth(ctx, player.ID, 2025, time.September)
	require.NoError(t, err)
	assert.Len(t, plays, 1, "duplicate insert must not create a second row")
	assert.Equal(t, 96.5, plays[0].AccuracyPercent)
	require.NotNil(t, plays[0].PushValue)
	assert.Equal(t, 80.0, *plays[0].PushValue)
}

func TestPlayStore_Postgres_SumPushValues(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	player := insertTestPlayer(t, pool, "chat-1")
	store := postgres.NewPlayStore(pool)

	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	values := []*float64{ptr(100.0), ptr(-30.0), nil, ptr(55.0)}
	for i, v := range values {
		require.NoError(t, store.Insert(ctx, &domain.Play{
			PlayerID:  player.ID,
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			BeatmapID: "map",
			PushValue: v,
			Source:    domain.PlaySourceRecent,
		}))
	}

	total, err := store.SumPushValues(ctx, player.ID, nil)
	require.NoError(t, err)
	assert.InDelta(t, 125.0, total, 1e-9)

	since := base.Add(36 * time.Hour)
	total, err = store.SumPushValues(ctx, player.ID, &since)
	require.NoError(t, err)
	assert.InDelta(t, 55.0, total, 1e-9)
}

func TestBaselineStore_Postgres_FirstWriterWins(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	player := insertTestPlayer(t, pool, "chat-1")
	store := postgres.NewBaselineStore(pool)

	first := &domain.MonthlyBaseline{
		PlayerID:      player.ID,
		Month:         "2025-09",
		Top10AvgStars: 6.0,
		Top10MissSum:  25,
		TS:            5.5,
		PP50Threshold: 180,
	}
	require.NoError(t, store.Insert(ctx, first))

	second := &domain.MonthlyBaseline{PlayerID: player.ID, Month: "2025-09", TS: 9.9}
	assert.ErrorIs(t, store.Insert(ctx, second), storage.ErrDuplicateKey)

	got, err := store.Get(ctx, player.ID, "2025-09")
	require.NoError(t, err)
	assert.Equal(t, 5.5, got.TS)
	assert.Equal(t, 180.0, got.PP50Threshold)

	_, err = store.Get(ctx, player.ID, "2025-10")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSnapshotStore_Postgres_Insert(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewSnapshotStore(pool)

	err := store.Insert(ctx, &domain.LeaderboardSnapshot{
		GeneratedAt: time.Now().UTC(),
		ScopeHours:  ptr(12),
		Entries: []domain.LeaderboardEntry{
			{Rank: 1, PlayerID: "p1", OsuUsername: "a", CumulativePush: 300},
			{Rank: 2, PlayerID: "p2", OsuUsername: "b", CumulativePush: 120},
		},
	})
	require.NoError(t, err)
}
