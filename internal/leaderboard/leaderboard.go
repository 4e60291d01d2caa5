// Package leaderboard ranks players by cumulative push value and prepares
// the per-player difficulty histogram served to the chat layer.
package leaderboard

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/observability"
	"osu-push-tracker/internal/storage"
)

// Histogram shape for star-rating distribution graphs.
const (
	histogramBucketWidth = 0.25
	histogramMaxStars    = 10.0
)

// Builder computes leaderboards from stored plays.
type Builder struct {
	players   storage.PlayerStore
	plays     storage.PlayStore
	snapshots storage.SnapshotStore
	logger    *log.Logger

	now func() time.Time
}

// New creates a Builder. A nil logger falls back to a default stdout logger.
func New(players storage.PlayerStore, plays storage.PlayStore, snapshots storage.SnapshotStore, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(os.Stdout, "[leaderboard] ", log.LstdFlags)
	}
	return &Builder{
		players:   players,
		plays:     plays,
		snapshots: snapshots,
		logger:    logger,
		now:       time.Now,
	}
}

// Build ranks every registered player by cumulative push value, all-time
// when sinceHours is nil or scoped to the trailing window otherwise. The
// computed board is persisted as a snapshot before being returned. Ties
// keep registration order; players with no scored plays rank with 0.
func (b *Builder) Build(ctx context.Context, sinceHours *int) ([]domain.LeaderboardEntry, error) {
	players, err := b.players.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	var since *time.Time
	if sinceHours != nil {
		t := b.now().UTC().Add(-time.Duration(*sinceHours) * time.Hour)
		since = &t
	}

	entries := make([]domain.LeaderboardEntry, 0, len(players))
	for _, p := range players {
		total, err := b.plays.SumPushValues(ctx, p.ID, since)
		if err != nil {
			return nil, fmt.Errorf("sum push values for %s: %w", p.OsuUsername, err)
		}
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID:       p.ID,
			OsuUsername:    p.OsuUsername,
			CumulativePush: total,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CumulativePush > entries[j].CumulativePush
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	snapshot := &domain.LeaderboardSnapshot{
		ID:          uuid.NewString(),
		GeneratedAt: b.now().UTC(),
		ScopeHours:  sinceHours,
		Entries:     entries,
	}
	if err := b.snapshots.Insert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	observability.RecordSnapshotGenerated()

	return entries, nil
}

// HistogramBucket is one bar of a star-rating distribution.
type HistogramBucket struct {
	LowerBound float64 // inclusive; bucket spans [LowerBound, LowerBound+0.25)
	Count      int
}

// StarHistogram buckets a player's current-month plays by difficulty in
// quarter-star steps. Plays with unknown difficulty are left out; ratings at
// or above the cap land in the last bucket. Only non-empty buckets are
// returned, ordered by bound.
func (b *Builder) StarHistogram(ctx context.Context, playerID string) ([]HistogramBucket, error) {
	now := b.now().UTC()
	plays, err := b.plays.ListMonth(ctx, playerID, now.Year(), now.Month())
	if err != nil {
		return nil, fmt.Errorf("list month plays: %w", err)
	}

	counts := map[float64]int{}
	for _, p := range plays {
		if p.PushValue == nil {
			continue // unknown difficulty, never scored
		}
		sr := p.StarRating
		if sr < 0 {
			sr = 0
		}
		if sr >= histogramMaxStars {
			sr = histogramMaxStars - histogramBucketWidth
		}
		bound := math.Floor(sr/histogramBucketWidth) * histogramBucketWidth
		counts[bound]++
	}

	buckets := make([]HistogramBucket, 0, len(counts))
	for bound, count := range counts {
		buckets = append(buckets, HistogramBucket{LowerBound: bound, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].LowerBound < buckets[j].LowerBound
	})
	return buckets, nil
}
