// Package syncer orchestrates the ingestion pipeline: fetch recent plays,
// ensure the player's monthly baseline, then filter, score and idempotently
// persist each play.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"osu-push-tracker/internal/domain"
	"osu-push-tracker/internal/observability"
	"osu-push-tracker/internal/osuapi"
	"osu-push-tracker/internal/scoring"
	"osu-push-tracker/internal/storage"
)

// Fetch window sizes.
const (
	recentWindow = 50
	bestWindow   = 100
	top10Count   = 10
	pp50Rank     = 50
)

// GameAPI is the subset of the osu! API the syncer consumes.
type GameAPI interface {
	UserRecent(ctx context.Context, userID int64, limit int, mode string, includeFails bool) ([]osuapi.Score, error)
	UserBest(ctx context.Context, userID int64, limit int, mode string) ([]osuapi.Score, error)
}

// Syncer runs the per-player ingestion pipeline.
type Syncer struct {
	api       GameAPI
	players   storage.PlayerStore
	plays     storage.PlayStore
	baselines storage.BaselineStore
	logger    *log.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Syncer. A nil logger falls back to a default stdout logger.
func New(api GameAPI, players storage.PlayerStore, plays storage.PlayStore, baselines storage.BaselineStore, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(os.Stdout, "[syncer] ", log.LstdFlags)
	}
	return &Syncer{
		api:       api,
		players:   players,
		plays:     plays,
		baselines: baselines,
		logger:    logger,
		now:       time.Now,
	}
}

// RunResult summarizes a batch run. Per-player failures are collected, not
// propagated; one player's error never aborts the rest of the batch.
type RunResult struct {
	Players       int
	PlaysIngested int
	Baselines     int
	Errors        []string
}

// SyncPlayerRecent fetches the player's recent plays (fails included) and
// persists every play that survives filtering, scored against the baseline
// of the play's own calendar month. Returns the number of newly stored
// plays. An empty or unavailable recent window is a successful no-op.
func (s *Syncer) SyncPlayerRecent(ctx context.Context, player *domain.Player) (int, error) {
	userID, err := strconv.ParseInt(player.OsuUserID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("player %s has invalid osu user id %q: %w", player.ID, player.OsuUserID, err)
	}

	scores, err := s.api.UserRecent(ctx, userID, recentWindow, osuapi.ModeOsu, true)
	if err != nil {
		if errors.Is(err, osuapi.ErrUnavailable) {
			// No data this cycle; the next half-hourly run catches up.
			s.logger.Printf("recent scores unavailable for %s, skipping cycle", player.OsuUsername)
			return 0, nil
		}
		return 0, fmt.Errorf("fetch recent scores: %w", err)
	}
	if len(scores) == 0 {
		return 0, nil
	}

	// A play's push value always pivots on the baseline of the play's own
	// calendar month, so a window straddling a month rollover can need more
	// than one. Baselines are cached forever, making per-month lookups cheap.
	baselines := map[string]*domain.MonthlyBaseline{}

	inserted := 0
	for i := range scores {
		play, srKnown, skipReason := s.transform(player, &scores[i])
		if play == nil {
			observability.RecordPlaySkipped(skipReason)
			continue
		}

		if srKnown {
			month := play.MonthKey()
			baseline, ok := baselines[month]
			if !ok {
				baseline, err = s.EnsureBaseline(ctx, player, month)
				if err != nil {
					return inserted, fmt.Errorf("ensure baseline %s: %w", month, err)
				}
				baselines[month] = baseline
			}

			push := scoring.PushValue(scoring.PushInputs{
				PP:               play.PP,
				StarRating:       play.StarRating,
				TS:               baseline.TS,
				AccuracyPercent:  play.AccuracyPercent,
				MapLengthSeconds: play.MapLengthSeconds,
				PP50Threshold:    baseline.PP50Threshold,
			})
			play.PushValue = &push
		}

		err := s.plays.Insert(ctx, play)
		switch {
		case err == nil:
			inserted++
			observability.RecordPlayIngested()
		case errors.Is(err, storage.ErrDuplicateKey):
			// Already ingested in a previous cycle; silent no-op.
			observability.RecordPlaySkipped("duplicate")
		default:
			return inserted, fmt.Errorf("insert play: %w", err)
		}
	}

	return inserted, nil
}

// EnsureBaseline returns the player's baseline for the given month, computing
// and persisting it from the top-100 best plays if absent. Once stored, a
// baseline is never recomputed; if a concurrent computation races, the first
// writer wins and its values stand.
func (s *Syncer) EnsureBaseline(ctx context.Context, player *domain.Player, month string) (*domain.MonthlyBaseline, error) {
	baseline, err := s.baselines.Get(ctx, player.ID, month)
	if err == nil {
		return baseline, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get baseline: %w", err)
	}

	userID, err := strconv.ParseInt(player.OsuUserID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("player %s has invalid osu user id %q: %w", player.ID, player.OsuUserID, err)
	}

	best, err := s.api.UserBest(ctx, userID, bestWindow, osuapi.ModeOsu)
	if err != nil {
		return nil, fmt.Errorf("fetch best scores: %w", err)
	}

	baseline = computeBaseline(player.ID, month, best)
	if err := s.baselines.Insert(ctx, baseline); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return s.baselines.Get(ctx, player.ID, month)
		}
		return nil, fmt.Errorf("insert baseline: %w", err)
	}

	observability.RecordBaselineComputed()
	s.logger.Printf("computed baseline for %s %s: ts=%.3f pp50=%.1f",
		player.OsuUsername, month, baseline.TS, baseline.PP50Threshold)
	return baseline, nil
}

// SyncAllRecent runs the recent-play sync for every registered player,
// sequentially to keep the rate-limited queue shallow.
func (s *Syncer) SyncAllRecent(ctx context.Context) (*RunResult, error) {
	started := s.now()
	players, err := s.players.List(ctx)
	if err != nil {
		observability.RecordSyncRun("recent", "error", s.now().Sub(started).Seconds())
		return nil, fmt.Errorf("list players: %w", err)
	}

	result := &RunResult{Players: len(players)}
	for _, player := range players {
		n, err := s.SyncPlayerRecent(ctx, player)
		result.PlaysIngested += n
		if err != nil {
			if ctx.Err() != nil {
				observability.RecordSyncRun("recent", "cancelled", s.now().Sub(started).Seconds())
				return result, ctx.Err()
			}
			observability.RecordPlayerSyncError()
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", player.OsuUsername, err))
			s.logger.Printf("sync failed for %s: %v", player.OsuUsername, err)
			continue
		}
	}

	status := "ok"
	if len(result.Errors) > 0 {
		status = "partial"
	}
	observability.RecordSyncRun("recent", status, s.now().Sub(started).Seconds())
	return result, nil
}

// InitMonthlyBaselines eagerly computes the new month's baseline for every
// registered player. Meant for the start-of-month schedule so the first sync
// cycles of the month do not pay the top-100 fetch.
func (s *Syncer) InitMonthlyBaselines(ctx context.Context) (*RunResult, error) {
	started := s.now()
	players, err := s.players.List(ctx)
	if err != nil {
		observability.RecordSyncRun("baseline", "error", s.now().Sub(started).Seconds())
		return nil, fmt.Errorf("list players: %w", err)
	}

	month := domain.MonthKeyOf(s.now())
	result := &RunResult{Players: len(players)}
	for _, player := range players {
		if _, err := s.EnsureBaseline(ctx, player, month); err != nil {
			if ctx.Err() != nil {
				observability.RecordSyncRun("baseline", "cancelled", s.now().Sub(started).Seconds())
				return result, ctx.Err()
			}
			observability.RecordPlayerSyncError()
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", player.OsuUsername, err))
			s.logger.Printf("baseline init failed for %s: %v", player.OsuUsername, err)
			continue
		}
		result.Baselines++
	}

	status := "ok"
	if len(result.Errors) > 0 {
		status = "partial"
	}
	observability.RecordSyncRun("baseline", status, s.now().Sub(started).Seconds())
	return result, nil
}

// transform filters one raw score and converts it into an unscored Play.
// A nil play means the score is skipped; the last return value names the
// reason. srKnown is false when the mod recalculation failed upstream: such
// plays are stored for history but never scored.
func (s *Syncer) transform(player *domain.Player, score *osuapi.Score) (play *domain.Play, srKnown bool, skipReason string) {
	if score.Passed != nil && !*score.Passed {
		return nil, false, "failed"
	}
	mods := score.Mods()
	if domain.HasNoFail(mods) {
		return nil, false, "nofail"
	}
	ts := score.EndedAtUTC()
	if ts.IsZero() {
		return nil, false, "no_timestamp"
	}
	if score.Beatmap == nil || score.Beatmap.ID == 0 {
		return nil, false, "no_beatmap"
	}

	var pp float64
	if score.PP != nil {
		pp = *score.PP
	}

	play = &domain.Play{
		ID:               uuid.NewString(),
		PlayerID:         player.ID,
		Timestamp:        ts,
		BeatmapID:        strconv.FormatInt(score.Beatmap.ID, 10),
		MapLengthSeconds: score.Beatmap.TotalLength,
		MissCount:        score.Stats.CountMiss,
		AccuracyPercent:  score.Accuracy * 100,
		PP:               pp,
		Failed:           false,
		Source:           domain.PlaySourceRecent,
	}

	if score.Beatmap.DifficultyRating == nil {
		return play, false, ""
	}
	play.StarRating = *score.Beatmap.DifficultyRating
	return play, true, ""
}

// computeBaseline derives a month's baseline from a best-plays window:
// no-fail plays are excluded, the remainder is sorted by pp descending, the
// 50th pp value becomes the percentile threshold (0 if fewer than 50), and
// the top 10 feed the average-difficulty and miss-sum statistics.
func computeBaseline(playerID, month string, best []osuapi.Score) *domain.MonthlyBaseline {
	kept := make([]osuapi.Score, 0, len(best))
	for _, sc := range best {
		if domain.HasNoFail(sc.Mods()) {
			continue
		}
		kept = append(kept, sc)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return ppOf(&kept[i]) > ppOf(&kept[j])
	})

	var pp50 float64
	if len(kept) >= pp50Rank {
		pp50 = ppOf(&kept[pp50Rank-1])
	}

	top := kept
	if len(top) > top10Count {
		top = top[:top10Count]
	}

	var starSum float64
	var missSum int
	for i := range top {
		if top[i].Beatmap != nil && top[i].Beatmap.DifficultyRating != nil {
			starSum += *top[i].Beatmap.DifficultyRating
		}
		missSum += top[i].Stats.CountMiss
	}

	var avgStars float64
	if len(top) > 0 {
		avgStars = starSum / float64(len(top))
	}

	return &domain.MonthlyBaseline{
		ID:            uuid.NewString(),
		PlayerID:      playerID,
		Month:         month,
		Top10AvgStars: avgStars,
		Top10MissSum:  missSum,
		TS:            scoring.BaselineStat(avgStars, missSum),
		PP50Threshold: pp50,
	}
}

func ppOf(s *osuapi.Score) float64 {
	if s.PP == nil {
		return 0
	}
	return *s.PP
}
