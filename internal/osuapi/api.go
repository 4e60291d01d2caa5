package osuapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"osu-push-tracker/internal/domain"
)

// Page size and window limits imposed by the osu! API.
const (
	maxPageSize    = 50
	maxBestWindow  = 100
	maxRecentLimit = 50
)

// API exposes domain-shaped osu! operations on top of the rate-limited
// client, hiding pagination and mod-dependent difficulty recalculation.
type API struct {
	c *Client
}

// NewAPI wraps a rate-limited client.
func NewAPI(c *Client) *API {
	return &API{c: c}
}

// LookupUser resolves a username or numeric id to a profile. A user that
// cannot be resolved yields (nil, nil); callers treat absence as "no data".
func (a *API) LookupUser(ctx context.Context, identifier string) (*UserProfile, error) {
	data, err := a.c.Get(ctx, "/users/"+url.PathEscape(identifier)+"/"+ModeOsu, nil)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, nil
		}
		return nil, err
	}

	var profile UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decode user profile: %w", err)
	}
	if profile.ID == 0 {
		return nil, nil
	}
	return &profile, nil
}

// UserBest fetches up to limit best scores for a user, paginating in pages
// of at most 50 and stopping early when a short page signals the end of
// data. Difficulty ratings are recalculated for mod sets that alter them.
func (a *API) UserBest(ctx context.Context, userID int64, limit int, mode string) ([]Score, error) {
	if limit <= 0 || limit > maxBestWindow {
		limit = maxBestWindow
	}

	var scores []Score
	for offset := 0; offset < limit; {
		pageSize := limit - offset
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		query := url.Values{}
		query.Set("mode", mode)
		query.Set("limit", strconv.Itoa(pageSize))
		query.Set("offset", strconv.Itoa(offset))

		data, err := a.c.Get(ctx, fmt.Sprintf("/users/%d/scores/best", userID), query)
		if err != nil {
			return nil, err
		}

		var page []Score
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("decode best scores page: %w", err)
		}

		scores = append(scores, page...)
		if len(page) < pageSize {
			break
		}
		offset += len(page)
	}

	a.recalcDifficulty(ctx, scores, mode)
	return scores, nil
}

// UserRecent fetches up to limit recent scores for a user, optionally
// including failed plays. Difficulty ratings are recalculated for mod sets
// that alter them.
func (a *API) UserRecent(ctx context.Context, userID int64, limit int, mode string, includeFails bool) ([]Score, error) {
	if limit <= 0 || limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	query := url.Values{}
	query.Set("mode", mode)
	query.Set("limit", strconv.Itoa(limit))
	if includeFails {
		query.Set("include_fails", "1")
	} else {
		query.Set("include_fails", "0")
	}

	data, err := a.c.Get(ctx, fmt.Sprintf("/users/%d/scores/recent", userID), query)
	if err != nil {
		return nil, err
	}

	var scores []Score
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, fmt.Errorf("decode recent scores: %w", err)
	}

	a.recalcDifficulty(ctx, scores, mode)
	return scores, nil
}

// BeatmapAttributes fetches the difficulty rating of a beatmap under the
// given mod set. Returns (nil, nil) when the rating is unavailable.
func (a *API) BeatmapAttributes(ctx context.Context, beatmapID int64, mods []string, mode string) (*float64, error) {
	body := map[string]any{
		"mods":    mods,
		"ruleset": mode,
	}

	data, err := a.c.Post(ctx, fmt.Sprintf("/beatmaps/%d/attributes", beatmapID), nil, body)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, nil
		}
		return nil, err
	}

	var attrs beatmapAttributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("decode beatmap attributes: %w", err)
	}
	return attrs.Attributes.StarRating, nil
}

// recalcDifficulty overwrites each score's difficulty rating with the
// mod-adjusted value when the applied mod set can alter it. A failed
// recalculation leaves the rating explicitly unknown rather than stale.
// Lookups fan out concurrently; each still serializes through the shared
// request queue, so concurrency overlaps wait time only.
func (a *API) recalcDifficulty(ctx context.Context, scores []Score, mode string) {
	var wg sync.WaitGroup
	for i := range scores {
		s := &scores[i]
		if s.Beatmap == nil || !domain.AltersDifficulty(s.Mods()) {
			continue
		}

		wg.Add(1)
		go func(s *Score) {
			defer wg.Done()
			sr, err := a.BeatmapAttributes(ctx, s.Beatmap.ID, s.Mods(), mode)
			if err != nil {
				s.Beatmap.DifficultyRating = nil
				return
			}
			s.Beatmap.DifficultyRating = sr
		}(s)
	}
	wg.Wait()
}
