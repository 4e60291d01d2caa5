package osuapi

import (
	"encoding/json"
	"strings"
	"time"
)

// Ruleset constants. Only osu!standard is tracked.
const ModeOsu = "osu"

// UserProfile is the subset of the /users response the tracker needs.
type UserProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Score is a single play as returned by the score endpoints. Fields mirror
// the v2 API; BeatmapInfo.DifficultyRating is overwritten by the mod-aware
// recalculation and becomes nil when that recalculation fails.
type Score struct {
	ID        int64           `json:"id"`
	PP        *float64        `json:"pp"`
	Accuracy  float64         `json:"accuracy"` // 0..1 scale on the wire
	RawMods   json.RawMessage `json:"mods"`
	Stats     ScoreStatistics `json:"statistics"`
	Beatmap   *BeatmapInfo    `json:"beatmap"`
	Passed    *bool           `json:"passed"`
	EndedAt   string          `json:"ended_at"`
	CreatedAt string          `json:"created_at"`
}

// ScoreStatistics carries the per-judgement counts; only misses matter here.
type ScoreStatistics struct {
	CountMiss int `json:"count_miss"`
}

// BeatmapInfo is the embedded beatmap of a score.
type BeatmapInfo struct {
	ID               int64    `json:"id"`
	DifficultyRating *float64 `json:"difficulty_rating"`
	TotalLength      float64  `json:"total_length"`
}

// beatmapAttributes is the /beatmaps/{id}/attributes response.
type beatmapAttributes struct {
	Attributes struct {
		StarRating *float64 `json:"star_rating"`
	} `json:"attributes"`
}

// modObject is the lazer-style mod encoding.
type modObject struct {
	Acronym string `json:"acronym"`
}

// Mods decodes the score's mod list. The API serves either a plain acronym
// array (legacy) or objects with an acronym field (lazer); both normalize to
// uppercase acronyms. Undecodable payloads yield an empty set.
func (s *Score) Mods() []string {
	if len(s.RawMods) == 0 {
		return nil
	}

	var objs []modObject
	if err := json.Unmarshal(s.RawMods, &objs); err == nil {
		out := make([]string, 0, len(objs))
		for _, m := range objs {
			if m.Acronym != "" {
				out = append(out, strings.ToUpper(m.Acronym))
			}
		}
		return out
	}

	var plain []string
	if err := json.Unmarshal(s.RawMods, &plain); err == nil {
		for i, m := range plain {
			plain[i] = strings.ToUpper(m)
		}
		return plain
	}

	return nil
}

// EndedAtUTC resolves the play's end time, preferring ended_at over
// created_at, normalized to UTC. Returns the zero time when neither field
// parses.
func (s *Score) EndedAtUTC() time.Time {
	for _, raw := range []string{s.EndedAt, s.CreatedAt} {
		if raw == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
