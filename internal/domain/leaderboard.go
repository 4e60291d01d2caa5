package domain

import "time"

// LeaderboardEntry is a single ranked row of a push-value leaderboard.
type LeaderboardEntry struct {
	Rank           int
	PlayerID       string
	OsuUsername    string
	CumulativePush float64
}

// LeaderboardSnapshot preserves a computed leaderboard for later inspection.
// Corresponds to leaderboard_snapshots table in PostgreSQL.
type LeaderboardSnapshot struct {
	ID          string    // PRIMARY KEY, uuid
	GeneratedAt time.Time // UTC
	ScopeHours  *int      // nil for all-time
	Entries     []LeaderboardEntry
}
