package domain

// MonthlyBaseline holds a player's per-month reference statistics derived from
// their top plays. Corresponds to monthly_baselines table in PostgreSQL.
// A baseline is computed once per (player, month) and never recomputed, even
// when better plays arrive later in the month; the ranking pivot stays stable.
type MonthlyBaseline struct {
	ID              string // PRIMARY KEY, uuid
	PlayerID        string // FK to players
	Month           string // "YYYY-MM", UTC
	Top10AvgStars   float64
	Top10MissSum    int
	TS              float64 // composite baseline statistic
	PP50Threshold   float64 // pp of the 50th best play, 0 if fewer than 50
}
