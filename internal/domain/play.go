package domain

import "time"

// Play source constants.
const (
	PlaySourceRecent     = "recent"
	PlaySourceHistorical = "historical"
)

// Play represents a single scored performance.
// Corresponds to plays table in PostgreSQL.
// Identity is the (PlayerID, BeatmapID, Timestamp) tuple; the storage layer
// rejects duplicates with ErrDuplicateKey.
type Play struct {
	ID               string    // PRIMARY KEY, uuid
	PlayerID         string    // FK to players
	Timestamp        time.Time // play end time, UTC
	BeatmapID        string    // osu! beatmap id
	MapLengthSeconds float64   // total map length
	StarRating       float64   // effective (post-mod) difficulty; 0 when unknown
	MissCount        int
	AccuracyPercent  float64 // 0-100 scale
	PP               float64
	Failed           bool
	PushValue        *float64 // nil until computed
	Source           string   // PlaySourceRecent | PlaySourceHistorical
}

// MonthKey returns the "YYYY-MM" key of the play's own calendar month in UTC.
// Push values always pivot on the baseline of this month, not the month of
// ingestion.
func (p *Play) MonthKey() string {
	return MonthKeyOf(p.Timestamp)
}

// MonthKeyOf formats t as a "YYYY-MM" key in UTC.
func MonthKeyOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}
