package domain

import "time"

// Player represents a community member tracked by the bot.
// Corresponds to players table in PostgreSQL.
type Player struct {
	ID           string    // PRIMARY KEY, uuid
	ChatID       string    // chat-platform user id, unique
	OsuUserID    string    // osu! account id
	OsuUsername  string    // osu! display name at registration time
	RegisteredAt time.Time // UTC
}
