package models

import "time"

// GameRecord is a row of the PostgreSQL games index. The full move log and
// derived state live in MongoDB; this table only supports listing and
// filtering a user's games.
type GameRecord struct {
	ID        string    `json:"id"`
	GameType  string    `json:"gameType"`
	Status    string    `json:"status"`
	Players   []string  `json:"players"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
