// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes; the only behavior here is
// field access on StatRecord, which every layer needs.
package model

import (
	"time"

	"github.com/google/uuid"
)

// GameSource tells where a game's stat lines came from.
type GameSource string

const (
	SourceManual GameSource = "manual"
	SourceUpload GameSource = "upload"
	SourceSMS    GameSource = "sms"
)

// Valid reports whether s is one of the known sources.
func (s GameSource) Valid() bool {
	switch s {
	case SourceManual, SourceUpload, SourceSMS:
		return true
	default:
		return false
	}
}

// Team is the root aggregate. Players, seasons and games hang off it.
type Team struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Season groups games for filtering.
type Season struct {
	ID        uuid.UUID `json:"id"`
	TeamID    uuid.UUID `json:"team_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Player belongs to exactly one team.
type Player struct {
	ID        uuid.UUID `json:"id"`
	TeamID    uuid.UUID `json:"team_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Game is created once per ingestion event.
type Game struct {
	ID        uuid.UUID  `json:"id"`
	TeamID    uuid.UUID  `json:"team_id"`
	SeasonID  uuid.UUID  `json:"season_id"`
	GameDate  time.Time  `json:"game_date"`
	Source    GameSource `json:"source"`
	CreatedAt time.Time  `json:"created_at"`
}

// Result is one player's line for one game.
type Result struct {
	ID        uuid.UUID  `json:"id"`
	GameID    uuid.UUID  `json:"game_id"`
	PlayerID  uuid.UUID  `json:"player_id"`
	Stats     StatRecord `json:"stats"`
	CreatedAt time.Time  `json:"created_at"`
}

// ResultWithPlayer is a result joined with its player's display name.
type ResultWithPlayer struct {
	Result
	PlayerName string `json:"player_name"`
}

// GameWithResults is the hydrated read model returned after ingestion.
type GameWithResults struct {
	Game
	SeasonName string             `json:"season_name"`
	Results    []ResultWithPlayer `json:"results"`
}

// ExtractedPlayerStat is a single row read off a scorebook image.
// It is consumed by the resolver right away and never stored as-is.
type ExtractedPlayerStat struct {
	PlayerName string     `json:"playerName"`
	Stats      StatRecord `json:"stats"`
}

// PlayerStatInput is one (token, stats) pair handed to ingestion. Token is either
// a player ID or a free-text name.
type PlayerStatInput struct {
	Token string     `json:"player"`
	Stats StatRecord `json:"stats"`
}

// ResultStatsUpdate overwrites the stats of a single existing result row.
type ResultStatsUpdate struct {
	ResultID uuid.UUID  `json:"result_id"`
	Stats    StatRecord `json:"stats"`
}
