package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
type TxFunc func(ctx context.Context) error

// TxManager runs fn in one transaction. Repositories called with the ctx
// handed to fn join that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// TeamRepository declares persistence operations for teams.
type TeamRepository interface {
	Create(ctx context.Context, t model.Team) (model.Team, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Team, error)
	ListByOwner(ctx context.Context, ownerID string, p Page) (PageResult[model.Team], error)
}

// SeasonRepository declares persistence operations for seasons.
type SeasonRepository interface {
	Create(ctx context.Context, s model.Season) (model.Season, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Season, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.Season, error)
	// Latest returns the most recently created season of a team.
	Latest(ctx context.Context, teamID uuid.UUID) (model.Season, error)
}

// PlayerRepository declares persistence operations for the roster.
// Names are unique per team ignoring case.
type PlayerRepository interface {
	// Create fails with ErrAlreadyExists when the name is taken.
	Create(ctx context.Context, p model.Player) (model.Player, error)
	// CreateIfAbsent inserts p unless a case-insensitive name match exists,
	// and returns whichever row ends up owning the name. It is safe under
	// concurrent identical inserts.
	CreateIfAbsent(ctx context.Context, p model.Player) (model.Player, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Player, error)
	// FindByName matches case-insensitively, oldest first.
	FindByName(ctx context.Context, teamID uuid.UUID, name string) (model.Player, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.Player, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (model.Player, error)
	// Delete fails with ErrConflict while any result still references the player.
	Delete(ctx context.Context, id uuid.UUID) error
}

// GameFilter narrows game listings.
type GameFilter struct {
	SeasonID *uuid.UUID
}

// GameRepository declares persistence operations for games.
type GameRepository interface {
	Create(ctx context.Context, g model.Game) (model.Game, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Game, error)
	// GetWithResults hydrates a game with its results, player names and season name.
	GetWithResults(ctx context.Context, id uuid.UUID) (model.GameWithResults, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID, f GameFilter, p Page) (PageResult[model.Game], error)
	// Delete removes the game and, by cascade, its results.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ResultFilter selects the result subset fed into aggregation. Nil fields
// do not filter.
type ResultFilter struct {
	SeasonID *uuid.UUID
	GameID   *uuid.UUID
}

// ResultRepository declares persistence operations for per-game stat lines.
type ResultRepository interface {
	// InsertBatch inserts all rows in one statement; either all land or none.
	InsertBatch(ctx context.Context, rows []model.Result) ([]model.Result, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Result, error)
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]model.Result, error)
	ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]model.Result, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID, f ResultFilter) ([]model.Result, error)
	UpdateStats(ctx context.Context, id uuid.UUID, stats model.StatRecord) (model.Result, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
	ReassignPlayer(ctx context.Context, ids []uuid.UUID, playerID uuid.UUID) error
}
