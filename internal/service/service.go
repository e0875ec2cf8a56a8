// Package service holds the use cases behind the HTTP handlers and the CLI:
// roster management, player resolution, game ingestion, scorebook submission
// and stat sheets. It coordinates repositories and shapes domain errors; SQL
// and transport details stay out.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/maxviazov/scorebook-stats-service/internal/extractor"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
	"github.com/maxviazov/scorebook-stats-service/internal/vision"
)

// Domain errors callers branch on. Each maps to a distinct HTTP status in
// pkg/response.
var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrEmptyName       = errors.New("player name is empty")
	ErrInvalidMerge    = errors.New("invalid merge")
	ErrUnauthorized    = errors.New("not authorized for this team")
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrExtractionFailure is re-exported so callers need not import the extractor.
	ErrExtractionFailure = extractor.ErrExtractionFailure
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// NewInvalidInputError lets outer layers report request parsing failures
// in the same shape as service validation. It returns nil for no fields.
func NewInvalidInputError(fe []FieldError) error { return newInvalidInput(fe) }

func invalidField(field, msg string) error {
	return newInvalidInput([]FieldError{{Field: field, Message: msg}})
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	var ie interface{ Fields() []FieldError }
	if errors.As(err, &ie) {
		return ie.Fields()
	}
	return nil
}

// Stores bundles the repositories the services share.
type Stores struct {
	Tx      repository.TxManager
	Teams   repository.TeamRepository
	Seasons repository.SeasonRepository
	Players repository.PlayerRepository
	Games   repository.GameRepository
	Results repository.ResultRepository
}

// RosterService manages teams, seasons and players.
type RosterService interface {
	CreateTeam(ctx context.Context, ownerID, name string) (model.Team, error)
	GetTeam(ctx context.Context, teamID uuid.UUID) (model.Team, error)
	ListTeams(ctx context.Context, ownerID string, page repository.Page) (repository.PageResult[model.Team], error)
	// Authorize returns the team when principal owns it, ErrUnauthorized otherwise.
	Authorize(ctx context.Context, principal string, teamID uuid.UUID) (model.Team, error)
	CreateSeason(ctx context.Context, principal string, teamID uuid.UUID, name string) (model.Season, error)
	ListSeasons(ctx context.Context, teamID uuid.UUID) ([]model.Season, error)
	AddPlayer(ctx context.Context, principal string, teamID uuid.UUID, name string) (model.Player, error)
	ListPlayers(ctx context.Context, teamID uuid.UUID) ([]model.Player, error)
}

// MergeSummary reports what a merge did with the source player's results.
type MergeSummary struct {
	Reassigned int `json:"reassigned"`
	Discarded  int `json:"discarded"`
}

// PlayerResolver maps name-or-id tokens to players and maintains the roster.
type PlayerResolver interface {
	// Resolve looks a UUID token up directly; anything else is a name that is
	// matched case-insensitively or created.
	Resolve(ctx context.Context, teamID uuid.UUID, token string) (model.Player, bool, error)
	Rename(ctx context.Context, principal string, teamID, playerID uuid.UUID, newName string) (model.Player, error)
	// Merge moves source's results to target. Where both played the same game
	// the target's line wins and the source's is discarded.
	Merge(ctx context.Context, principal string, teamID, sourceID, targetID uuid.UUID) (MergeSummary, error)
}

// IngestRequest is one game's worth of stat lines.
type IngestRequest struct {
	TeamID   uuid.UUID
	SeasonID uuid.UUID
	GameDate time.Time
	Source   model.GameSource
	Stats    []model.PlayerStatInput
}

// IngestResult carries the hydrated game and the players created on the way.
type IngestResult struct {
	Game       model.GameWithResults `json:"game"`
	NewPlayers []model.Player        `json:"new_players"`
}

// IngestionService creates and maintains games and their results.
type IngestionService interface {
	Ingest(ctx context.Context, req IngestRequest) (IngestResult, error)
	// Update replaces the game's results with stats, diffing against what is stored.
	Update(ctx context.Context, teamID, gameID uuid.UUID, stats []model.PlayerStatInput) (IngestResult, error)
	EditResultStats(ctx context.Context, teamID uuid.UUID, updates []model.ResultStatsUpdate) ([]model.Result, error)
	GetGame(ctx context.Context, teamID, gameID uuid.UUID) (model.GameWithResults, error)
	ListGames(ctx context.Context, teamID uuid.UUID, seasonID *uuid.UUID, page repository.Page) (repository.PageResult[model.Game], error)
	DeleteGame(ctx context.Context, teamID, gameID uuid.UUID) error
}

// SubmitRequest is a scorebook image headed for extraction and ingestion.
// A nil SeasonID means the team's latest season; a zero GameDate means today.
type SubmitRequest struct {
	TeamID   uuid.UUID
	SeasonID *uuid.UUID
	GameDate time.Time
	Source   model.GameSource
	Image    vision.Image
}

// SubmitResult adds the rows the extractor flagged to the ingestion result.
type SubmitResult struct {
	IngestResult
	Flagged []extractor.Flagged `json:"flagged,omitempty"`
}

// SubmissionService runs the image → stats → game pipeline.
type SubmissionService interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error)
}

// StatsFilter narrows the results fed into aggregation. At most one field may be set.
type StatsFilter struct {
	SeasonID *uuid.UUID
	GameID   *uuid.UUID
}

// Leader is one player's line in the cross-team leaderboard.
type Leader struct {
	PlayerID uuid.UUID        `json:"player_id"`
	Name     string           `json:"name"`
	TeamID   uuid.UUID        `json:"team_id"`
	TeamName string           `json:"team_name"`
	GP       int              `json:"GP"`
	Totals   model.StatRecord `json:"totals"`
	Rates    stats.Rates      `json:"rates"`
}

// OwnerSummary counts what one owner has recorded and lists the top hitters
// across all of their teams.
type OwnerSummary struct {
	Teams   int      `json:"teams"`
	Players int      `json:"players"`
	Games   int      `json:"games"`
	Leaders []Leader `json:"leaders"`
}

// StatsService builds stat sheets.
type StatsService interface {
	TeamStats(ctx context.Context, teamID uuid.UUID, f StatsFilter) (stats.Sheet, error)
	OwnerLeaders(ctx context.Context, ownerID string, limit int) (OwnerSummary, error)
}
