package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxviazov/scorebook-stats-service/internal/cache"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
)

// rosterService owns teams, seasons and the plain add-player path.
type rosterService struct {
	teams   repository.TeamRepository
	seasons repository.SeasonRepository
	players repository.PlayerRepository
	sheets  cache.StatsCache
	log     zerolog.Logger
}

func NewRosterService(st Stores, sheets cache.StatsCache, logger zerolog.Logger) RosterService {
	l := logger.With().Str("module", "service").Str("component", "roster").Logger()
	if sheets == nil {
		sheets = cache.NoopStatsCache{}
	}
	return &rosterService{teams: st.Teams, seasons: st.Seasons, players: st.Players, sheets: sheets, log: l}
}

func (s *rosterService) CreateTeam(ctx context.Context, ownerID, name string) (model.Team, error) {
	start := time.Now()
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return model.Team{}, ErrUnauthorized
	}
	name = normalizeName(name)
	if ferrs := checkName("name", name); ferrs != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("team validation failed")
		return model.Team{}, newInvalidInput(ferrs)
	}

	out, err := s.teams.Create(ctx, model.Team{OwnerID: ownerID, Name: name})
	if err != nil {
		s.log.Error().Err(err).Str("name", name).Msg("create team failed")
		return model.Team{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Str("team_id", out.ID.String()).Msg("team created")
	return out, nil
}

func (s *rosterService) GetTeam(ctx context.Context, teamID uuid.UUID) (model.Team, error) {
	return s.teams.GetByID(ctx, teamID)
}

func (s *rosterService) ListTeams(ctx context.Context, ownerID string, page repository.Page) (repository.PageResult[model.Team], error) {
	p := normalizePage(page)
	res, err := s.teams.ListByOwner(ctx, ownerID, p)
	if err != nil {
		s.log.Error().Err(err).Int("limit", p.Limit).Int("offset", p.Offset).Msg("list teams failed")
		return repository.PageResult[model.Team]{}, err
	}
	return res, nil
}

func (s *rosterService) Authorize(ctx context.Context, principal string, teamID uuid.UUID) (model.Team, error) {
	return authorize(ctx, s.teams, principal, teamID)
}

// authorize is shared by every owner-only operation.
func authorize(ctx context.Context, teams repository.TeamRepository, principal string, teamID uuid.UUID) (model.Team, error) {
	team, err := teams.GetByID(ctx, teamID)
	if err != nil {
		return model.Team{}, err
	}
	if principal == "" || team.OwnerID != principal {
		return model.Team{}, ErrUnauthorized
	}
	return team, nil
}

func (s *rosterService) CreateSeason(ctx context.Context, principal string, teamID uuid.UUID, name string) (model.Season, error) {
	if _, err := authorize(ctx, s.teams, principal, teamID); err != nil {
		return model.Season{}, err
	}
	name = normalizeName(name)
	if ferrs := checkName("name", name); ferrs != nil {
		return model.Season{}, newInvalidInput(ferrs)
	}
	out, err := s.seasons.Create(ctx, model.Season{TeamID: teamID, Name: name})
	if err != nil {
		s.log.Error().Err(err).Str("team_id", teamID.String()).Msg("create season failed")
		return model.Season{}, err
	}
	s.log.Info().Str("team_id", teamID.String()).Str("season_id", out.ID.String()).Msg("season created")
	return out, nil
}

func (s *rosterService) ListSeasons(ctx context.Context, teamID uuid.UUID) ([]model.Season, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, err
	}
	return s.seasons.ListByTeam(ctx, teamID)
}

func (s *rosterService) AddPlayer(ctx context.Context, principal string, teamID uuid.UUID, name string) (model.Player, error) {
	if _, err := authorize(ctx, s.teams, principal, teamID); err != nil {
		return model.Player{}, err
	}
	name = normalizeName(name)
	if name == "" {
		return model.Player{}, ErrEmptyName
	}
	if ferrs := checkName("name", name); ferrs != nil {
		return model.Player{}, newInvalidInput(ferrs)
	}
	out, err := s.players.Create(ctx, model.Player{TeamID: teamID, Name: name})
	if err != nil {
		if !errors.Is(err, repository.ErrAlreadyExists) {
			s.log.Error().Err(err).Str("team_id", teamID.String()).Msg("add player failed")
		}
		return model.Player{}, err
	}
	// Sheets list the whole roster, so a new player changes them.
	if err := s.sheets.Invalidate(ctx, teamID); err != nil {
		s.log.Warn().Err(err).Str("team_id", teamID.String()).Msg("stats cache invalidation failed")
	}
	s.log.Info().Str("team_id", teamID.String()).Str("player_id", out.ID.String()).Msg("player added")
	return out, nil
}

func (s *rosterService) ListPlayers(ctx context.Context, teamID uuid.UUID) ([]model.Player, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, err
	}
	return s.players.ListByTeam(ctx, teamID)
}
