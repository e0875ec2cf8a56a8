package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxviazov/scorebook-stats-service/internal/cache"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
)

type statsService struct {
	st     Stores
	engine *stats.Engine
	sheets cache.StatsCache
	log    zerolog.Logger
}

func NewStatsService(st Stores, engine *stats.Engine, sheets cache.StatsCache, logger zerolog.Logger) StatsService {
	l := logger.With().Str("module", "service").Str("component", "stats").Logger()
	if sheets == nil {
		sheets = cache.NoopStatsCache{}
	}
	return &statsService{st: st, engine: engine, sheets: sheets, log: l}
}

func (f StatsFilter) variant() string {
	switch {
	case f.GameID != nil:
		return "game:" + f.GameID.String()
	case f.SeasonID != nil:
		return "season:" + f.SeasonID.String()
	default:
		return "all"
	}
}

func (s *statsService) TeamStats(ctx context.Context, teamID uuid.UUID, f StatsFilter) (stats.Sheet, error) {
	if f.GameID != nil && f.SeasonID != nil {
		return stats.Sheet{}, invalidField("filter", "use either season_id or game_id, not both")
	}
	if _, err := s.st.Teams.GetByID(ctx, teamID); err != nil {
		return stats.Sheet{}, err
	}

	variant := f.variant()
	if raw, ok, err := s.sheets.Get(ctx, teamID, variant); err != nil {
		s.log.Warn().Err(err).Str("team_id", teamID.String()).Msg("stats cache read failed")
	} else if ok {
		var sheet stats.Sheet
		if err := json.Unmarshal(raw, &sheet); err == nil {
			return sheet, nil
		}
	}

	if err := s.checkFilter(ctx, teamID, f); err != nil {
		return stats.Sheet{}, err
	}
	gen, genErr := s.sheets.Generation(ctx, teamID)
	if genErr != nil {
		s.log.Warn().Err(genErr).Str("team_id", teamID.String()).Msg("stats cache generation read failed")
	}
	players, err := s.st.Players.ListByTeam(ctx, teamID)
	if err != nil {
		return stats.Sheet{}, err
	}
	results, err := s.st.Results.ListByTeam(ctx, teamID, repository.ResultFilter{SeasonID: f.SeasonID, GameID: f.GameID})
	if err != nil {
		return stats.Sheet{}, err
	}
	if f.GameID != nil {
		players = appearing(players, results)
	}

	sheet := s.engine.BuildSheet(players, results)
	if genErr != nil {
		return sheet, nil
	}
	if raw, err := json.Marshal(sheet); err == nil {
		stored, err := s.sheets.Set(ctx, teamID, variant, gen, raw)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("team_id", teamID.String()).Msg("stats cache write failed")
		case !stored:
			s.log.Debug().Str("team_id", teamID.String()).Str("variant", variant).Msg("stats sheet superseded, not cached")
		}
	}
	return sheet, nil
}

const (
	defaultLeaderLimit = 3
	maxLeaderLimit     = 25
)

// OwnerLeaders folds the results of every team the owner holds and ranks the
// players who appeared in at least one game by wOBA. It is never cached.
func (s *statsService) OwnerLeaders(ctx context.Context, ownerID string, limit int) (OwnerSummary, error) {
	if ownerID == "" {
		return OwnerSummary{}, ErrUnauthorized
	}
	switch {
	case limit <= 0:
		limit = defaultLeaderLimit
	case limit > maxLeaderLimit:
		limit = maxLeaderLimit
	}

	teams, err := s.ownerTeams(ctx, ownerID)
	if err != nil {
		return OwnerSummary{}, err
	}

	out := OwnerSummary{Teams: len(teams), Leaders: []Leader{}}
	var (
		players []model.Player
		results []model.Result
	)
	teamOf := make(map[uuid.UUID]model.Team)
	for _, t := range teams {
		ps, err := s.st.Players.ListByTeam(ctx, t.ID)
		if err != nil {
			return OwnerSummary{}, err
		}
		rs, err := s.st.Results.ListByTeam(ctx, t.ID, repository.ResultFilter{})
		if err != nil {
			return OwnerSummary{}, err
		}
		games, err := s.st.Games.ListByTeam(ctx, t.ID, repository.GameFilter{}, repository.Page{Limit: 1})
		if err != nil {
			return OwnerSummary{}, err
		}
		out.Players += len(ps)
		out.Games += games.Total
		for _, p := range ps {
			teamOf[p.ID] = t
		}
		players = append(players, appearing(ps, rs)...)
		results = append(results, rs...)
	}

	agg := s.engine.Aggregate(players, results)
	for _, p := range players {
		a := agg[p.ID]
		t := teamOf[p.ID]
		out.Leaders = append(out.Leaders, Leader{
			PlayerID: p.ID,
			Name:     p.Name,
			TeamID:   t.ID,
			TeamName: t.Name,
			GP:       a.GP,
			Totals:   a.Totals,
			Rates:    a.Rates,
		})
	}
	sort.SliceStable(out.Leaders, func(i, j int) bool {
		a, b := out.Leaders[i], out.Leaders[j]
		if a.Rates.WOBA != b.Rates.WOBA {
			return a.Rates.WOBA > b.Rates.WOBA
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	if len(out.Leaders) > limit {
		out.Leaders = out.Leaders[:limit]
	}
	return out, nil
}

// ownerTeams pages through every team of one owner.
func (s *statsService) ownerTeams(ctx context.Context, ownerID string) ([]model.Team, error) {
	const pageSize = 200
	var teams []model.Team
	for offset := 0; ; offset += pageSize {
		page, err := s.st.Teams.ListByOwner(ctx, ownerID, repository.Page{Limit: pageSize, Offset: offset})
		if err != nil {
			s.log.Error().Err(err).Str("owner_id", ownerID).Msg("list owner teams failed")
			return nil, err
		}
		teams = append(teams, page.Items...)
		if len(page.Items) < pageSize || len(teams) >= page.Total {
			return teams, nil
		}
	}
}

// checkFilter hides seasons and games that belong to other teams.
func (s *statsService) checkFilter(ctx context.Context, teamID uuid.UUID, f StatsFilter) error {
	switch {
	case f.SeasonID != nil:
		season, err := s.st.Seasons.GetByID(ctx, *f.SeasonID)
		if err != nil {
			return err
		}
		if season.TeamID != teamID {
			return repository.ErrNotFound
		}
	case f.GameID != nil:
		game, err := s.st.Games.GetByID(ctx, *f.GameID)
		if err != nil {
			return err
		}
		if game.TeamID != teamID {
			return repository.ErrNotFound
		}
	}
	return nil
}

// appearing keeps the players with at least one result.
func appearing(players []model.Player, results []model.Result) []model.Player {
	in := make(map[uuid.UUID]struct{}, len(results))
	for _, r := range results {
		in[r.PlayerID] = struct{}{}
	}
	out := make([]model.Player, 0, len(in))
	for _, p := range players {
		if _, ok := in[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

