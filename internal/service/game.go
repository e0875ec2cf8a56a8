package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxviazov/scorebook-stats-service/internal/cache"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
)

// IngestionOptions toggles optional gates on the ingestion path.
type IngestionOptions struct {
	// ValidateManual runs the stat identity checks on manually entered lines.
	// Extracted lines are always validated by the extractor.
	ValidateManual bool
}

type ingestionService struct {
	st       Stores
	resolver PlayerResolver
	locker   cache.TeamLocker
	sheets   cache.StatsCache
	opts     IngestionOptions
	log      zerolog.Logger
}

func NewIngestionService(st Stores, resolver PlayerResolver, locker cache.TeamLocker, sheets cache.StatsCache, opts IngestionOptions, logger zerolog.Logger) IngestionService {
	l := logger.With().Str("module", "service").Str("component", "ingestion").Logger()
	if sheets == nil {
		sheets = cache.NoopStatsCache{}
	}
	return &ingestionService{st: st, resolver: resolver, locker: locker, sheets: sheets, opts: opts, log: l}
}

// collapseTokens merges lines whose tokens name the same player, ignoring
// case and spacing, by summing their stats. First-seen order is kept.
func collapseTokens(in []model.PlayerStatInput) ([]model.PlayerStatInput, error) {
	out := make([]model.PlayerStatInput, 0, len(in))
	index := make(map[string]int, len(in))
	for _, line := range in {
		var key string
		if id, ok := parseToken(line.Token); ok {
			key = "id:" + id.String()
			line.Token = id.String()
		} else {
			name := normalizeName(line.Token)
			if name == "" {
				return nil, ErrEmptyName
			}
			key = "name:" + nameKey(name)
			line.Token = name
		}
		if i, seen := index[key]; seen {
			out[i].Stats = out[i].Stats.Plus(line.Stats)
			continue
		}
		index[key] = len(out)
		out = append(out, line)
	}
	return out, nil
}

// resolved is a stat line bound to a player.
type resolved struct {
	player model.Player
	stats  model.StatRecord
}

// resolveAll resolves every line in order and folds lines that land on the
// same player (an ID token and a name token can both point at one player).
func (s *ingestionService) resolveAll(ctx context.Context, teamID uuid.UUID, lines []model.PlayerStatInput) ([]resolved, []model.Player, error) {
	out := make([]resolved, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	var created []model.Player
	for _, line := range lines {
		p, isNew, err := s.resolver.Resolve(ctx, teamID, line.Token)
		if err != nil {
			return nil, nil, err
		}
		if isNew {
			created = append(created, p)
		}
		if i, seen := index[p.ID]; seen {
			out[i].stats = out[i].stats.Plus(line.Stats)
			continue
		}
		index[p.ID] = len(out)
		out = append(out, resolved{player: p, stats: line.Stats})
	}
	return out, created, nil
}

func (s *ingestionService) validateLines(source model.GameSource, lines []model.PlayerStatInput) error {
	if source != model.SourceManual || !s.opts.ValidateManual {
		return nil
	}
	for i, line := range lines {
		if err := stats.Validate(line.Stats); err != nil {
			return fmt.Errorf("line %d (%s): %w", i+1, line.Token, err)
		}
	}
	return nil
}

func (s *ingestionService) checkSeason(ctx context.Context, teamID, seasonID uuid.UUID) error {
	season, err := s.st.Seasons.GetByID(ctx, seasonID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && season.TeamID != teamID) {
		return invalidField("season_id", "season does not belong to team")
	}
	return err
}

func (s *ingestionService) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	start := time.Now()

	var ferrs []FieldError
	if req.TeamID == uuid.Nil {
		ferrs = append(ferrs, FieldError{Field: "team_id", Message: "must be set"})
	}
	if req.SeasonID == uuid.Nil {
		ferrs = append(ferrs, FieldError{Field: "season_id", Message: "must be set"})
	}
	if req.GameDate.IsZero() {
		ferrs = append(ferrs, FieldError{Field: "game_date", Message: "must be set"})
	}
	if !req.Source.Valid() {
		ferrs = append(ferrs, FieldError{Field: "source", Message: "must be one of manual|upload|sms"})
	}
	if len(req.Stats) == 0 {
		ferrs = append(ferrs, FieldError{Field: "stats", Message: "must contain at least one line"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("ingest validation failed")
		return IngestResult{}, err
	}

	lines, err := collapseTokens(req.Stats)
	if err != nil {
		return IngestResult{}, err
	}
	if err := s.validateLines(req.Source, lines); err != nil {
		return IngestResult{}, err
	}
	if _, err := s.st.Teams.GetByID(ctx, req.TeamID); err != nil {
		return IngestResult{}, err
	}
	if err := s.checkSeason(ctx, req.TeamID, req.SeasonID); err != nil {
		return IngestResult{}, err
	}

	unlock, err := s.locker.Lock(ctx, req.TeamID)
	if err != nil {
		return IngestResult{}, fmt.Errorf("lock team: %w", err)
	}
	defer unlock()

	// The ID is fixed up front so the compensating delete knows what to remove
	// whether or not the game row made it out of the transaction.
	gameID := uuid.New()
	var created []model.Player
	err = s.st.Tx.WithinTx(ctx, func(ctx context.Context) error {
		game, err := s.st.Games.Create(ctx, model.Game{
			ID:       gameID,
			TeamID:   req.TeamID,
			SeasonID: req.SeasonID,
			GameDate: req.GameDate,
			Source:   req.Source,
		})
		if err != nil {
			return err
		}
		rows, newPlayers, err := s.resolveAll(ctx, req.TeamID, lines)
		if err != nil {
			return err
		}
		batch := make([]model.Result, len(rows))
		for i, row := range rows {
			batch[i] = model.Result{GameID: game.ID, PlayerID: row.player.ID, Stats: row.stats}
		}
		if _, err := s.st.Results.InsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("%w: insert results: %w", ErrIngestionFailed, err)
		}
		created = newPlayers
		return nil
	})
	if err != nil {
		s.compensate(ctx, gameID)
		s.log.Error().Err(err).Str("team_id", req.TeamID.String()).Str("game_id", gameID.String()).Msg("ingest failed")
		return IngestResult{}, err
	}

	game, err := s.st.Games.GetWithResults(ctx, gameID)
	if err != nil {
		return IngestResult{}, err
	}
	s.invalidate(ctx, req.TeamID)
	s.log.Info().
		Dur("took", time.Since(start)).
		Str("team_id", req.TeamID.String()).
		Str("game_id", gameID.String()).
		Str("source", string(req.Source)).
		Int("results", len(game.Results)).
		Int("new_players", len(created)).
		Msg("game ingested")
	return IngestResult{Game: game, NewPlayers: nonNil(created)}, nil
}

// compensate removes a game left behind by a failed ingestion. When the
// transaction already rolled the row back this is a no-op.
func (s *ingestionService) compensate(ctx context.Context, gameID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := s.st.Games.Delete(ctx, gameID)
	switch {
	case err == nil:
		s.log.Warn().Str("game_id", gameID.String()).Msg("orphan game removed")
	case errors.Is(err, repository.ErrNotFound):
	default:
		s.log.Error().Err(err).Str("game_id", gameID.String()).Msg("compensating game delete failed")
	}
}

// teamGame loads a game and hides games of other teams.
func (s *ingestionService) teamGame(ctx context.Context, teamID, gameID uuid.UUID) (model.Game, error) {
	g, err := s.st.Games.GetByID(ctx, gameID)
	if err != nil {
		return model.Game{}, err
	}
	if g.TeamID != teamID {
		return model.Game{}, repository.ErrNotFound
	}
	return g, nil
}

func (s *ingestionService) Update(ctx context.Context, teamID, gameID uuid.UUID, in []model.PlayerStatInput) (IngestResult, error) {
	start := time.Now()
	if len(in) == 0 {
		return IngestResult{}, invalidField("stats", "must contain at least one line")
	}
	game, err := s.teamGame(ctx, teamID, gameID)
	if err != nil {
		return IngestResult{}, err
	}
	lines, err := collapseTokens(in)
	if err != nil {
		return IngestResult{}, err
	}
	if err := s.validateLines(model.SourceManual, lines); err != nil {
		return IngestResult{}, err
	}

	unlock, err := s.locker.Lock(ctx, teamID)
	if err != nil {
		return IngestResult{}, fmt.Errorf("lock team: %w", err)
	}
	defer unlock()

	var created []model.Player
	var added, changed, removed int
	err = s.st.Tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.st.Results.ListByGame(ctx, game.ID)
		if err != nil {
			return err
		}
		rows, newPlayers, err := s.resolveAll(ctx, teamID, lines)
		if err != nil {
			return err
		}
		wanted := make(map[uuid.UUID]model.StatRecord, len(rows))
		for _, row := range rows {
			wanted[row.player.ID] = row.stats
		}

		var drop []uuid.UUID
		for _, res := range existing {
			next, keep := wanted[res.PlayerID]
			if !keep {
				drop = append(drop, res.ID)
				continue
			}
			delete(wanted, res.PlayerID)
			if next == res.Stats {
				continue
			}
			if _, err := s.st.Results.UpdateStats(ctx, res.ID, next); err != nil {
				return fmt.Errorf("%w: update result: %w", ErrIngestionFailed, err)
			}
			changed++
		}
		if _, err := s.st.Results.DeleteByIDs(ctx, drop); err != nil {
			return fmt.Errorf("%w: delete results: %w", ErrIngestionFailed, err)
		}
		removed = len(drop)

		var batch []model.Result
		for _, row := range rows {
			if st, pending := wanted[row.player.ID]; pending {
				batch = append(batch, model.Result{GameID: game.ID, PlayerID: row.player.ID, Stats: st})
			}
		}
		if len(batch) > 0 {
			if _, err := s.st.Results.InsertBatch(ctx, batch); err != nil {
				return fmt.Errorf("%w: insert results: %w", ErrIngestionFailed, err)
			}
		}
		added = len(batch)
		created = newPlayers
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("game_id", gameID.String()).Msg("update game failed")
		return IngestResult{}, err
	}

	out, err := s.st.Games.GetWithResults(ctx, gameID)
	if err != nil {
		return IngestResult{}, err
	}
	s.invalidate(ctx, teamID)
	s.log.Info().
		Dur("took", time.Since(start)).
		Str("game_id", gameID.String()).
		Int("added", added).
		Int("changed", changed).
		Int("removed", removed).
		Msg("game updated")
	return IngestResult{Game: out, NewPlayers: nonNil(created)}, nil
}

func (s *ingestionService) EditResultStats(ctx context.Context, teamID uuid.UUID, updates []model.ResultStatsUpdate) ([]model.Result, error) {
	if len(updates) == 0 {
		return nil, invalidField("updates", "must contain at least one result")
	}
	if s.opts.ValidateManual {
		for i, u := range updates {
			if err := stats.Validate(u.Stats); err != nil {
				return nil, fmt.Errorf("result %d (%s): %w", i+1, u.ResultID, err)
			}
		}
	}

	var out []model.Result
	err := s.st.Tx.WithinTx(ctx, func(ctx context.Context) error {
		checked := make(map[uuid.UUID]bool)
		for _, u := range updates {
			res, err := s.st.Results.GetByID(ctx, u.ResultID)
			if err != nil {
				return err
			}
			ok, seen := checked[res.GameID]
			if !seen {
				_, err := s.teamGame(ctx, teamID, res.GameID)
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					return err
				}
				ok = err == nil
				checked[res.GameID] = ok
			}
			if !ok {
				return repository.ErrNotFound
			}
			updated, err := s.st.Results.UpdateStats(ctx, u.ResultID, u.Stats)
			if err != nil {
				return err
			}
			out = append(out, updated)
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("team_id", teamID.String()).Msg("edit results failed")
		return nil, err
	}
	s.invalidate(ctx, teamID)
	return out, nil
}

func (s *ingestionService) GetGame(ctx context.Context, teamID, gameID uuid.UUID) (model.GameWithResults, error) {
	g, err := s.st.Games.GetWithResults(ctx, gameID)
	if err != nil {
		return model.GameWithResults{}, err
	}
	if g.TeamID != teamID {
		return model.GameWithResults{}, repository.ErrNotFound
	}
	return g, nil
}

func (s *ingestionService) ListGames(ctx context.Context, teamID uuid.UUID, seasonID *uuid.UUID, page repository.Page) (repository.PageResult[model.Game], error) {
	p := normalizePage(page)
	res, err := s.st.Games.ListByTeam(ctx, teamID, repository.GameFilter{SeasonID: seasonID}, p)
	if err != nil {
		s.log.Error().Err(err).Int("limit", p.Limit).Int("offset", p.Offset).Msg("list games failed")
		return repository.PageResult[model.Game]{}, err
	}
	return res, nil
}

func (s *ingestionService) DeleteGame(ctx context.Context, teamID, gameID uuid.UUID) error {
	if _, err := s.teamGame(ctx, teamID, gameID); err != nil {
		return err
	}
	if err := s.st.Games.Delete(ctx, gameID); err != nil {
		return err
	}
	s.invalidate(ctx, teamID)
	s.log.Info().Str("game_id", gameID.String()).Msg("game deleted")
	return nil
}

func (s *ingestionService) invalidate(ctx context.Context, teamID uuid.UUID) {
	if err := s.sheets.Invalidate(ctx, teamID); err != nil {
		s.log.Warn().Err(err).Str("team_id", teamID.String()).Msg("stats cache invalidation failed")
	}
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
