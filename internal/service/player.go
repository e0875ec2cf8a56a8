package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxviazov/scorebook-stats-service/internal/cache"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
)

type playerResolver struct {
	st     Stores
	locker cache.TeamLocker
	sheets cache.StatsCache
	log    zerolog.Logger
}

func NewPlayerResolver(st Stores, locker cache.TeamLocker, sheets cache.StatsCache, logger zerolog.Logger) PlayerResolver {
	l := logger.With().Str("module", "service").Str("component", "resolver").Logger()
	if sheets == nil {
		sheets = cache.NoopStatsCache{}
	}
	return &playerResolver{st: st, locker: locker, sheets: sheets, log: l}
}

// parseToken reports whether token is a player ID.
func parseToken(token string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (r *playerResolver) Resolve(ctx context.Context, teamID uuid.UUID, token string) (model.Player, bool, error) {
	if id, ok := parseToken(token); ok {
		p, err := r.st.Players.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && p.TeamID != teamID) {
			return model.Player{}, false, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
		}
		if err != nil {
			return model.Player{}, false, err
		}
		return p, false, nil
	}

	name := normalizeName(token)
	if name == "" {
		return model.Player{}, false, ErrEmptyName
	}
	// Most names on a sheet are already on the roster; look before inserting.
	p, err := r.st.Players.FindByName(ctx, teamID, name)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		r.log.Error().Err(err).Str("team_id", teamID.String()).Str("name", name).Msg("resolve player failed")
		return model.Player{}, false, err
	}
	p, created, err := r.st.Players.CreateIfAbsent(ctx, model.Player{TeamID: teamID, Name: name})
	if err != nil {
		r.log.Error().Err(err).Str("team_id", teamID.String()).Str("name", name).Msg("resolve player failed")
		return model.Player{}, false, err
	}
	if created {
		r.invalidate(ctx, teamID)
		r.log.Info().Str("team_id", teamID.String()).Str("player_id", p.ID.String()).Str("name", p.Name).Msg("player created")
	}
	return p, created, nil
}

// teamPlayer loads a player and checks team membership.
func (r *playerResolver) teamPlayer(ctx context.Context, teamID, playerID uuid.UUID) (model.Player, error) {
	p, err := r.st.Players.GetByID(ctx, playerID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && p.TeamID != teamID) {
		return model.Player{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return p, err
}

func (r *playerResolver) Rename(ctx context.Context, principal string, teamID, playerID uuid.UUID, newName string) (model.Player, error) {
	if _, err := authorize(ctx, r.st.Teams, principal, teamID); err != nil {
		return model.Player{}, err
	}
	name := normalizeName(newName)
	if name == "" {
		return model.Player{}, ErrEmptyName
	}
	if ferrs := checkName("name", name); ferrs != nil {
		return model.Player{}, newInvalidInput(ferrs)
	}
	p, err := r.teamPlayer(ctx, teamID, playerID)
	if err != nil {
		return model.Player{}, err
	}
	if p.Name == name {
		return p, nil
	}
	out, err := r.st.Players.Rename(ctx, playerID, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Player{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
		}
		return model.Player{}, err
	}
	r.invalidate(ctx, teamID)
	r.log.Info().Str("player_id", playerID.String()).Str("from", p.Name).Str("to", out.Name).Msg("player renamed")
	return out, nil
}

func (r *playerResolver) Merge(ctx context.Context, principal string, teamID, sourceID, targetID uuid.UUID) (MergeSummary, error) {
	start := time.Now()
	if _, err := authorize(ctx, r.st.Teams, principal, teamID); err != nil {
		return MergeSummary{}, err
	}
	if sourceID == targetID {
		return MergeSummary{}, fmt.Errorf("%w: source and target are the same player", ErrInvalidMerge)
	}
	for _, id := range []uuid.UUID{sourceID, targetID} {
		if _, err := r.teamPlayer(ctx, teamID, id); err != nil {
			if errors.Is(err, ErrPlayerNotFound) {
				return MergeSummary{}, fmt.Errorf("%w: %v", ErrInvalidMerge, err)
			}
			return MergeSummary{}, err
		}
	}

	unlock, err := r.locker.Lock(ctx, teamID)
	if err != nil {
		return MergeSummary{}, fmt.Errorf("lock team: %w", err)
	}
	defer unlock()

	var sum MergeSummary
	err = r.st.Tx.WithinTx(ctx, func(ctx context.Context) error {
		source, err := r.st.Results.ListByPlayer(ctx, sourceID)
		if err != nil {
			return err
		}
		target, err := r.st.Results.ListByPlayer(ctx, targetID)
		if err != nil {
			return err
		}
		played := make(map[uuid.UUID]struct{}, len(target))
		for _, res := range target {
			played[res.GameID] = struct{}{}
		}

		var discard, move []uuid.UUID
		for _, res := range source {
			if _, clash := played[res.GameID]; clash {
				discard = append(discard, res.ID)
			} else {
				move = append(move, res.ID)
			}
		}
		if _, err := r.st.Results.DeleteByIDs(ctx, discard); err != nil {
			return err
		}
		if err := r.st.Results.ReassignPlayer(ctx, move, targetID); err != nil {
			return err
		}
		if err := r.st.Players.Delete(ctx, sourceID); err != nil {
			return err
		}
		sum = MergeSummary{Reassigned: len(move), Discarded: len(discard)}
		return nil
	})
	if err != nil {
		r.log.Error().Err(err).Str("source", sourceID.String()).Str("target", targetID.String()).Msg("merge failed")
		return MergeSummary{}, err
	}
	r.invalidate(ctx, teamID)
	r.log.Info().
		Dur("took", time.Since(start)).
		Str("source", sourceID.String()).
		Str("target", targetID.String()).
		Int("reassigned", sum.Reassigned).
		Int("discarded", sum.Discarded).
		Msg("players merged")
	return sum, nil
}

func (r *playerResolver) invalidate(ctx context.Context, teamID uuid.UUID) {
	if err := r.sheets.Invalidate(ctx, teamID); err != nil {
		r.log.Warn().Err(err).Str("team_id", teamID.String()).Msg("stats cache invalidation failed")
	}
}
