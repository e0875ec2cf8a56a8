package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
)

type gameRepository struct{ pool *pgxpool.Pool }

func NewGameRepository(pool *pgxpool.Pool) repository.GameRepository {
	return &gameRepository{pool: pool}
}

const gameColumns = `id, team_id, season_id, game_date, source, created_at`

func scanGame(row pgx.Row, extra ...any) (model.Game, error) {
	var out model.Game
	var source string
	dest := append([]any{&out.ID, &out.TeamID, &out.SeasonID, &out.GameDate, &source, &out.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.Game{}, err
	}
	out.Source = model.GameSource(source)
	return out, nil
}

func (r *gameRepository) Create(ctx context.Context, g model.Game) (model.Game, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Game{}, err
	}
	out, err := scanGame(getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO games (id, team_id, season_id, game_date, source)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+gameColumns,
		newID(g.ID), g.TeamID, g.SeasonID, g.GameDate, string(g.Source),
	))
	if err != nil {
		return model.Game{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *gameRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Game, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Game{}, err
	}
	out, err := scanGame(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
	if err != nil {
		return model.Game{}, mapRowErr(err)
	}
	return out, nil
}

func (r *gameRepository) GetWithResults(ctx context.Context, id uuid.UUID) (model.GameWithResults, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.GameWithResults{}, err
	}
	exec := getQ(ctx, r.pool)

	var out model.GameWithResults
	g, err := scanGame(exec.QueryRow(ctx,
		`SELECT g.id, g.team_id, g.season_id, g.game_date, g.source, g.created_at, s.name
		 FROM games g JOIN seasons s ON s.id = g.season_id
		 WHERE g.id = $1`, id), &out.SeasonName)
	if err != nil {
		return model.GameWithResults{}, mapRowErr(err)
	}
	out.Game = g

	rows, err := exec.Query(ctx,
		`SELECT r.id, r.game_id, r.player_id, r.stats, r.created_at, p.name
		 FROM results r JOIN players p ON p.id = r.player_id
		 WHERE r.game_id = $1
		 ORDER BY r.created_at, r.id`, id)
	if err != nil {
		return model.GameWithResults{}, repository.MapPgError(err)
	}
	defer rows.Close()
	out.Results = make([]model.ResultWithPlayer, 0, 12)
	for rows.Next() {
		var it model.ResultWithPlayer
		if err := rows.Scan(&it.ID, &it.GameID, &it.PlayerID, &it.Stats, &it.CreatedAt, &it.PlayerName); err != nil {
			return model.GameWithResults{}, repository.MapPgError(err)
		}
		out.Results = append(out.Results, it)
	}
	if err := rows.Err(); err != nil {
		return model.GameWithResults{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *gameRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, f repository.GameFilter, p repository.Page) (repository.PageResult[model.Game], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.Game]{}, err
	}
	limit, offset := sanitizeLimitOffset(p.Limit, p.Offset)
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+gameColumns+`, COUNT(*) OVER() AS total
		 FROM games
		 WHERE team_id = $1 AND ($2::uuid IS NULL OR season_id = $2)
		 ORDER BY game_date DESC, created_at DESC, id
		 LIMIT $3 OFFSET $4`,
		teamID, f.SeasonID, limit, offset,
	)
	if err != nil {
		return repository.PageResult[model.Game]{}, repository.MapPgError(err)
	}
	defer rows.Close()
	res := repository.PageResult[model.Game]{Items: make([]model.Game, 0, limit)}
	for rows.Next() {
		var total int
		it, err := scanGame(rows, &total)
		if err != nil {
			return repository.PageResult[model.Game]{}, repository.MapPgError(err)
		}
		res.Items = append(res.Items, it)
		res.Total = total
	}
	if err := rows.Err(); err != nil {
		return repository.PageResult[model.Game]{}, repository.MapPgError(err)
	}
	return res, nil
}

func (r *gameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.GameRepository = (*gameRepository)(nil)
