package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
)

type seasonRepository struct{ pool *pgxpool.Pool }

func NewSeasonRepository(pool *pgxpool.Pool) repository.SeasonRepository {
	return &seasonRepository{pool: pool}
}

const seasonColumns = `id, team_id, name, created_at`

func (r *seasonRepository) Create(ctx context.Context, s model.Season) (model.Season, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Season{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO seasons (id, team_id, name) VALUES ($1, $2, $3)
		 RETURNING `+seasonColumns,
		newID(s.ID), s.TeamID, s.Name,
	)
	var out model.Season
	if err := row.Scan(&out.ID, &out.TeamID, &out.Name, &out.CreatedAt); err != nil {
		return model.Season{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *seasonRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Season, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Season{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+seasonColumns+` FROM seasons WHERE id = $1`, id)
	var out model.Season
	if err := row.Scan(&out.ID, &out.TeamID, &out.Name, &out.CreatedAt); err != nil {
		return model.Season{}, mapRowErr(err)
	}
	return out, nil
}

func (r *seasonRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.Season, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+seasonColumns+` FROM seasons WHERE team_id = $1 ORDER BY created_at DESC, id`, teamID)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	var out []model.Season
	for rows.Next() {
		var it model.Season
		if err := rows.Scan(&it.ID, &it.TeamID, &it.Name, &it.CreatedAt); err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, it)
	}
	return out, repository.MapPgError(rows.Err())
}

func (r *seasonRepository) Latest(ctx context.Context, teamID uuid.UUID) (model.Season, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Season{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+seasonColumns+` FROM seasons WHERE team_id = $1
		 ORDER BY created_at DESC, id LIMIT 1`, teamID)
	var out model.Season
	if err := row.Scan(&out.ID, &out.TeamID, &out.Name, &out.CreatedAt); err != nil {
		return model.Season{}, mapRowErr(err)
	}
	return out, nil
}

var _ repository.SeasonRepository = (*seasonRepository)(nil)
