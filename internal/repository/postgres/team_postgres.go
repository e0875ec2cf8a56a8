package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
)

type teamRepository struct{ pool *pgxpool.Pool }

func NewTeamRepository(pool *pgxpool.Pool) repository.TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) Create(ctx context.Context, t model.Team) (model.Team, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Team{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO teams (id, owner_id, name) VALUES ($1, $2, $3)
		 RETURNING id, owner_id, name, created_at`,
		newID(t.ID), t.OwnerID, t.Name,
	)
	var out model.Team
	if err := row.Scan(&out.ID, &out.OwnerID, &out.Name, &out.CreatedAt); err != nil {
		return model.Team{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *teamRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Team, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Team{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT id, owner_id, name, created_at FROM teams WHERE id = $1`, id,
	)
	var out model.Team
	if err := row.Scan(&out.ID, &out.OwnerID, &out.Name, &out.CreatedAt); err != nil {
		return model.Team{}, mapRowErr(err)
	}
	return out, nil
}

func (r *teamRepository) ListByOwner(ctx context.Context, ownerID string, p repository.Page) (repository.PageResult[model.Team], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.Team]{}, err
	}
	limit, offset := sanitizeLimitOffset(p.Limit, p.Offset)
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT id, owner_id, name, created_at, COUNT(*) OVER() AS total
		 FROM teams WHERE owner_id = $1
		 ORDER BY created_at, id
		 LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return repository.PageResult[model.Team]{}, repository.MapPgError(err)
	}
	defer rows.Close()
	res := repository.PageResult[model.Team]{Items: make([]model.Team, 0, limit)}
	for rows.Next() {
		var it model.Team
		var total int
		if err := rows.Scan(&it.ID, &it.OwnerID, &it.Name, &it.CreatedAt, &total); err != nil {
			return repository.PageResult[model.Team]{}, repository.MapPgError(err)
		}
		res.Items = append(res.Items, it)
		res.Total = total
	}
	if err := rows.Err(); err != nil {
		return repository.PageResult[model.Team]{}, repository.MapPgError(err)
	}
	return res, nil
}

var _ repository.TeamRepository = (*teamRepository)(nil)
