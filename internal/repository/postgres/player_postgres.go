package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
)

type playerRepository struct{ pool *pgxpool.Pool }

func NewPlayerRepository(pool *pgxpool.Pool) repository.PlayerRepository {
	return &playerRepository{pool: pool}
}

const playerColumns = `id, team_id, name, created_at`

func scanPlayer(row pgx.Row) (model.Player, error) {
	var out model.Player
	err := row.Scan(&out.ID, &out.TeamID, &out.Name, &out.CreatedAt)
	return out, err
}

func (r *playerRepository) Create(ctx context.Context, p model.Player) (model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Player{}, err
	}
	out, err := scanPlayer(getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO players (id, team_id, name) VALUES ($1, $2, $3)
		 RETURNING `+playerColumns,
		newID(p.ID), p.TeamID, p.Name,
	))
	if err != nil {
		return model.Player{}, repository.MapPgError(err)
	}
	return out, nil
}

// createIfAbsentAttempts bounds the retry when a concurrent insert wins the
// conflict but is not yet visible to this statement's snapshot.
const createIfAbsentAttempts = 3

func (r *playerRepository) CreateIfAbsent(ctx context.Context, p model.Player) (model.Player, bool, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Player{}, false, err
	}
	exec := getQ(ctx, r.pool)
	id := newID(p.ID)
	for attempt := 0; attempt < createIfAbsentAttempts; attempt++ {
		var out model.Player
		var created bool
		err := exec.QueryRow(ctx,
			`WITH ins AS (
				INSERT INTO players (id, team_id, name) VALUES ($1, $2, $3)
				ON CONFLICT (team_id, lower(name)) DO NOTHING
				RETURNING `+playerColumns+`
			)
			SELECT `+playerColumns+`, true FROM ins
			UNION ALL
			(SELECT `+playerColumns+`, false FROM players
			 WHERE team_id = $2 AND lower(name) = lower($3)
			 ORDER BY created_at, id LIMIT 1)
			LIMIT 1`,
			id, p.TeamID, p.Name,
		).Scan(&out.ID, &out.TeamID, &out.Name, &out.CreatedAt, &created)
		if err == nil {
			return out, created, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return model.Player{}, false, repository.MapPgError(err)
		}
	}
	return model.Player{}, false, fmt.Errorf("create player %q: conflicting row not visible: %w", p.Name, repository.ErrConflict)
}

func (r *playerRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Player{}, err
	}
	out, err := scanPlayer(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
	if err != nil {
		return model.Player{}, mapRowErr(err)
	}
	return out, nil
}

func (r *playerRepository) FindByName(ctx context.Context, teamID uuid.UUID, name string) (model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Player{}, err
	}
	out, err := scanPlayer(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players
		 WHERE team_id = $1 AND lower(name) = lower($2)
		 ORDER BY created_at, id LIMIT 1`, teamID, name))
	if err != nil {
		return model.Player{}, mapRowErr(err)
	}
	return out, nil
}

func (r *playerRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+playerColumns+` FROM players WHERE team_id = $1 ORDER BY lower(name), id`, teamID)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	var out []model.Player
	for rows.Next() {
		it, err := scanPlayer(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, it)
	}
	return out, repository.MapPgError(rows.Err())
}

func (r *playerRepository) Rename(ctx context.Context, id uuid.UUID, name string) (model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Player{}, err
	}
	out, err := scanPlayer(getQ(ctx, r.pool).QueryRow(ctx,
		`UPDATE players SET name = $2 WHERE id = $1 RETURNING `+playerColumns, id, name))
	if err != nil {
		return model.Player{}, mapRowErr(err)
	}
	return out, nil
}

func (r *playerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.PlayerRepository = (*playerRepository)(nil)
