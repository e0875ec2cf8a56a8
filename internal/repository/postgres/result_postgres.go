package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
)

// Stats live in a JSONB document keyed by stat code ("PA", "1B", ...).
// Unknown keys are ignored on read, so the record can grow without a migration.
type resultRepository struct{ pool *pgxpool.Pool }

func NewResultRepository(pool *pgxpool.Pool) repository.ResultRepository {
	return &resultRepository{pool: pool}
}

const resultColumns = `r.id, r.game_id, r.player_id, r.stats, r.created_at`

func scanResult(row pgx.Row) (model.Result, error) {
	var out model.Result
	err := row.Scan(&out.ID, &out.GameID, &out.PlayerID, &out.Stats, &out.CreatedAt)
	return out, err
}

func collectResults(rows pgx.Rows) ([]model.Result, error) {
	defer rows.Close()
	var out []model.Result
	for rows.Next() {
		it, err := scanResult(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, it)
	}
	return out, repository.MapPgError(rows.Err())
}

// InsertBatch writes every row with a single INSERT ... SELECT FROM unnest,
// so a failure on any row leaves none behind.
func (r *resultRepository) InsertBatch(ctx context.Context, batch []model.Result) ([]model.Result, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, nil
	}
	ids := make([]string, len(batch))
	games := make([]string, len(batch))
	players := make([]string, len(batch))
	docs := make([]string, len(batch))
	for i, res := range batch {
		raw, err := json.Marshal(res.Stats)
		if err != nil {
			return nil, fmt.Errorf("encode stats: %w", err)
		}
		ids[i] = newID(res.ID).String()
		games[i] = res.GameID.String()
		players[i] = res.PlayerID.String()
		docs[i] = string(raw)
	}

	rows, err := getQ(ctx, r.pool).Query(ctx,
		`INSERT INTO results AS r (id, game_id, player_id, stats)
		 SELECT u.id, u.game_id, u.player_id, u.stats::jsonb
		 FROM unnest($1::uuid[], $2::uuid[], $3::uuid[], $4::text[]) AS u(id, game_id, player_id, stats)
		 RETURNING `+resultColumns,
		ids, games, players, docs,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	return collectResults(rows)
}

func (r *resultRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Result, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Result{}, err
	}
	out, err := scanResult(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results r WHERE r.id = $1`, id))
	if err != nil {
		return model.Result{}, mapRowErr(err)
	}
	return out, nil
}

func (r *resultRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]model.Result, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+resultColumns+` FROM results r WHERE r.game_id = $1 ORDER BY r.created_at, r.id`, gameID)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	return collectResults(rows)
}

func (r *resultRepository) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]model.Result, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+resultColumns+` FROM results r WHERE r.player_id = $1 ORDER BY r.created_at, r.id`, playerID)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	return collectResults(rows)
}

func (r *resultRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, f repository.ResultFilter) ([]model.Result, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+resultColumns+`
		 FROM results r JOIN games g ON g.id = r.game_id
		 WHERE g.team_id = $1
		   AND ($2::uuid IS NULL OR g.season_id = $2)
		   AND ($3::uuid IS NULL OR g.id = $3)
		 ORDER BY g.game_date, r.created_at, r.id`,
		teamID, f.SeasonID, f.GameID,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	return collectResults(rows)
}

func (r *resultRepository) UpdateStats(ctx context.Context, id uuid.UUID, stats model.StatRecord) (model.Result, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Result{}, err
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return model.Result{}, fmt.Errorf("encode stats: %w", err)
	}
	out, err := scanResult(getQ(ctx, r.pool).QueryRow(ctx,
		`UPDATE results AS r SET stats = $2::jsonb WHERE r.id = $1 RETURNING `+resultColumns, id, string(raw)))
	if err != nil {
		return model.Result{}, mapRowErr(err)
	}
	return out, nil
}

func (r *resultRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM results WHERE id = ANY($1::uuid[])`, uuidStrings(ids))
	if err != nil {
		return 0, repository.MapPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *resultRepository) ReassignPlayer(ctx context.Context, ids []uuid.UUID, playerID uuid.UUID) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx,
		`UPDATE results SET player_id = $2 WHERE id = ANY($1::uuid[])`, uuidStrings(ids), playerID)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("reassign results: updated %d of %d: %w", tag.RowsAffected(), len(ids), repository.ErrConflict)
	}
	return nil
}

var _ repository.ResultRepository = (*resultRepository)(nil)
