// Package contract holds behavioural suites every repository implementation
// must pass. Storage-specific tests wire their factories into these.
package contract

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
)

// Repos bundles one implementation of every repository sharing a backend.
type Repos struct {
	Tx      repository.TxManager
	Teams   repository.TeamRepository
	Seasons repository.SeasonRepository
	Players repository.PlayerRepository
	Games   repository.GameRepository
	Results repository.ResultRepository
}

// Factory hands out a clean backend and its cleanup.
type Factory func(t *testing.T) (Repos, func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

type fixture struct {
	team   model.Team
	season model.Season
}

func seed(t *testing.T, r Repos) fixture {
	t.Helper()
	ctx := context.Background()
	team, err := r.Teams.Create(ctx, model.Team{OwnerID: "coach-1", Name: "Sluggers"})
	require.NoError(t, err)
	season, err := r.Seasons.Create(ctx, model.Season{TeamID: team.ID, Name: "Spring"})
	require.NoError(t, err)
	return fixture{team: team, season: season}
}

func mkGame(t *testing.T, r Repos, fx fixture, seasonID uuid.UUID, day int) model.Game {
	t.Helper()
	g, err := r.Games.Create(context.Background(), model.Game{
		TeamID:   fx.team.ID,
		SeasonID: seasonID,
		GameDate: time.Date(2024, 4, day, 0, 0, 0, 0, time.UTC),
		Source:   model.SourceManual,
	})
	require.NoError(t, err)
	return g
}

func mkPlayer(t *testing.T, r Repos, fx fixture, name string) model.Player {
	t.Helper()
	p, err := r.Players.Create(context.Background(), model.Player{TeamID: fx.team.ID, Name: name})
	require.NoError(t, err)
	return p
}

func RunTeamRepositoryContract(t *testing.T, makeRepos Factory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := r.Teams.Create(ctx, model.Team{OwnerID: "coach-1", Name: "Sluggers"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		got, err := r.Teams.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Name, got.Name)
		assert.Equal(t, "coach-1", got.OwnerID)
	})

	t.Run("get_not_found", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		_, err := r.Teams.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("list_by_owner_pagination_total", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for i := 0; i < 7; i++ {
			_, err := r.Teams.Create(ctx, model.Team{OwnerID: "coach-1", Name: "T-" + string(rune('A'+i))})
			require.NoError(t, err)
		}
		_, err := r.Teams.Create(ctx, model.Team{OwnerID: "coach-2", Name: "Other"})
		require.NoError(t, err)

		res, err := r.Teams.ListByOwner(ctx, "coach-1", repository.Page{Limit: 3})
		require.NoError(t, err)
		assert.Len(t, res.Items, 3)
		assert.Equal(t, 7, res.Total)

		res, err = r.Teams.ListByOwner(ctx, "coach-1", repository.Page{Limit: 3, Offset: 6})
		require.NoError(t, err)
		assert.Len(t, res.Items, 1)
	})
}

func RunSeasonRepositoryContract(t *testing.T, makeRepos Factory) {
	t.Helper()

	t.Run("latest_is_newest", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)
		ctx := context.Background()
		time.Sleep(5 * time.Millisecond)
		fall, err := r.Seasons.Create(ctx, model.Season{TeamID: fx.team.ID, Name: "Fall"})
		require.NoError(t, err)

		got, err := r.Seasons.Latest(ctx, fx.team.ID)
		require.NoError(t, err)
		assert.Equal(t, fall.ID, got.ID)

		list, err := r.Seasons.ListByTeam(ctx, fx.team.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, fall.ID, list[0].ID)
	})

	t.Run("latest_without_seasons", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		team, err := r.Teams.Create(context.Background(), model.Team{OwnerID: "coach-1", Name: "Empty"})
		require.NoError(t, err)
		_, err = r.Seasons.Latest(context.Background(), team.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("unknown_team_conflict", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		_, err := r.Seasons.Create(context.Background(), model.Season{TeamID: uuid.New(), Name: "Ghost"})
		assert.ErrorIs(t, err, repository.ErrConflict)
	})
}

func RunPlayerRepositoryContract(t *testing.T, makeRepos Factory) {
	t.Helper()

	t.Run("duplicate_name_ignores_case", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)
		mkPlayer(t, r, fx, "Alex Kim")
		_, err := r.Players.Create(context.Background(), model.Player{TeamID: fx.team.ID, Name: "ALEX KIM"})
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	})

	t.Run("create_if_absent_is_idempotent", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)
		ctx := context.Background()

		first, created, err := r.Players.CreateIfAbsent(ctx, model.Player{TeamID: fx.team.ID, Name: "Alex Kim"})
		require.NoError(t, err)
		assert.True(t, created)

		again, created, err := r.Players.CreateIfAbsent(ctx, model.Player{TeamID: fx.team.ID, Name: "alex kim"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, "Alex Kim", again.Name)
	})

	t.Run("create_if_absent_concurrent", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)

		const workers = 8
		ids := make([]uuid.UUID, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p, _, err := r.Players.CreateIfAbsent(context.Background(), model.Player{TeamID: fx.team.ID, Name: "Bo Park"})
				ids[i], errs[i] = p.ID, err
			}(i)
		}
		wg.Wait()
		for i := range ids {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i])
		}
		list, err := r.Players.ListByTeam(context.Background(), fx.team.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("find_by_name", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)
		p := mkPlayer(t, r, fx, "Cy Lee")
		got, err := r.Players.FindByName(context.Background(), fx.team.ID, "cy LEE")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)

		_, err = r.Players.FindByName(context.Background(), fx.team.ID, "Nobody")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("rename_and_delete", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)
		ctx := context.Background()
		p := mkPlayer(t, r, fx, "Alex")
		renamed, err := r.Players.Rename(ctx, p.ID, "Alex Kim")
		require.NoError(t, err)
		assert.Equal(t, "Alex Kim", renamed.Name)

		require.NoError(t, r.Players.Delete(ctx, p.ID))
		assert.ErrorIs(t, r.Players.Delete(ctx, p.ID), repository.ErrNotFound)
		_, err = r.Players.Rename(ctx, p.ID, "X")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("delete_referenced_conflict", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)
		ctx := context.Background()
		p := mkPlayer(t, r, fx, "Alex Kim")
		g := mkGame(t, r, fx, fx.season.ID, 1)
		_, err := r.Results.InsertBatch(ctx, []model.Result{{GameID: g.ID, PlayerID: p.ID}})
		require.NoError(t, err)
		assert.ErrorIs(t, r.Players.Delete(ctx, p.ID), repository.ErrConflict)
	})
}

func RunGameRepositoryContract(t *testing.T, makeRepos Factory) {
	t.Helper()

	t.Run("get_with_results", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)
		ctx := context.Background()
		g := mkGame(t, r, fx, fx.season.ID, 3)
		alex := mkPlayer(t, r, fx, "Alex Kim")
		_, err := r.Results.InsertBatch(ctx, []model.Result{{
			GameID: g.ID, PlayerID: alex.ID,
			Stats: model.StatRecord{PA: 4, AB: 3, H: 1, Singles: 1, BB: 1},
		}})
		require.NoError(t, err)

		got, err := r.Games.GetWithResults(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, "Spring", got.SeasonName)
		assert.Equal(t, model.SourceManual, got.Source)
		require.Len(t, got.Results, 1)
		assert.Equal(t, "Alex Kim", got.Results[0].PlayerName)
		assert.Equal(t, 3, got.Results[0].Stats.AB)
	})

	t.Run("list_filters_by_season", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)
		ctx := context.Background()
		fall, err := r.Seasons.Create(ctx, model.Season{TeamID: fx.team.ID, Name: "Fall"})
		require.NoError(t, err)
		mkGame(t, r, fx, fx.season.ID, 1)
		mkGame(t, r, fx, fx.season.ID, 2)
		mkGame(t, r, fx, fall.ID, 3)

		all, err := r.Games.ListByTeam(ctx, fx.team.ID, repository.GameFilter{}, repository.Page{})
		require.NoError(t, err)
		assert.Equal(t, 3, all.Total)

		spring, err := r.Games.ListByTeam(ctx, fx.team.ID, repository.GameFilter{SeasonID: &fx.season.ID}, repository.Page{})
		require.NoError(t, err)
		assert.Equal(t, 2, spring.Total)
		require.Len(t, spring.Items, 2)
		assert.True(t, spring.Items[0].GameDate.After(spring.Items[1].GameDate))
	})

	t.Run("delete_cascades_results", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)
		ctx := context.Background()
		g := mkGame(t, r, fx, fx.season.ID, 1)
		p := mkPlayer(t, r, fx, "Alex Kim")
		_, err := r.Results.InsertBatch(ctx, []model.Result{{GameID: g.ID, PlayerID: p.ID}})
		require.NoError(t, err)

		require.NoError(t, r.Games.Delete(ctx, g.ID))
		rows, err := r.Results.ListByPlayer(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.ErrorIs(t, r.Games.Delete(ctx, g.ID), repository.ErrNotFound)
	})

	t.Run("get_not_found", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		_, err := r.Games.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = r.Games.GetWithResults(context.Background(), uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func RunResultRepositoryContract(t *testing.T, makeRepos Factory) {
	t.Helper()

	t.Run("batch_is_all_or_nothing", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)
		ctx := context.Background()
		g := mkGame(t, r, fx, fx.season.ID, 1)
		p := mkPlayer(t, r, fx, "Alex Kim")

		_, err := r.Results.InsertBatch(ctx, []model.Result{
			{GameID: g.ID, PlayerID: p.ID},
			{GameID: g.ID, PlayerID: p.ID},
		})
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
		rows, err := r.Results.ListByGame(ctx, g.ID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("list_by_team_filters", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)
		ctx := context.Background()
		fall, err := r.Seasons.Create(ctx, model.Season{TeamID: fx.team.ID, Name: "Fall"})
		require.NoError(t, err)
		g1 := mkGame(t, r, fx, fx.season.ID, 1)
		g2 := mkGame(t, r, fx, fall.ID, 2)
		p := mkPlayer(t, r, fx, "Alex Kim")
		_, err = r.Results.InsertBatch(ctx, []model.Result{
			{GameID: g1.ID, PlayerID: p.ID, Stats: model.StatRecord{AB: 3}},
		})
		require.NoError(t, err)
		_, err = r.Results.InsertBatch(ctx, []model.Result{
			{GameID: g2.ID, PlayerID: p.ID, Stats: model.StatRecord{AB: 4}},
		})
		require.NoError(t, err)

		all, err := r.Results.ListByTeam(ctx, fx.team.ID, repository.ResultFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		bySeason, err := r.Results.ListByTeam(ctx, fx.team.ID, repository.ResultFilter{SeasonID: &fall.ID})
		require.NoError(t, err)
		require.Len(t, bySeason, 1)
		assert.Equal(t, 4, bySeason[0].Stats.AB)

		byGame, err := r.Results.ListByTeam(ctx, fx.team.ID, repository.ResultFilter{GameID: &g1.ID})
		require.NoError(t, err)
		require.Len(t, byGame, 1)
		assert.Equal(t, 3, byGame[0].Stats.AB)
	})

	t.Run("update_delete_reassign", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		fx := seed(t, r)
		ctx := context.Background()
		g := mkGame(t, r, fx, fx.season.ID, 1)
		a := mkPlayer(t, r, fx, "Alex")
		b := mkPlayer(t, r, fx, "Bo")
		c := mkPlayer(t, r, fx, "Cy")
		rows, err := r.Results.InsertBatch(ctx, []model.Result{
			{GameID: g.ID, PlayerID: a.ID},
			{GameID: g.ID, PlayerID: b.ID},
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)

		updated, err := r.Results.UpdateStats(ctx, rows[0].ID, model.StatRecord{PA: 1, BB: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Stats.BB)

		require.NoError(t, r.Results.ReassignPlayer(ctx, []uuid.UUID{rows[1].ID}, c.ID))
		got, err := r.Results.GetByID(ctx, rows[1].ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.PlayerID)

		n, err := r.Results.DeleteByIDs(ctx, []uuid.UUID{rows[0].ID, uuid.New()})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		_, err = r.Results.GetByID(ctx, rows[0].ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		_, err = r.Results.UpdateStats(ctx, uuid.New(), model.StatRecord{})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func RunTxManagerContract(t *testing.T, makeRepos Factory) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID uuid.UUID
		err := r.Tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := r.Teams.Create(ctx, model.Team{OwnerID: "coach-1", Name: "TxCommit"})
			createdID = out.ID
			return err
		})
		require.NoError(t, err)
		_, err = r.Teams.GetByID(ctx, createdID)
		assert.NoError(t, err)
	})

	t.Run("rollback_on_error", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID uuid.UUID
		boom := errors.New("boom")
		err := r.Tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := r.Teams.Create(ctx, model.Team{OwnerID: "coach-1", Name: "TxRollback"})
			if err != nil {
				return err
			}
			createdID = out.ID
			return boom
		})
		assert.ErrorIs(t, err, boom)
		_, err = r.Teams.GetByID(ctx, createdID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("nested_joins_outer", func(t *testing.T) {
		r, cleanup := makeRepos(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID uuid.UUID
		boom := errors.New("boom")
		err := r.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := r.Tx.WithinTx(ctx, func(ctx context.Context) error {
				out, err := r.Teams.Create(ctx, model.Team{OwnerID: "coach-1", Name: "Inner"})
				createdID = out.ID
				return err
			}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		_, err = r.Teams.GetByID(ctx, createdID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		assert.NoError(t, p.Ping(context.Background()))
	})
}
