package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
)

func TestResolve_NameIsIdempotentAcrossCasing(t *testing.T) {
	h := newHarness(service.IngestionOptions{})
	ctx := context.Background()

	first, created, err := h.resolver.Resolve(ctx, h.team.ID, "  Jane   Doe ")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Jane Doe", first.Name)

	for _, token := range []string{"Jane Doe", "jane doe", "JANE DOE"} {
		got, created, err := h.resolver.Resolve(ctx, h.team.ID, token)
		require.NoError(t, err)
		assert.False(t, created, token)
		assert.Equal(t, first.ID, got.ID, token)
	}
	assert.Equal(t, 1, h.store.createCalls)
	assert.Equal(t, 1, h.store.upsertCalls, "known names are found without an insert attempt")
}

func TestResolve_ByID(t *testing.T) {
	h := newHarness(service.IngestionOptions{})
	ctx := context.Background()
	p, _, err := h.resolver.Resolve(ctx, h.team.ID, "Alex Kim")
	require.NoError(t, err)

	got, created, err := h.resolver.Resolve(ctx, h.team.ID, p.ID.String())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p.ID, got.ID)

	_, _, err = h.resolver.Resolve(ctx, h.team.ID, uuid.NewString())
	assert.ErrorIs(t, err, service.ErrPlayerNotFound)

	other, err := h.roster.CreateTeam(ctx, "coach-2", "Other")
	require.NoError(t, err)
	_, _, err = h.resolver.Resolve(ctx, other.ID, p.ID.String())
	assert.ErrorIs(t, err, service.ErrPlayerNotFound, "players of other teams are invisible")
}

func TestResolve_EmptyName(t *testing.T) {
	h := newHarness(service.IngestionOptions{})
	_, _, err := h.resolver.Resolve(context.Background(), h.team.ID, " \t ")
	assert.ErrorIs(t, err, service.ErrEmptyName)
}

func TestRename(t *testing.T) {
	h := newHarness(service.IngestionOptions{})
	ctx := context.Background()
	p, _, err := h.resolver.Resolve(ctx, h.team.ID, "alex")
	require.NoError(t, err)

	t.Run("requires_owner", func(t *testing.T) {
		_, err := h.resolver.Rename(ctx, "someone-else", h.team.ID, p.ID, "Alex Kim")
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})
	t.Run("empty_name", func(t *testing.T) {
		_, err := h.resolver.Rename(ctx, owner, h.team.ID, p.ID, "  ")
		assert.ErrorIs(t, err, service.ErrEmptyName)
	})
	t.Run("unknown_player", func(t *testing.T) {
		_, err := h.resolver.Rename(ctx, owner, h.team.ID, uuid.New(), "X")
		assert.ErrorIs(t, err, service.ErrPlayerNotFound)
	})
	t.Run("renames_idempotently", func(t *testing.T) {
		out, err := h.resolver.Rename(ctx, owner, h.team.ID, p.ID, "Alex Kim")
		require.NoError(t, err)
		assert.Equal(t, "Alex Kim", out.Name)
		again, err := h.resolver.Rename(ctx, owner, h.team.ID, p.ID, "Alex Kim")
		require.NoError(t, err)
		assert.Equal(t, out, again)
	})
	t.Run("name_taken", func(t *testing.T) {
		_, _, err := h.resolver.Resolve(ctx, h.team.ID, "Bo Park")
		require.NoError(t, err)
		_, err = h.resolver.Rename(ctx, owner, h.team.ID, p.ID, "bo park")
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	})
}

func TestMerge_TargetWinsOnSharedGames(t *testing.T) {
	h := newHarness(service.IngestionOptions{})
	ctx := context.Background()

	src, _, err := h.resolver.Resolve(ctx, h.team.ID, "Jon Smith")
	require.NoError(t, err)
	dst, _, err := h.resolver.Resolve(ctx, h.team.ID, "John Smith")
	require.NoError(t, err)

	// G1: source only. G2: both. G3: target only.
	g1, err := h.ingestLines(line("Jon Smith", model.StatRecord{AB: 1}))
	require.NoError(t, err)
	g2, err := h.ingestLines(line("Jon Smith", model.StatRecord{AB: 2}), line("John Smith", model.StatRecord{AB: 20}))
	require.NoError(t, err)
	g3, err := h.ingestLines(line("John Smith", model.StatRecord{AB: 30}))
	require.NoError(t, err)

	sum, err := h.resolver.Merge(ctx, owner, h.team.ID, src.ID, dst.ID)
	require.NoError(t, err)
	assert.Equal(t, service.MergeSummary{Reassigned: 1, Discarded: 1}, sum)

	rows, err := h.store.stores().Results.ListByPlayer(ctx, dst.ID)
	require.NoError(t, err)
	byGame := map[uuid.UUID]int{}
	for _, r := range rows {
		byGame[r.GameID] = r.Stats.AB
	}
	assert.Equal(t, map[uuid.UUID]int{g1.Game.ID: 1, g2.Game.ID: 20, g3.Game.ID: 30}, byGame)

	_, err = h.store.stores().Players.GetByID(ctx, src.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	orphans, err := h.store.stores().Results.ListByPlayer(ctx, src.ID)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestMerge_Preconditions(t *testing.T) {
	h := newHarness(service.IngestionOptions{})
	ctx := context.Background()
	a, _, err := h.resolver.Resolve(ctx, h.team.ID, "A")
	require.NoError(t, err)
	b, _, err := h.resolver.Resolve(ctx, h.team.ID, "B")
	require.NoError(t, err)

	_, err = h.resolver.Merge(ctx, owner, h.team.ID, a.ID, a.ID)
	assert.ErrorIs(t, err, service.ErrInvalidMerge)

	_, err = h.resolver.Merge(ctx, owner, h.team.ID, a.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrInvalidMerge)

	_, err = h.resolver.Merge(ctx, "intruder", h.team.ID, a.ID, b.ID)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	other, err := h.roster.CreateTeam(ctx, "coach-2", "Other")
	require.NoError(t, err)
	c, _, err := h.resolver.Resolve(ctx, other.ID, "C")
	require.NoError(t, err)
	_, err = h.resolver.Merge(ctx, owner, h.team.ID, a.ID, c.ID)
	assert.ErrorIs(t, err, service.ErrInvalidMerge)
}

func TestMerge_IsAtomic(t *testing.T) {
	h := newHarness(service.IngestionOptions{})
	ctx := context.Background()
	src, _, _ := h.resolver.Resolve(ctx, h.team.ID, "Src")
	dst, _, _ := h.resolver.Resolve(ctx, h.team.ID, "Dst")
	_, err := h.ingestLines(line("Src", model.StatRecord{AB: 1}))
	require.NoError(t, err)

	h.store.failDelete = errBoom

	_, err = h.resolver.Merge(ctx, owner, h.team.ID, src.ID, dst.ID)
	assert.ErrorIs(t, err, errBoom)

	rows, err := h.store.stores().Results.ListByPlayer(ctx, src.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "rollback restores the reassignment")
	moved, err := h.store.stores().Results.ListByPlayer(ctx, dst.ID)
	require.NoError(t, err)
	assert.Empty(t, moved)
	_, err = h.store.stores().Players.GetByID(ctx, src.ID)
	assert.NoError(t, err)
}
