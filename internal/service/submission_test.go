package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/scorebook-stats-service/internal/extractor"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
	"github.com/maxviazov/scorebook-stats-service/internal/vision"
)

var scorebook = vision.Image{URL: "https://example.com/scorebook.jpg"}

func TestSubmit_EndToEnd(t *testing.T) {
	h := newHarness(service.IngestionOptions{})
	ctx := context.Background()
	h.extractor.out = extractor.Output{Players: []model.ExtractedPlayerStat{{
		PlayerName: "Alex Kim",
		Stats:      model.StatRecord{PA: 4, AB: 3, H: 1, Singles: 1, BB: 1},
	}}}

	res, err := h.submit.Submit(ctx, service.SubmitRequest{TeamID: h.team.ID, Image: scorebook})
	require.NoError(t, err)
	require.Len(t, res.NewPlayers, 1)
	assert.Equal(t, "Alex Kim", res.NewPlayers[0].Name)
	assert.Equal(t, model.SourceUpload, res.Game.Source)
	assert.Equal(t, h.season.ID, res.Game.SeasonID, "latest season is used")
	require.Len(t, res.Game.Results, 1)

	sheet, err := h.stats.TeamStats(ctx, h.team.ID, service.StatsFilter{})
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, ".333", stats.FormatRate(sheet.Rows[0].Rates.AVG))
	assert.Equal(t, ".500", stats.FormatRate(sheet.Rows[0].Rates.OBP))
}

func TestSubmit_NoPlayersIsExtractionFailure(t *testing.T) {
	h := newHarness(service.IngestionOptions{})
	_, err := h.submit.Submit(context.Background(), service.SubmitRequest{TeamID: h.team.ID, Image: scorebook})
	assert.ErrorIs(t, err, service.ErrExtractionFailure)
	assert.Empty(t, h.store.games)
}

func TestSubmit_ExtractorErrorStopsBeforeGame(t *testing.T) {
	h := newHarness(service.IngestionOptions{})
	h.extractor.err = &extractor.FailureError{Stage: extractor.StageModel, Err: errBoom}
	_, err := h.submit.Submit(context.Background(), service.SubmitRequest{TeamID: h.team.ID, Image: scorebook, Source: model.SourceSMS})
	assert.ErrorIs(t, err, service.ErrExtractionFailure)
	assert.Empty(t, h.store.games)
}

func TestSubmit_Preconditions(t *testing.T) {
	h := newHarness(service.IngestionOptions{})
	ctx := context.Background()

	_, err := h.submit.Submit(ctx, service.SubmitRequest{TeamID: h.team.ID, Image: scorebook, Source: model.SourceManual})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = h.submit.Submit(ctx, service.SubmitRequest{TeamID: h.team.ID})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	bare, err := h.roster.CreateTeam(ctx, owner, "No Seasons")
	require.NoError(t, err)
	_, err = h.submit.Submit(ctx, service.SubmitRequest{TeamID: bare.ID, Image: scorebook})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, "season_id", service.FieldErrors(err)[0].Field)
	assert.Zero(t, h.extractor.calls, "no model call without a season")
}

func TestSubmit_FlaggedRowsAreReported(t *testing.T) {
	h := newHarness(service.IngestionOptions{})
	h.extractor.out = extractor.Output{
		Players: []model.ExtractedPlayerStat{{PlayerName: "Bo", Stats: model.StatRecord{PA: 1, BB: 1}}},
		Flagged: []extractor.Flagged{{Row: 2, Player: model.ExtractedPlayerStat{PlayerName: "Cy"}}},
	}
	res, err := h.submit.Submit(context.Background(), service.SubmitRequest{TeamID: h.team.ID, Image: scorebook})
	require.NoError(t, err)
	assert.Len(t, res.Flagged, 1)
	assert.Len(t, res.Game.Results, 1)
}
