package main

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/scorebook-stats-service/internal/extractor"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
)

func TestRenderSheet_MarksLeaders(t *testing.T) {
	engine := stats.NewEngine(stats.DefaultOptions())
	alex := model.Player{ID: uuid.New(), Name: "Alex Kim"}
	sam := model.Player{ID: uuid.New(), Name: "Sam Ortiz"}
	g := uuid.New()
	sheet := engine.BuildSheet([]model.Player{alex, sam}, []model.Result{
		{GameID: g, PlayerID: alex.ID, Stats: model.StatRecord{PA: 4, AB: 3, BB: 1, H: 1, Singles: 1}},
		{GameID: g, PlayerID: sam.ID, Stats: model.StatRecord{PA: 4, AB: 4}},
	})

	out := renderSheet(sheet)
	lines := strings.Split(out, "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, out, "Alex Kim")
	assert.Contains(t, out, ".333*")
	assert.Contains(t, out, ".500*")
	assert.Less(t, strings.Index(out, "Alex Kim"), strings.Index(out, "Sam Ortiz"), "rows follow OPS order")
}

func TestRenderExtraction(t *testing.T) {
	out := renderExtraction(extractor.Output{
		Players: []model.ExtractedPlayerStat{{PlayerName: "Alex Kim", Stats: model.StatRecord{PA: 4, AB: 3, BB: 1, H: 1, Singles: 1}}},
		Flagged: []extractor.Flagged{{
			Row:        2,
			Player:     model.ExtractedPlayerStat{PlayerName: "Sam Ortiz"},
			Violations: []stats.Violation{{Field: "H", Message: "H=1 but 1B+2B+3B+HR=0"}},
		}},
	})
	assert.Contains(t, out, "Alex Kim")
	assert.Contains(t, out, "1B")
	assert.Contains(t, out, "Flagged rows")
	assert.Contains(t, out, "H: H=1 but 1B+2B+3B+HR=0")
}

func TestLoadImage(t *testing.T) {
	img, err := loadImage("https://example.com/book.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/book.jpg", img.URL)

	_, err = loadImage("/does/not/exist.png")
	assert.Error(t, err)
}
