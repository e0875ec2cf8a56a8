package app_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/scorebook-stats-service/internal/app"
	"github.com/maxviazov/scorebook-stats-service/internal/cache"
	"github.com/maxviazov/scorebook-stats-service/internal/config"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
)

func TestCoordinate_WithoutRedis(t *testing.T) {
	co, err := app.Coordinate(context.Background(), config.Redis{Enabled: false, CacheTTLSeconds: 60}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &cache.LocalLocker{}, co.Locker)
	assert.IsType(t, &cache.MemoryStatsCache{}, co.Sheets)
	assert.Nil(t, co.Redis)
	assert.NoError(t, co.Close())
}

func TestCoordinate_BadRedisURL(t *testing.T) {
	_, err := app.Coordinate(context.Background(), config.Redis{Enabled: true, URL: "not a url"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewServices_SubmissionNeedsExtractor(t *testing.T) {
	cfg := &config.Config{}
	co, err := app.Coordinate(context.Background(), config.Redis{}, zerolog.Nop())
	require.NoError(t, err)

	svcs := app.NewServices(cfg, service.Stores{}, co, nil, zerolog.Nop())
	assert.NotNil(t, svcs.Roster)
	assert.NotNil(t, svcs.Players)
	assert.NotNil(t, svcs.Ingestion)
	assert.NotNil(t, svcs.Stats)
	assert.Nil(t, svcs.Submission)

	ext := app.Extractor(&config.Config{Extraction: config.Extraction{Policy: "keep"}}, zerolog.Nop())
	svcs = app.NewServices(cfg, service.Stores{}, co, ext, zerolog.Nop())
	assert.NotNil(t, svcs.Submission)
}
