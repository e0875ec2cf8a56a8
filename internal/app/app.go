// Package app assembles repositories, caches and services from config. Both
// the HTTP server and scorebookctl build their object graph here.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/maxviazov/scorebook-stats-service/internal/cache"
	"github.com/maxviazov/scorebook-stats-service/internal/config"
	"github.com/maxviazov/scorebook-stats-service/internal/extractor"
	"github.com/maxviazov/scorebook-stats-service/internal/repository/postgres"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
	"github.com/maxviazov/scorebook-stats-service/internal/vision"
)

// Stores builds every postgres repository over one pool.
func Stores(pool *pgxpool.Pool) service.Stores {
	return service.Stores{
		Tx:      postgres.NewTxManager(pool),
		Teams:   postgres.NewTeamRepository(pool),
		Seasons: postgres.NewSeasonRepository(pool),
		Players: postgres.NewPlayerRepository(pool),
		Games:   postgres.NewGameRepository(pool),
		Results: postgres.NewResultRepository(pool),
	}
}

// Extractor builds the vision client and the scorebook extractor on top of it.
func Extractor(cfg *config.Config, logger zerolog.Logger) *extractor.Extractor {
	client := vision.NewClient(vision.Config{
		APIKey:         cfg.Vision.APIKey,
		BaseURL:        cfg.Vision.BaseURL,
		Model:          cfg.Vision.Model,
		TimeoutSeconds: cfg.Vision.TimeoutSeconds,
		MaxTokens:      cfg.Vision.MaxTokens,
	}, vision.WithRetryMaxAttempts(cfg.Vision.RetryAttempts))

	var examples []extractor.Example
	if len(cfg.Extraction.Examples) > 0 {
		examples = cfg.Extraction.Examples
	}
	return extractor.New(client, extractor.Config{
		Timeout:  time.Duration(cfg.Extraction.TimeoutSeconds) * time.Second,
		Policy:   extractor.Policy(cfg.Extraction.Policy),
		Examples: examples,
	}, logger)
}

// Coordination is the lock and stat-sheet cache pair shared by the services.
// Redis is nil when it is disabled.
type Coordination struct {
	Locker cache.TeamLocker
	Sheets cache.StatsCache
	Redis  *cache.RedisCache
}

// Close releases the Redis connection when there is one.
func (c Coordination) Close() error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Close()
}

// Coordinate connects to Redis when enabled and falls back to in-process
// locks and an in-memory sheet cache otherwise.
func Coordinate(ctx context.Context, cfg config.Redis, logger zerolog.Logger) (Coordination, error) {
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if !cfg.Enabled {
		logger.Info().Msg("redis disabled, using in-process team locks")
		return Coordination{Locker: cache.NewLocalLocker(), Sheets: cache.NewMemoryStatsCache(cacheTTL)}, nil
	}

	rc, err := cache.NewRedisCache(ctx, cfg.URL)
	if err != nil {
		return Coordination{}, fmt.Errorf("redis: %w", err)
	}
	l := logger.With().Str("module", "cache").Logger()
	locker := cache.NewRedisLocker(rc, time.Duration(cfg.LockTTLSeconds)*time.Second,
		cache.WithLostHandler(func(teamID uuid.UUID, err error) {
			l.Warn().Err(err).Str("team_id", teamID.String()).Msg("team lock expired before release")
		}))
	logger.Info().Msg("connected to Redis")
	return Coordination{Locker: locker, Sheets: cache.NewRedisStatsCache(rc, cacheTTL), Redis: rc}, nil
}

// Services is the full set of use cases.
type Services struct {
	Roster     service.RosterService
	Players    service.PlayerResolver
	Ingestion  service.IngestionService
	Submission service.SubmissionService
	Stats      service.StatsService
}

// NewServices wires the use cases. ext may be nil for callers that never submit images.
func NewServices(cfg *config.Config, st service.Stores, co Coordination, ext service.Extractor, logger zerolog.Logger) Services {
	resolver := service.NewPlayerResolver(st, co.Locker, co.Sheets, logger)
	ingestion := service.NewIngestionService(st, resolver, co.Locker, co.Sheets,
		service.IngestionOptions{ValidateManual: cfg.Ingestion.ValidateManual}, logger)
	out := Services{
		Roster:    service.NewRosterService(st, co.Sheets, logger),
		Players:   resolver,
		Ingestion: ingestion,
		Stats:     service.NewStatsService(st, stats.NewEngine(cfg.StatsOptions()), co.Sheets, logger),
	}
	if ext != nil {
		out.Submission = service.NewSubmissionService(ext, st, ingestion, logger)
	}
	return out
}
