package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/scorebook-stats-service/internal/app"
	"github.com/maxviazov/scorebook-stats-service/internal/config"
	"github.com/maxviazov/scorebook-stats-service/internal/handler"
	"github.com/maxviazov/scorebook-stats-service/internal/logger"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
	"github.com/maxviazov/scorebook-stats-service/internal/repository/postgres"
	"github.com/maxviazov/scorebook-stats-service/migrations"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	migrate := flag.Bool("migrate", false, "apply pending migrations before serving")
	flag.Parse()

	// Load application config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectPgx, err := repository.New(ctx, cfg, &appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("❌ Postgres connection failed")
	}
	defer connectPgx.Close()

	if *migrate {
		db := connectPgx.SQLDB()
		if err := migrations.Up(ctx, db); err != nil {
			appLogger.Fatal().Err(err).Msg("❌ Migrations failed")
		}
		_ = db.Close()
		appLogger.Info().Msg("migrations applied")
	}

	co, err := app.Coordinate(ctx, cfg.Redis, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("❌ Redis connection failed")
	}
	defer func() { _ = co.Close() }()

	svcs := app.NewServices(cfg, app.Stores(connectPgx.Pool()), co, app.Extractor(cfg, appLogger), appLogger)

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	deps := handler.Deps{
		DB: postgres.NewPinger(connectPgx.Pool()),
		Services: handler.Services{
			Roster:     svcs.Roster,
			Players:    svcs.Players,
			Ingestion:  svcs.Ingestion,
			Submission: svcs.Submission,
			Stats:      svcs.Stats,
		},
		Options: handler.Options{
			UploadRatePerMinute: cfg.HTTP.UploadRatePerMinute,
			UploadBurst:         cfg.HTTP.UploadBurst,
			MaxUploadBytes:      cfg.HTTP.MaxUploadBytes,
		},
		Logger: appLogger,
	}
	// Leave Cache as a nil interface when Redis is off so readiness skips it.
	if co.Redis != nil {
		deps.Cache = co.Redis
	}
	handler.Register(r, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info().Int("port", cfg.App.Port).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.App.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
