package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/scorebook-stats-service/internal/service"
)

// Services bundles the use cases the HTTP layer exposes.
type Services struct {
	Roster     service.RosterService
	Players    service.PlayerResolver
	Ingestion  service.IngestionService
	Submission service.SubmissionService
	Stats      service.StatsService
}

// Options tunes the upload endpoint. A zero UploadRatePerMinute disables the limiter.
type Options struct {
	UploadRatePerMinute int
	UploadBurst         int
	MaxUploadBytes      int64
}

// Deps is everything Register needs. Cache may be nil when Redis is disabled.
type Deps struct {
	DB       Pinger
	Cache    Pinger
	Services Services
	Options  Options
	Logger   zerolog.Logger
}

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, d Deps) {
	r.Use(RequestLogger(d.Logger))

	h := NewHealthHandler(d.DB, d.Cache)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	api := r.Group(APIV1Prefix)
	api.Use(Principal())
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}

		teams := NewTeamHandler(d.Services.Roster)
		teams.Register(api)

		// Stat sheets are readable by anyone who knows the team ID.
		NewStatsHandler(d.Services.Stats).Register(api)

		// Everything below acts on one team and requires its owner.
		owned := api.Group("/teams/:team_id", teams.requireOwner)
		teams.RegisterOwned(owned)
		NewPlayerHandler(d.Services.Roster, d.Services.Players).Register(owned)
		NewGameHandler(d.Services.Ingestion).Register(owned)
		NewUploadHandler(d.Services.Submission, d.Options, d.Logger).Register(owned)
	}
}
