package handler_test

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxviazov/scorebook-stats-service/internal/handler"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
)

const owner = "coach-1"

var teamID = uuid.MustParse("7b0c6a9e-1f42-4b55-9a57-3c1a8d2e0f11")

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

// stubRoster knows one team owned by owner.
type stubRoster struct {
	created []string
}

func (s *stubRoster) team() model.Team { return model.Team{ID: teamID, OwnerID: owner, Name: "Sluggers"} }

func (s *stubRoster) CreateTeam(_ context.Context, ownerID, name string) (model.Team, error) {
	s.created = append(s.created, ownerID+"/"+name)
	return model.Team{ID: uuid.New(), OwnerID: ownerID, Name: name}, nil
}
func (s *stubRoster) GetTeam(_ context.Context, id uuid.UUID) (model.Team, error) {
	if id != teamID {
		return model.Team{}, repository.ErrNotFound
	}
	return s.team(), nil
}
func (s *stubRoster) ListTeams(_ context.Context, ownerID string, _ repository.Page) (repository.PageResult[model.Team], error) {
	if ownerID != owner {
		return repository.PageResult[model.Team]{Items: []model.Team{}}, nil
	}
	return repository.PageResult[model.Team]{Items: []model.Team{s.team()}, Total: 1}, nil
}
func (s *stubRoster) Authorize(ctx context.Context, principal string, id uuid.UUID) (model.Team, error) {
	t, err := s.GetTeam(ctx, id)
	if err != nil {
		return model.Team{}, err
	}
	if principal != t.OwnerID {
		return model.Team{}, service.ErrUnauthorized
	}
	return t, nil
}
func (s *stubRoster) CreateSeason(_ context.Context, _ string, id uuid.UUID, name string) (model.Season, error) {
	return model.Season{ID: uuid.New(), TeamID: id, Name: name}, nil
}
func (s *stubRoster) ListSeasons(context.Context, uuid.UUID) ([]model.Season, error) {
	return []model.Season{}, nil
}
func (s *stubRoster) AddPlayer(_ context.Context, _ string, id uuid.UUID, name string) (model.Player, error) {
	if name == "" {
		return model.Player{}, service.ErrEmptyName
	}
	return model.Player{ID: uuid.New(), TeamID: id, Name: name}, nil
}
func (s *stubRoster) ListPlayers(context.Context, uuid.UUID) ([]model.Player, error) {
	return []model.Player{}, nil
}

type stubResolver struct {
	mergeArgs [2]uuid.UUID
	mergeErr  error
}

func (s *stubResolver) Resolve(context.Context, uuid.UUID, string) (model.Player, bool, error) {
	return model.Player{}, false, errors.New("not used")
}
func (s *stubResolver) Rename(_ context.Context, _ string, tid, pid uuid.UUID, name string) (model.Player, error) {
	return model.Player{ID: pid, TeamID: tid, Name: name}, nil
}
func (s *stubResolver) Merge(_ context.Context, _ string, _ uuid.UUID, src, dst uuid.UUID) (service.MergeSummary, error) {
	s.mergeArgs = [2]uuid.UUID{src, dst}
	if s.mergeErr != nil {
		return service.MergeSummary{}, s.mergeErr
	}
	return service.MergeSummary{Reassigned: 2, Discarded: 1}, nil
}

type stubIngestion struct {
	ingested  []service.IngestRequest
	ingestErr error
	game      model.GameWithResults
	edited    []model.ResultStatsUpdate
	deleted   []uuid.UUID
}

func (s *stubIngestion) Ingest(_ context.Context, req service.IngestRequest) (service.IngestResult, error) {
	s.ingested = append(s.ingested, req)
	if s.ingestErr != nil {
		return service.IngestResult{}, s.ingestErr
	}
	return service.IngestResult{Game: model.GameWithResults{Game: model.Game{ID: uuid.New(), TeamID: req.TeamID}}}, nil
}
func (s *stubIngestion) Update(_ context.Context, _, gameID uuid.UUID, _ []model.PlayerStatInput) (service.IngestResult, error) {
	return service.IngestResult{Game: model.GameWithResults{Game: model.Game{ID: gameID}}}, nil
}
func (s *stubIngestion) EditResultStats(_ context.Context, _ uuid.UUID, u []model.ResultStatsUpdate) ([]model.Result, error) {
	s.edited = append(s.edited, u...)
	out := make([]model.Result, len(u))
	for i, x := range u {
		out[i] = model.Result{ID: x.ResultID, GameID: s.game.ID, Stats: x.Stats}
	}
	return out, nil
}
func (s *stubIngestion) GetGame(_ context.Context, _, gameID uuid.UUID) (model.GameWithResults, error) {
	if gameID != s.game.ID {
		return model.GameWithResults{}, repository.ErrNotFound
	}
	return s.game, nil
}
func (s *stubIngestion) ListGames(context.Context, uuid.UUID, *uuid.UUID, repository.Page) (repository.PageResult[model.Game], error) {
	return repository.PageResult[model.Game]{Items: []model.Game{}}, nil
}
func (s *stubIngestion) DeleteGame(_ context.Context, _, gameID uuid.UUID) error {
	s.deleted = append(s.deleted, gameID)
	return nil
}

type stubSubmission struct {
	reqs []service.SubmitRequest
	err  error
}

func (s *stubSubmission) Submit(_ context.Context, req service.SubmitRequest) (service.SubmitResult, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return service.SubmitResult{}, s.err
	}
	return service.SubmitResult{IngestResult: service.IngestResult{
		Game: model.GameWithResults{Game: model.Game{ID: uuid.New(), TeamID: req.TeamID, GameDate: time.Now()}},
	}}, nil
}

type stubStats struct {
	filters []service.StatsFilter
	limits  []int
	err     error
}

func (s *stubStats) TeamStats(_ context.Context, _ uuid.UUID, f service.StatsFilter) (stats.Sheet, error) {
	s.filters = append(s.filters, f)
	if s.err != nil {
		return stats.Sheet{}, s.err
	}
	return stats.Sheet{Rows: []stats.Row{}, Leaders: map[string]float64{}}, nil
}

func (s *stubStats) OwnerLeaders(_ context.Context, ownerID string, limit int) (service.OwnerSummary, error) {
	s.limits = append(s.limits, limit)
	if ownerID == "" {
		return service.OwnerSummary{}, service.ErrUnauthorized
	}
	return service.OwnerSummary{
		Teams:   1,
		Players: 2,
		Games:   1,
		Leaders: []service.Leader{{PlayerID: uuid.New(), Name: "Alex", TeamID: teamID, TeamName: "Sluggers", GP: 1}},
	}, nil
}

type stubs struct {
	roster     *stubRoster
	resolver   *stubResolver
	ingestion  *stubIngestion
	submission *stubSubmission
	stats      *stubStats
}

func newStubs() *stubs {
	return &stubs{
		roster:     &stubRoster{},
		resolver:   &stubResolver{},
		ingestion:  &stubIngestion{},
		submission: &stubSubmission{},
		stats:      &stubStats{},
	}
}

func newRouter(s *stubs, opts handler.Options, cache handler.Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.Register(r, handler.Deps{
		DB:    stubPinger{},
		Cache: cache,
		Services: handler.Services{
			Roster:     s.roster,
			Players:    s.resolver,
			Ingestion:  s.ingestion,
			Submission: s.submission,
			Stats:      s.stats,
		},
		Options: opts,
		Logger:  zerolog.Nop(),
	})
	return r
}
