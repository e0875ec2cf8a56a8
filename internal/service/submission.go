package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxviazov/scorebook-stats-service/internal/extractor"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/repository"
	"github.com/maxviazov/scorebook-stats-service/internal/vision"
)

// Extractor reads stat lines off a scorebook image.
type Extractor interface {
	Extract(ctx context.Context, img vision.Image) (extractor.Output, error)
}

type submissionService struct {
	extractor Extractor
	seasons   repository.SeasonRepository
	teams     repository.TeamRepository
	ingest    IngestionService
	now       func() time.Time
	log       zerolog.Logger
}

func NewSubmissionService(ext Extractor, st Stores, ingest IngestionService, logger zerolog.Logger) SubmissionService {
	l := logger.With().Str("module", "service").Str("component", "submission").Logger()
	return &submissionService{extractor: ext, seasons: st.Seasons, teams: st.Teams, ingest: ingest, now: time.Now, log: l}
}

func (s *submissionService) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	start := time.Now()
	if req.Source == "" {
		req.Source = model.SourceUpload
	}
	if req.Source != model.SourceUpload && req.Source != model.SourceSMS {
		return SubmitResult{}, invalidField("source", "must be one of upload|sms")
	}
	if req.Image.URL == "" && len(req.Image.Data) == 0 {
		return SubmitResult{}, invalidField("image", "must be set")
	}
	if _, err := s.teams.GetByID(ctx, req.TeamID); err != nil {
		return SubmitResult{}, err
	}

	// Resolve the season before paying for a model call.
	seasonID, err := s.season(ctx, req.TeamID, req.SeasonID)
	if err != nil {
		return SubmitResult{}, err
	}
	gameDate := req.GameDate
	if gameDate.IsZero() {
		y, m, d := s.now().UTC().Date()
		gameDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	out, err := s.extractor.Extract(ctx, req.Image)
	if err != nil {
		s.log.Warn().Err(err).Str("team_id", req.TeamID.String()).Msg("scorebook extraction failed")
		return SubmitResult{}, err
	}
	if len(out.Players) == 0 {
		return SubmitResult{}, fmt.Errorf("%w: no stats were found in the image", ErrExtractionFailure)
	}

	lines := make([]model.PlayerStatInput, len(out.Players))
	for i, p := range out.Players {
		lines[i] = model.PlayerStatInput{Token: p.PlayerName, Stats: p.Stats}
	}
	res, err := s.ingest.Ingest(ctx, IngestRequest{
		TeamID:   req.TeamID,
		SeasonID: seasonID,
		GameDate: gameDate,
		Source:   req.Source,
		Stats:    lines,
	})
	if err != nil {
		return SubmitResult{}, err
	}
	s.log.Info().
		Dur("took", time.Since(start)).
		Str("team_id", req.TeamID.String()).
		Int("extracted", len(out.Players)).
		Int("flagged", len(out.Flagged)).
		Msg("scorebook submitted")
	return SubmitResult{IngestResult: res, Flagged: out.Flagged}, nil
}

func (s *submissionService) season(ctx context.Context, teamID uuid.UUID, seasonID *uuid.UUID) (uuid.UUID, error) {
	if seasonID != nil {
		return *seasonID, nil
	}
	latest, err := s.seasons.Latest(ctx, teamID)
	if errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, invalidField("season_id", "team has no seasons")
	}
	if err != nil {
		return uuid.Nil, err
	}
	return latest.ID, nil
}
