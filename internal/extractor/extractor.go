// Package extractor turns a scorebook photo into per-player stat lines using
// a vision model, then re-checks every line locally before handing it on.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
	"github.com/maxviazov/scorebook-stats-service/internal/vision"
)

// ErrExtractionFailure covers every way a scorebook read can fail: the model
// call errored or timed out, or its output did not match the schema.
var ErrExtractionFailure = errors.New("scorebook extraction failed")

// Stage names where an extraction failed.
type Stage string

const (
	StageModel    Stage = "model"
	StageDecode   Stage = "decode"
	StageValidate Stage = "validate"
)

// FailureError is returned for every extraction failure. errors.Is matches it
// against ErrExtractionFailure; Unwrap exposes the underlying cause.
type FailureError struct {
	Stage Stage
	Err   error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrExtractionFailure, e.Stage, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

func (e *FailureError) Is(target error) bool { return target == ErrExtractionFailure }

// Upstream reports whether the failure came from the model provider rather
// than from what it returned.
func (e *FailureError) Upstream() bool { return e.Stage == StageModel }

func fail(stage Stage, err error) error { return &FailureError{Stage: stage, Err: err} }

// Policy decides what happens to rows that break the stat identities.
type Policy string

const (
	// PolicyDrop omits offending rows and reports them as rejected.
	PolicyDrop Policy = "drop"
	// PolicyReject fails the whole extraction if any row is invalid.
	PolicyReject Policy = "reject"
	// PolicyKeep passes offending rows through and reports them as flagged.
	PolicyKeep Policy = "keep"
)

// Generator is the structured-generation capability the extractor drives.
// *vision.Client satisfies it.
type Generator interface {
	CompleteJSON(ctx context.Context, req vision.Request) (string, error)
}

// Config tunes an Extractor.
type Config struct {
	Timeout  time.Duration
	Policy   Policy
	Examples []Example
}

// Flagged is a row that failed local validation.
type Flagged struct {
	Row        int                       `json:"row"`
	Player     model.ExtractedPlayerStat `json:"player"`
	Violations []stats.Violation         `json:"violations"`
}

// Output is what one scorebook read produced. Players is in scorebook order.
// Flagged lists rows that broke the identities: dropped under PolicyDrop,
// still present in Players under PolicyKeep.
type Output struct {
	Players []model.ExtractedPlayerStat `json:"players"`
	Flagged []Flagged                   `json:"flagged,omitempty"`
}

// Extractor reads scorebook images.
type Extractor struct {
	gen    Generator
	cfg    Config
	schema *vision.Schema
	log    zerolog.Logger
}

// New builds an Extractor. A zero Policy means PolicyDrop; nil Examples means DefaultExamples.
func New(gen Generator, cfg Config, logger zerolog.Logger) *Extractor {
	switch cfg.Policy {
	case PolicyDrop, PolicyReject, PolicyKeep:
	default:
		cfg.Policy = PolicyDrop
	}
	if cfg.Examples == nil {
		cfg.Examples = DefaultExamples
	}
	return &Extractor{
		gen:    gen,
		cfg:    cfg,
		schema: &vision.Schema{Name: schemaName, Schema: outputSchema(), Strict: true},
		log:    logger.With().Str("module", "extractor").Logger(),
	}
}

// Request builds the model request for a target image: examples first, each
// as heading, image and annotation, then the target.
func (e *Extractor) Request(target vision.Image) vision.Request {
	parts := make([]vision.Part, 0, 3*len(e.cfg.Examples)+3)
	if len(e.cfg.Examples) > 0 {
		parts = append(parts, vision.TextPart(examplesIntro))
	}
	for i, ex := range e.cfg.Examples {
		parts = append(parts,
			vision.TextPart(ex.heading(i+1)),
			vision.ImagePart(vision.Image{URL: ex.ImageURL}),
			vision.TextPart(ex.Annotation),
		)
	}
	parts = append(parts, vision.TextPart(targetIntro), vision.ImagePart(target))
	return vision.Request{System: SystemPrompt, Parts: parts, Schema: e.schema}
}

// Extract reads one scorebook image. Rows without a legible name are omitted.
// Every remaining row is checked with stats.Validate and handled per Policy.
func (e *Extractor) Extract(ctx context.Context, img vision.Image) (Output, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	content, err := e.gen.CompleteJSON(ctx, e.Request(img))
	if err != nil {
		e.log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("vision call failed")
		return Output{}, fail(StageModel, err)
	}

	var payload scorebookPayload
	if err := vision.DecodeJSON(content, &payload); err != nil {
		return Output{}, fail(StageDecode, err)
	}
	if payload.Players == nil {
		return Output{}, fail(StageDecode, errors.New(`missing "players" array`))
	}

	var out Output
	for i, row := range *payload.Players {
		row.PlayerName = strings.TrimSpace(row.PlayerName)
		if row.PlayerName == "" {
			e.log.Debug().Int("row", i+1).Msg("skipping row without a legible name")
			continue
		}
		if verr := stats.Validate(row.Stats); verr != nil {
			out.Flagged = append(out.Flagged, Flagged{Row: i + 1, Player: row, Violations: stats.Violations(verr)})
			switch e.cfg.Policy {
			case PolicyReject:
				return Output{}, fail(StageValidate, fmt.Errorf("row %d (%s): %w", i+1, row.PlayerName, verr))
			case PolicyDrop:
				continue
			}
		}
		out.Players = append(out.Players, row)
	}

	e.log.Info().
		Int("players", len(out.Players)).
		Int("flagged", len(out.Flagged)).
		Str("policy", string(e.cfg.Policy)).
		Dur("elapsed", time.Since(start)).
		Msg("scorebook extracted")
	return out, nil
}
