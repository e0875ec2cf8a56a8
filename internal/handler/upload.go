package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
	"github.com/maxviazov/scorebook-stats-service/internal/vision"
	"github.com/maxviazov/scorebook-stats-service/pkg/response"
)

const defaultMaxUploadBytes = 10 << 20

// UploadHandler accepts scorebook photos and runs them through extraction and ingestion.
type UploadHandler struct {
	svc  service.SubmissionService
	opts Options
	log  zerolog.Logger
}

func NewUploadHandler(svc service.SubmissionService, opts Options, logger zerolog.Logger) *UploadHandler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	l := logger.With().Str("module", "http").Str("component", "upload").Logger()
	return &UploadHandler{svc: svc, opts: opts, log: l}
}

// Register mounts the upload route on a group already scoped to /teams/:team_id.
// Each upload costs a vision model call, so the route is rate limited per IP.
func (h *UploadHandler) Register(r *gin.RouterGroup) {
	r.POST("/uploads", RateLimit(h.opts.UploadRatePerMinute, h.opts.UploadBurst), h.upload)
}

// uploadForm is shared by the JSON (image_url) and multipart (image file) variants.
type uploadForm struct {
	ImageURL string `json:"image_url" form:"image_url"`
	SeasonID string `json:"season_id" form:"season_id"`
	GameDate string `json:"game_date" form:"game_date"`
	Source   string `json:"source" form:"source"`
}

func (h *UploadHandler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	form, img, err := h.readImage(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	seasonID, err := optionalUUID("season_id", form.SeasonID)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	date, err := parseDate(form.GameDate)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	teamID := ownedTeamID(c)
	res, err := h.svc.Submit(c.Request.Context(), service.SubmitRequest{
		TeamID:   teamID,
		SeasonID: seasonID,
		GameDate: date,
		Source:   model.GameSource(form.Source),
		Image:    img,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	h.log.Info().
		Str("team_id", teamID.String()).
		Str("game_id", res.Game.ID.String()).
		Int("lines", len(res.Game.Results)).
		Int("flagged", len(res.Flagged)).
		Msg("scorebook ingested")
	response.WriteData(c, http.StatusCreated, res)
}

func (h *UploadHandler) readImage(c *gin.Context) (uploadForm, vision.Image, error) {
	var form uploadForm
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&form); err != nil {
			return form, vision.Image{}, bodyError(err)
		}
		return form, vision.Image{URL: strings.TrimSpace(form.ImageURL)}, nil
	}

	if err := c.ShouldBind(&form); err != nil {
		return form, vision.Image{}, bodyError(err)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return form, vision.Image{URL: strings.TrimSpace(form.ImageURL)}, nil
		}
		return form, vision.Image{}, bodyError(err)
	}
	f, err := fh.Open()
	if err != nil {
		return form, vision.Image{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return form, vision.Image{}, bodyError(err)
	}
	mime := fh.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return form, vision.Image{}, invalid("image", "must be an image")
	}
	return form, vision.Image{Data: data, MIMEType: mime}, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return invalid("image", "upload exceeds the size limit")
	}
	return invalid("body", "malformed upload request")
}
