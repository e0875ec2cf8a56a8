package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
	"github.com/maxviazov/scorebook-stats-service/pkg/response"
)

type GameHandler struct {
	svc service.IngestionService
}

func NewGameHandler(svc service.IngestionService) *GameHandler { return &GameHandler{svc: svc} }

// Register mounts game routes on a group already scoped to /teams/:team_id.
func (h *GameHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/games")
	{
		g.POST("", h.create)
		g.GET("", h.list)
		g.GET("/:game_id", h.getByID)
		g.PUT("/:game_id", h.update)
		g.DELETE("/:game_id", h.delete)
		g.PATCH("/:game_id/results", h.editResults)
	}
}

type createGameRequest struct {
	SeasonID string                  `json:"season_id"`
	GameDate string                  `json:"game_date"` // YYYY-MM-DD
	Stats    []model.PlayerStatInput `json:"stats"`
}

// parseDate accepts an empty string as the zero time and lets the service decide.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, invalid("game_date", "must be formatted as YYYY-MM-DD")
	}
	return d, nil
}

// create records a manually entered box score.
func (h *GameHandler) create(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, invalid("body", "malformed JSON"))
		return
	}
	seasonID, err := uuid.Parse(req.SeasonID)
	if err != nil {
		response.WriteError(c, invalid("season_id", "must be a valid UUID"))
		return
	}
	date, err := parseDate(req.GameDate)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.Ingest(c.Request.Context(), service.IngestRequest{
		TeamID:   ownedTeamID(c),
		SeasonID: seasonID,
		GameDate: date,
		Source:   model.SourceManual,
		Stats:    req.Stats,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, res)
}

func (h *GameHandler) list(c *gin.Context) {
	seasonID, err := optionalUUIDQuery(c, "season_id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	page, err := pageQuery(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.ListGames(c.Request.Context(), ownedTeamID(c), seasonID, page)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *GameHandler) getByID(c *gin.Context) {
	gameID, err := uuidParam(c, "game_id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	game, err := h.svc.GetGame(c.Request.Context(), ownedTeamID(c), gameID)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, game)
}

type updateGameRequest struct {
	Stats []model.PlayerStatInput `json:"stats"`
}

// update replaces the game's stat lines with the submitted set.
func (h *GameHandler) update(c *gin.Context) {
	gameID, err := uuidParam(c, "game_id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var req updateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, invalid("body", "malformed JSON"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), ownedTeamID(c), gameID, req.Stats)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *GameHandler) delete(c *gin.Context) {
	gameID, err := uuidParam(c, "game_id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if err := h.svc.DeleteGame(c.Request.Context(), ownedTeamID(c), gameID); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type editResultsRequest struct {
	Updates []model.ResultStatsUpdate `json:"updates"`
}

// editResults overwrites individual result rows. Every result must belong to :game_id.
func (h *GameHandler) editResults(c *gin.Context) {
	gameID, err := uuidParam(c, "game_id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var req editResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, invalid("body", "malformed JSON"))
		return
	}
	ctx := c.Request.Context()
	game, err := h.svc.GetGame(ctx, ownedTeamID(c), gameID)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	inGame := make(map[uuid.UUID]struct{}, len(game.Results))
	for _, r := range game.Results {
		inGame[r.ID] = struct{}{}
	}
	for _, u := range req.Updates {
		if _, ok := inGame[u.ResultID]; !ok {
			response.WriteError(c, invalid("updates", "result "+u.ResultID.String()+" is not part of this game"))
			return
		}
	}
	results, err := h.svc.EditResultStats(ctx, ownedTeamID(c), req.Updates)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"items": results})
}
