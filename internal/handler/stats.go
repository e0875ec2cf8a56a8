package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/scorebook-stats-service/internal/service"
	"github.com/maxviazov/scorebook-stats-service/pkg/response"
)

type StatsHandler struct {
	svc service.StatsService
}

func NewStatsHandler(svc service.StatsService) *StatsHandler { return &StatsHandler{svc: svc} }

func (h *StatsHandler) Register(r *gin.RouterGroup) {
	r.GET("/teams/:team_id/stats", h.teamStats)
	r.GET("/leaders", h.leaders)
}

// teamStats returns the stat sheet for all games, one season (?season_id=) or one game (?game_id=).
func (h *StatsHandler) teamStats(c *gin.Context) {
	teamID, err := uuidParam(c, "team_id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	seasonID, err := optionalUUIDQuery(c, "season_id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	gameID, err := optionalUUIDQuery(c, "game_id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	sheet, err := h.svc.TeamStats(c.Request.Context(), teamID, service.StatsFilter{SeasonID: seasonID, GameID: gameID})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, sheet)
}

type leadersQuery struct {
	Limit int `form:"limit"`
}

// leaders ranks the caller's hitters across every team they own.
func (h *StatsHandler) leaders(c *gin.Context) {
	var q leadersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.WriteError(c, invalid("limit", "limit must be an integer"))
		return
	}
	sum, err := h.svc.OwnerLeaders(c.Request.Context(), principal(c), q.Limit)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, sum)
}
