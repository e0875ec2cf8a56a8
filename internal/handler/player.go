package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/maxviazov/scorebook-stats-service/internal/service"
	"github.com/maxviazov/scorebook-stats-service/pkg/response"
)

type PlayerHandler struct {
	roster   service.RosterService
	resolver service.PlayerResolver
}

func NewPlayerHandler(roster service.RosterService, resolver service.PlayerResolver) *PlayerHandler {
	return &PlayerHandler{roster: roster, resolver: resolver}
}

// Register mounts player routes on a group already scoped to /teams/:team_id.
func (h *PlayerHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/players")
	{
		g.POST("", h.create)
		g.GET("", h.list)
		g.PATCH("/:player_id", h.rename)
		g.POST("/:player_id/merge", h.merge)
	}
}

func (h *PlayerHandler) create(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, invalid("body", "must be a JSON object with a name"))
		return
	}
	player, err := h.roster.AddPlayer(c.Request.Context(), principal(c), ownedTeamID(c), req.Name)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, player)
}

func (h *PlayerHandler) list(c *gin.Context) {
	players, err := h.roster.ListPlayers(c.Request.Context(), ownedTeamID(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"items": players})
}

func (h *PlayerHandler) rename(c *gin.Context) {
	playerID, err := uuidParam(c, "player_id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, invalid("body", "must be a JSON object with a name"))
		return
	}
	player, err := h.resolver.Rename(c.Request.Context(), principal(c), ownedTeamID(c), playerID, req.Name)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, player)
}

type mergeRequest struct {
	Into string `json:"into"`
}

// merge folds :player_id into the player named by "into" and deletes :player_id.
func (h *PlayerHandler) merge(c *gin.Context) {
	sourceID, err := uuidParam(c, "player_id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, invalid("body", "must be a JSON object with an into field"))
		return
	}
	targetID, err := uuid.Parse(req.Into)
	if err != nil {
		response.WriteError(c, invalid("into", "must be a valid UUID"))
		return
	}
	sum, err := h.resolver.Merge(c.Request.Context(), principal(c), ownedTeamID(c), sourceID, targetID)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, sum)
}
