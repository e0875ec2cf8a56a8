package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
	"github.com/maxviazov/scorebook-stats-service/pkg/response"
)

const teamKey = "team"

type TeamHandler struct {
	svc service.RosterService
}

func NewTeamHandler(svc service.RosterService) *TeamHandler { return &TeamHandler{svc: svc} }

func (h *TeamHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/teams")
	{
		g.POST("", h.create)
		g.GET("", h.list)
	}
}

// RegisterOwned mounts the routes under /teams/:team_id that only the owner may call.
func (h *TeamHandler) RegisterOwned(g *gin.RouterGroup) {
	g.GET("", h.get)
	g.POST("/seasons", h.createSeason)
	g.GET("/seasons", h.listSeasons)
}

// requireOwner aborts unless the caller owns :team_id, and stores the team for later handlers.
func (h *TeamHandler) requireOwner(c *gin.Context) {
	teamID, err := uuidParam(c, "team_id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	p := principal(c)
	if p == "" {
		response.WriteError(c, service.ErrUnauthorized)
		return
	}
	team, err := h.svc.Authorize(c.Request.Context(), p, teamID)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.Set(teamKey, team)
	c.Next()
}

// ownedTeam returns the team stored by requireOwner.
func ownedTeam(c *gin.Context) model.Team {
	t, _ := c.MustGet(teamKey).(model.Team)
	return t
}

func ownedTeamID(c *gin.Context) uuid.UUID { return ownedTeam(c).ID }

type nameRequest struct {
	Name string `json:"name"`
}

func (h *TeamHandler) create(c *gin.Context) {
	p := principal(c)
	if p == "" {
		response.WriteError(c, service.ErrUnauthorized)
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, invalid("body", "must be a JSON object with a name"))
		return
	}
	team, err := h.svc.CreateTeam(c.Request.Context(), p, req.Name)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, team)
}

func (h *TeamHandler) list(c *gin.Context) {
	p := principal(c)
	if p == "" {
		response.WriteError(c, service.ErrUnauthorized)
		return
	}
	page, err := pageQuery(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.ListTeams(c.Request.Context(), p, page)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *TeamHandler) get(c *gin.Context) {
	response.WriteData(c, http.StatusOK, ownedTeam(c))
}

func (h *TeamHandler) createSeason(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, invalid("body", "must be a JSON object with a name"))
		return
	}
	season, err := h.svc.CreateSeason(c.Request.Context(), principal(c), ownedTeamID(c), req.Name)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, season)
}

func (h *TeamHandler) listSeasons(c *gin.Context) {
	seasons, err := h.svc.ListSeasons(c.Request.Context(), ownedTeamID(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"items": seasons})
}
