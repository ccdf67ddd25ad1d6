package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/phonginreallife/sentinel/db"
	"github.com/phonginreallife/sentinel/services"
)

type TeamHandler struct {
	Service *services.TeamService
	logger  hclog.Logger
}

func NewTeamHandler(service *services.TeamService, logger hclog.Logger) *TeamHandler {
	return &TeamHandler{Service: service, logger: namedLogger(logger, "team-handler")}
}

// GET /team?asc=true
func (h *TeamHandler) ListTeams(c *gin.Context) {
	var q db.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	teams, err := h.Service.ListTeams(c.Request.Context(), q.Ascending())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

// POST /team
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	var team db.Team
	if err := c.ShouldBindJSON(&team); err != nil {
		respondBindError(c, err)
		return
	}

	created, err := h.Service.CreateTeam(c.Request.Context(), team, c.GetString("user_email"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

// GET /team/{key}
func (h *TeamHandler) GetTeam(c *gin.Context) {
	team, err := h.Service.GetTeam(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// PUT /team/{key}
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	var team db.Team
	if err := c.ShouldBindJSON(&team); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.Service.UpdateTeam(c.Request.Context(), c.Param("key"), team)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /team/{key}
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	if err := h.Service.DeleteTeam(c.Request.Context(), c.Param("key")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, "Team deleted")
}
