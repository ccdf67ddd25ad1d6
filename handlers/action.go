package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/phonginreallife/sentinel/actions"
	"github.com/phonginreallife/sentinel/db"
	"github.com/phonginreallife/sentinel/services"
)

type ActionHandler struct {
	Service *services.ActionService
	logger  hclog.Logger
}

func NewActionHandler(service *services.ActionService, logger hclog.Logger) *ActionHandler {
	return &ActionHandler{Service: service, logger: namedLogger(logger, "action-handler")}
}

// ListActions returns every action sorted by name
// GET /action?asc=true
func (h *ActionHandler) ListActions(c *gin.Context) {
	var q db.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	records, err := h.Service.ListActions(c.Request.Context(), q.Ascending())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// CreateAction validates and stores a new action
// POST /action
func (h *ActionHandler) CreateAction(c *gin.Context) {
	var env actions.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		respondBindError(c, err)
		return
	}

	record, err := h.Service.CreateAction(c.Request.Context(), env, c.GetString("user_email"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetAction returns one action
// GET /action/{key}
func (h *ActionHandler) GetAction(c *gin.Context) {
	record, err := h.Service.GetAction(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// UpdateAction replaces an action, keeping its creation audit fields
// PUT /action/{key}
func (h *ActionHandler) UpdateAction(c *gin.Context) {
	var env actions.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		respondBindError(c, err)
		return
	}

	record, err := h.Service.UpdateAction(c.Request.Context(), c.Param("key"), env)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteAction
// DELETE /action/{key}
func (h *ActionHandler) DeleteAction(c *gin.Context) {
	if err := h.Service.DeleteAction(c.Request.Context(), c.Param("key")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, "Action deleted")
}

// GetJSONSchema lists the form schema of every action type
// GET /action/json_schema
func (h *ActionHandler) GetJSONSchema(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Schemas())
}

// TestAction sends a test notification through a stored action
// POST /action/{key}/test
func (h *ActionHandler) TestAction(c *gin.Context) {
	if err := h.Service.TestAction(c.Request.Context(), c.Param("key")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Test notification sent"})
}
