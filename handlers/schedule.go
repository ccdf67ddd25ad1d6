package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/phonginreallife/sentinel/db"
	"github.com/phonginreallife/sentinel/internal/scheduler"
	"github.com/phonginreallife/sentinel/services"
)

// ScheduleHandler relays schedule requests to the scheduler API and writes
// its replies back unchanged.
type ScheduleHandler struct {
	Service *services.ScheduleService
	logger  hclog.Logger
}

func NewScheduleHandler(service *services.ScheduleService, logger hclog.Logger) *ScheduleHandler {
	return &ScheduleHandler{Service: service, logger: namedLogger(logger, "schedule-handler")}
}

// GET /schedule?dataset_id=|datasource_id=
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	var filter db.ScheduleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}
	h.relay(c)(h.Service.ListSchedules(c.Request.Context(), filter, c.Request.Header))
}

// POST /schedule?dataset_id=
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	body, ok := h.body(c)
	if !ok {
		return
	}
	h.relay(c)(h.Service.CreateSchedule(c.Request.Context(), c.Query("dataset_id"), c.Request.Header, body))
}

// DELETE /schedule?dataset_id=|datasource_id=
func (h *ScheduleHandler) DeleteSchedules(c *gin.Context) {
	var filter db.ScheduleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}
	h.relay(c)(h.Service.DeleteSchedules(c.Request.Context(), filter, c.Request.Header))
}

// GET /schedule/{id}
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	h.relay(c)(h.Service.GetSchedule(c.Request.Context(), c.Param("id"), c.Request.Header))
}

// PUT /schedule/{id}
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	body, ok := h.body(c)
	if !ok {
		return
	}
	h.relay(c)(h.Service.UpdateSchedule(c.Request.Context(), c.Param("id"), c.Request.Header, body))
}

// DELETE /schedule/{id}
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	h.relay(c)(h.Service.DeleteSchedule(c.Request.Context(), c.Param("id"), c.Request.Header))
}

// POST /schedule/next-run-times
func (h *ScheduleHandler) NextRunTimes(c *gin.Context) {
	body, ok := h.body(c)
	if !ok {
		return
	}
	h.relay(c)(h.Service.NextRunTimes(c.Request.Context(), c.Request.Header, body))
}

// GET /schedule/json-schema
func (h *ScheduleHandler) GetJSONSchema(c *gin.Context) {
	h.relay(c)(h.Service.JSONSchema(c.Request.Context(), c.Request.Header))
}

func (h *ScheduleHandler) body(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		respondBindError(c, err)
		return nil, false
	}
	return body, true
}

func (h *ScheduleHandler) relay(c *gin.Context) func(*scheduler.Response, error) {
	return func(resp *scheduler.Response, err error) {
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		contentType := resp.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		c.Data(resp.StatusCode, contentType, resp.Body)
	}
}
