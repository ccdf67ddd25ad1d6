package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
)

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Store  Pinger
	logger hclog.Logger
}

func NewHealthHandler(store Pinger, logger hclog.Logger) *HealthHandler {
	return &HealthHandler{Store: store, logger: namedLogger(logger, "health")}
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("store ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "detail": "document store is unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
