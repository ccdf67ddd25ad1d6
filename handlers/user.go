package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/phonginreallife/sentinel/services"
)

type UserHandler struct {
	Service *services.UserService
	logger  hclog.Logger
}

func NewUserHandler(service *services.UserService, logger hclog.Logger) *UserHandler {
	return &UserHandler{Service: service, logger: namedLogger(logger, "user-handler")}
}

// ListUsers returns the public fields of every user
// GET /user
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.Service.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
