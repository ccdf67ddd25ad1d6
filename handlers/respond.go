package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/phonginreallife/sentinel/actions"
	"github.com/phonginreallife/sentinel/services"
)

// respondError writes the status and {"detail": ...} body for err.
func respondError(c *gin.Context, logger hclog.Logger, err error) {
	var invalid *actions.ValidationError
	var unsupported *actions.UnsupportedVariantError
	var svcErr *services.Error

	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": invalid.Errors, "body": invalid.Body})
	case errors.As(err, &unsupported):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": unsupported.Error()})
	case errors.As(err, &svcErr) && errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": svcErr.Detail})
	case errors.As(err, &svcErr) && errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"detail": svcErr.Detail})
	case errors.As(err, &svcErr) && errors.Is(err, services.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"detail": svcErr.Detail})
	case errors.As(err, &svcErr) && errors.Is(err, services.ErrUpstream):
		logger.Warn("upstream failure", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"detail": svcErr.Detail})
	default:
		logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

// respondBindError reports a body or query that could not be decoded.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []actions.FieldError{{
		Loc:  []interface{}{"body"},
		Msg:  err.Error(),
		Type: "value_error",
	}}})
}

func namedLogger(logger hclog.Logger, name string) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger.Named(name)
}
