package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/usecase"
)

var (
	ErrFailedToDecodeRequest = errors.New("failed to decode request")
	ErrPathRequired          = errors.New("path is required")
)

// RespondWithError maps use case errors onto status codes. Server-side
// failures are logged and answered with a generic message.
func (h *Handler) RespondWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput), errors.Is(err, usecase.ErrNotConfigured):
		h.RespondWithJSON(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, usecase.ErrNotFound):
		h.RespondWithJSON(c, http.StatusNotFound, usecase.ErrNotFound.Error(), nil)
	case errors.Is(err, usecase.ErrCorrupt):
		h.RespondWithJSON(c, http.StatusUnprocessableEntity, usecase.ErrCorrupt.Error(), nil)
	default:
		_ = c.Error(err)
		requestLogger(c).Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		h.RespondWithInternalServerError(c)
	}
}
