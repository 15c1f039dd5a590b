package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/infrastructure/http/v1/dto"
)

func (h *Handler) Healthz(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusOK, "healthy", dto.HealthResponse{Status: "healthy"})
}
