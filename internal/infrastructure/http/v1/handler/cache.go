package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/infrastructure/http/v1/dto"
)

func (h *Handler) CacheStats(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusOK, "bounds cache stats", h.bounds.Stats())
}

func (h *Handler) CacheTile(c *gin.Context) {
	id := c.Param("id")
	rec, cached := h.bounds.Metadata(id)

	h.RespondWithJSON(c, http.StatusOK, "got tile bounds", dto.NewTileResponse(id, rec, cached))
}

func (h *Handler) CacheReload(c *gin.Context) {
	if err := h.bounds.Reload(); err != nil {
		requestLogger(c).Error("bounds reload failed", "error", err)
		h.RespondWithJSON(c, http.StatusInternalServerError, "bounds reload failed, previous data kept", nil)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "bounds cache reloaded", h.bounds.Stats())
}
