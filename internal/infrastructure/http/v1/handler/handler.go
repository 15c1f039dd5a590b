package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/entity"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/bounds"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/manifest"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/usecase"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
)

const (
	internalServerErrorText = "the server encountered an error and could not process your request"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ManifestService interface {
	Generate(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateResult, error)
	Validate(ctx context.Context, p string) manifest.ValidationResult
	Read(ctx context.Context, p string) (*entity.Manifest, error)
}

type BoundsCache interface {
	Metadata(tileID string) (bounds.Record, bool)
	Stats() bounds.Stats
	Reload() error
}

type Handler struct {
	validate *validator.Validate
	manifest ManifestService
	bounds   BoundsCache
}

func NewHandler(v *validator.Validate, m ManifestService, b BoundsCache) *Handler {
	return &Handler{
		validate: v,
		manifest: m,
		bounds:   b,
	}
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusInternalServerError, internalServerErrorText, nil)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}

func requestLogger(c *gin.Context) logger.Logger {
	return logger.FromContext(c.Request.Context())
}
