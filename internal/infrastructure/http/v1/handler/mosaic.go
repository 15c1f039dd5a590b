package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/infrastructure/http/v1/dto"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/usecase"
)

func (h *Handler) GenerateMosaic(c *gin.Context) {
	var req dto.GenerateRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, fmt.Sprintf("%s: %v", ErrFailedToDecodeRequest, err), nil)
		return
	}

	var err error
	switch c.ContentType() {
	case binding.MIMEJSON:
		if c.Request.ContentLength != 0 {
			err = c.ShouldBindJSON(&req)
		}
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		err = c.ShouldBindWith(&req, binding.Form)
	}
	if err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, fmt.Sprintf("%s: %v", ErrFailedToDecodeRequest, err), nil)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	res, err := h.manifest.Generate(c.Request.Context(), usecase.GenerateInput{
		TileIDs:  req.TileIDs,
		Save:     req.Save,
		SavePath: req.SavePath,
		Pattern:  req.Pattern,
		Suffix:   req.Suffix,
		MinZoom:  req.MinZoom,
		MaxZoom:  req.MaxZoom,
	})
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	requestLogger(c).Info("mosaic generated", "tiles", len(res.Mosaic.Tiles), "saved_to", res.SavedTo)

	h.RespondWithJSON(c, http.StatusOK, "mosaic generated", res)
}

// ValidateMosaic always answers 200; the verdict is in the body.
func (h *Handler) ValidateMosaic(c *gin.Context) {
	var req dto.PathRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, fmt.Sprintf("%s: %v", ErrFailedToDecodeRequest, err), nil)
		return
	}

	res := h.manifest.Validate(c.Request.Context(), req.Resolve())

	message := "manifest is valid"
	if !res.Valid {
		message = "manifest is invalid"
	}
	h.RespondWithJSON(c, http.StatusOK, message, res)
}

func (h *Handler) ReadMosaic(c *gin.Context) {
	var req dto.PathRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, fmt.Sprintf("%s: %v", ErrFailedToDecodeRequest, err), nil)
		return
	}

	p := req.Resolve()
	if p == "" {
		h.RespondWithJSON(c, http.StatusBadRequest, ErrPathRequired.Error(), nil)
		return
	}

	m, err := h.manifest.Read(c.Request.Context(), p)
	if err != nil {
		h.RespondWithError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "got mosaic", m)
}
