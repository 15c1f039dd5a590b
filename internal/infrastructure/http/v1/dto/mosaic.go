package dto

import (
	"encoding/json"

	"github.com/jaennil/guide_helper/backend/mosaic/internal/entity"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/bounds"
)

// GenerateRequest is accepted as query parameters, a form body or JSON.
// The gcs names are kept for existing clients.
type GenerateRequest struct {
	TileIDs  string `form:"tile_ids" json:"tile_ids"`
	Save     bool   `form:"save_to_gcs" json:"save_to_gcs"`
	SavePath string `form:"gcs_path" json:"gcs_path" validate:"omitempty,max=1024"`
	Pattern  string `form:"pattern" json:"pattern" validate:"omitempty,max=1024"`
	Suffix   string `form:"suffix" json:"suffix" validate:"omitempty,max=32,excludesall=/\\"`
	MinZoom  *int   `form:"min_zoom" json:"min_zoom" validate:"omitempty,min=0,max=30"`
	MaxZoom  *int   `form:"max_zoom" json:"max_zoom" validate:"omitempty,min=0,max=30"`
}

type PathRequest struct {
	Path    string `form:"path"`
	GCSPath string `form:"gcs_path"`
}

// Resolve prefers path over its gcs_path alias.
func (r PathRequest) Resolve() string {
	if r.Path != "" {
		return r.Path
	}
	return r.GCSPath
}

type TileResponse struct {
	TileID   string                     `json:"tile_id"`
	Cached   bool                       `json:"cached"`
	Bounds   entity.Bounds              `json:"bounds"`
	Metadata map[string]json.RawMessage `json:"metadata,omitempty"`
}

func NewTileResponse(id string, rec bounds.Record, cached bool) TileResponse {
	if !cached {
		return TileResponse{TileID: id, Cached: false, Bounds: entity.WorldBounds}
	}
	return TileResponse{
		TileID:   id,
		Cached:   true,
		Bounds:   rec.Bounds,
		Metadata: rec.Metadata,
	}
}

type HealthResponse struct {
	Status string `json:"status"`
}
