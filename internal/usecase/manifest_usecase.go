package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/jaennil/guide_helper/backend/mosaic/internal/entity"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/blobstore"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/manifest"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/telemetry"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const saveNameLength = 16

type ManifestStore interface {
	ReadManifest(ctx context.Context, p string) ([]byte, error)
	WriteManifest(ctx context.Context, p string, m *entity.Manifest) (string, error)
	Validate(ctx context.Context, p string) manifest.ValidationResult
	List(ctx context.Context, pattern string) ([]string, error)
}

type ManifestConfig struct {
	COGStorageURL string
	TilesPath     string
	TilePrefix    string
	TileSuffix    string
	MinZoom       int
	MaxZoom       int
	SavePrefix    string
}

type GenerateInput struct {
	TileIDs  string
	Save     bool
	SavePath string
	Pattern  string
	Suffix   string
	MinZoom  *int
	MaxZoom  *int
}

type GenerateResult struct {
	Mosaic  *entity.Manifest `json:"mosaic"`
	SavedTo string           `json:"saved_to,omitempty"`
}

type ManifestUseCase struct {
	builder *MosaicBuilder
	store   ManifestStore
	cfg     ManifestConfig
	tracer  trace.Tracer
	logger  logger.Logger
}

func NewManifestUseCase(builder *MosaicBuilder, store ManifestStore, cfg ManifestConfig, l logger.Logger) *ManifestUseCase {
	return &ManifestUseCase{
		builder: builder,
		store:   store,
		cfg:     cfg,
		tracer:  otel.Tracer(telemetry.TracerName),
		logger:  l,
	}
}

func (uc *ManifestUseCase) Generate(ctx context.Context, in GenerateInput) (_ *GenerateResult, err error) {
	ctx, span := uc.tracer.Start(ctx, "manifest.generate")
	defer func() { endSpan(span, err) }()

	if uc.cfg.COGStorageURL == "" {
		return nil, fmt.Errorf("%w: MOSAIC_COG_STORAGE_URL is not set", ErrNotConfigured)
	}

	opts := BuildOptions{
		BaseURL: uc.cfg.COGStorageURL,
		Prefix:  uc.cfg.TilePrefix,
		Suffix:  uc.cfg.TileSuffix,
		MinZoom: uc.cfg.MinZoom,
		MaxZoom: uc.cfg.MaxZoom,
	}
	if in.Suffix != "" {
		opts.Suffix = in.Suffix
	}
	if in.MinZoom != nil {
		opts.MinZoom = *in.MinZoom
	}
	if in.MaxZoom != nil {
		opts.MaxZoom = *in.MaxZoom
	}

	var (
		m      *entity.Manifest
		source string
	)
	if strings.TrimSpace(in.TileIDs) != "" {
		source = "ids"
		m, err = uc.builder.Build(ParseTileIDs(in.TileIDs), opts)
	} else {
		source = "glob"
		pattern := in.Pattern
		if pattern == "" {
			if uc.cfg.TilesPath == "" {
				return nil, fmt.Errorf("%w: tile_ids omitted and no tiles path configured", ErrInvalidInput)
			}
			suffix := opts.Suffix
			if suffix == "" {
				suffix = DefaultTileSuffix
			}
			pattern = path.Join(uc.cfg.TilesPath, "*"+suffix)
		}
		span.SetAttributes(attribute.String("mosaic.pattern", pattern))
		m, err = uc.builder.BuildFromGlob(ctx, uc.store, pattern, opts)
	}
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("mosaic.source", source),
		attribute.Int("mosaic.tiles", len(m.Tiles)),
	)
	metrics.ManifestsGenerated.WithLabelValues(source).Inc()
	metrics.ManifestTiles.Observe(float64(len(m.Tiles)))

	res := &GenerateResult{Mosaic: m}
	if !in.Save {
		return res, nil
	}

	savePath := in.SavePath
	if savePath == "" {
		savePath = uc.defaultSavePath(m)
	}

	written, err := uc.store.WriteManifest(ctx, savePath, m)
	if err != nil {
		metrics.ManifestsSaved.WithLabelValues("failed").Inc()
		if errors.Is(err, blobstore.ErrInvalidPath) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		uc.logger.Error("failed to save manifest", "path", savePath, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	metrics.ManifestsSaved.WithLabelValues("ok").Inc()

	span.SetAttributes(attribute.String("mosaic.saved_to", written))
	res.SavedTo = written
	return res, nil
}

// defaultSavePath names a manifest after the hash of its sorted tile ids, so
// the same tile set always lands on the same object.
func (uc *ManifestUseCase) defaultSavePath(m *entity.Manifest) string {
	ids := m.TileIDs()
	sort.Strings(ids)

	sum := blake3.Sum256([]byte(strings.Join(ids, ",")))
	name := hex.EncodeToString(sum[:])[:saveNameLength] + ".json"

	prefix := strings.Trim(uc.cfg.SavePrefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Validate never fails; problems are reported in the result.
func (uc *ManifestUseCase) Validate(ctx context.Context, p string) manifest.ValidationResult {
	ctx, span := uc.tracer.Start(ctx, "manifest.validate", trace.WithAttributes(attribute.String("mosaic.path", p)))
	defer span.End()

	if strings.TrimSpace(p) == "" {
		return manifest.ValidationResult{Error: "path is required"}
	}

	res := uc.store.Validate(ctx, p)
	span.SetAttributes(attribute.Bool("mosaic.valid", res.Valid))
	if !res.Valid {
		uc.logger.Info("manifest failed validation", "path", p, "error", res.Error)
	}
	return res
}

func (uc *ManifestUseCase) Read(ctx context.Context, p string) (_ *entity.Manifest, err error) {
	ctx, span := uc.tracer.Start(ctx, "manifest.read", trace.WithAttributes(attribute.String("mosaic.path", p)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(p) == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidInput)
	}

	data, err := uc.store.ReadManifest(ctx, p)
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		case errors.Is(err, blobstore.ErrInvalidPath):
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		case errors.Is(err, manifest.ErrCorrupt):
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		default:
			return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
		}
	}

	m, err := manifest.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return m, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
