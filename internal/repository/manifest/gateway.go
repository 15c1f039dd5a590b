// Package manifest stores and loads MosaicJSON documents through a blob
// store, compressing them according to the object path's suffix.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/entity"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/blobstore"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
)

var (
	ErrRead    = errors.New("manifest read failed")
	ErrWrite   = errors.New("manifest write failed")
	ErrCorrupt = errors.New("manifest is corrupt")
)

type ValidationResult struct {
	Valid         bool   `json:"valid"`
	FileSizeBytes int64  `json:"file_size_bytes,omitempty"`
	TileCount     int    `json:"tile_count,omitempty"`
	Error         string `json:"error,omitempty"`
}

type Gateway struct {
	store           blobstore.BlobStore
	compression     Compression
	retryMaxElapsed time.Duration
	logger          logger.Logger
}

func NewGateway(store blobstore.BlobStore, compression Compression, retryMaxElapsed time.Duration, l logger.Logger) *Gateway {
	return &Gateway{
		store:           store,
		compression:     compression,
		retryMaxElapsed: retryMaxElapsed,
		logger:          l,
	}
}

// get fetches an object, retrying transient backend failures.
// Missing objects and invalid paths fail immediately.
func (g *Gateway) get(ctx context.Context, p string) ([]byte, error) {
	var b backoff.BackOff = &backoff.StopBackOff{}
	if g.retryMaxElapsed > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = 50 * time.Millisecond
		exp.MaxElapsedTime = g.retryMaxElapsed
		b = exp
	}

	var data []byte
	err := backoff.RetryNotify(func() error {
		var err error
		data, err = g.store.Get(ctx, p)
		if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, blobstore.ErrInvalidPath) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		g.logger.Warn("storage read failed, retrying", "path", p, "wait", wait, "error", err)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, p, err)
	}

	return data, nil
}

// ReadManifest returns the decompressed document stored at p.
func (g *Gateway) ReadManifest(ctx context.Context, p string) ([]byte, error) {
	raw, err := g.get(ctx, p)
	if err != nil {
		return nil, err
	}

	data, err := decompress(CompressionFor(p), raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, p, err)
	}

	return data, nil
}

// Decode parses a document returned by ReadManifest.
func Decode(data []byte) (*entity.Manifest, error) {
	var m entity.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if m.Tiles == nil {
		return nil, fmt.Errorf("%w: missing tiles", ErrCorrupt)
	}
	return &m, nil
}

// WritePath appends the default compression suffix when p carries none.
func (g *Gateway) WritePath(p string) string {
	if CompressionFor(p) != None {
		return p
	}
	return p + g.compression.Suffix()
}

// WriteManifest serialises m and stores it with a single Put. It returns
// the path actually written.
func (g *Gateway) WriteManifest(ctx context.Context, p string, m *entity.Manifest) (string, error) {
	p = g.WritePath(p)

	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("%w: encode: %w", ErrWrite, err)
	}

	data, err = compress(CompressionFor(p), data)
	if err != nil {
		return "", fmt.Errorf("%w: compress: %w", ErrWrite, err)
	}

	if err := g.store.Put(ctx, p, data); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrWrite, p, err)
	}

	g.logger.Info("manifest written", "path", p, "size", len(data), "tiles", len(m.Tiles))
	return p, nil
}

// Validate reports every problem inline; it never fails.
func (g *Gateway) Validate(ctx context.Context, p string) ValidationResult {
	raw, err := g.get(ctx, p)
	if err != nil {
		return ValidationResult{Error: err.Error()}
	}

	data, err := decompress(CompressionFor(p), raw)
	if err != nil {
		return ValidationResult{Error: fmt.Sprintf("decompress: %v", err)}
	}

	count, err := checkSchema(data)
	if err != nil {
		return ValidationResult{Error: err.Error()}
	}

	return ValidationResult{
		Valid:         true,
		FileSizeBytes: int64(len(raw)),
		TileCount:     count,
	}
}

func (g *Gateway) List(ctx context.Context, pattern string) ([]string, error) {
	paths, err := g.store.List(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrRead, pattern, err)
	}
	return paths, nil
}

// checkSchema returns the tile count of a structurally valid document.
func checkSchema(data []byte) (int, error) {
	var doc struct {
		MinZoom *int                       `json:"minzoom"`
		MaxZoom *int                       `json:"maxzoom"`
		Tiles   map[string]json.RawMessage `json:"tiles"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("invalid json: %v", err)
	}
	if doc.Tiles == nil {
		return 0, errors.New("missing tiles")
	}
	if doc.MinZoom != nil && doc.MaxZoom != nil && *doc.MinZoom > *doc.MaxZoom {
		return 0, fmt.Errorf("minzoom %d exceeds maxzoom %d", *doc.MinZoom, *doc.MaxZoom)
	}

	for id, raw := range doc.Tiles {
		var tile struct {
			Bounds *[]float64 `json:"bounds"`
		}
		if err := json.Unmarshal(raw, &tile); err != nil {
			return 0, fmt.Errorf("tile %s: %v", id, err)
		}
		if tile.Bounds == nil {
			continue
		}
		b := *tile.Bounds
		if len(b) != 4 || !(entity.Bounds{b[0], b[1], b[2], b[3]}).Valid() {
			return 0, fmt.Errorf("tile %s: malformed bounds %v", id, b)
		}
	}

	return len(doc.Tiles), nil
}
