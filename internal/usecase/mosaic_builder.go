package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/jaennil/guide_helper/backend/mosaic/internal/entity"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/blobstore"
	"github.com/paulmach/orb"
)

const DefaultTileSuffix = ".tif"

type BoundsPolicy string

const (
	BoundsUnion BoundsPolicy = "union"
	BoundsWorld BoundsPolicy = "world"
)

var tileIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

type BoundsLookup interface {
	Lookup(tileID string) entity.Bounds
}

type Lister interface {
	List(ctx context.Context, pattern string) ([]string, error)
}

type BuildOptions struct {
	BaseURL string
	Prefix  string
	Suffix  string
	MinZoom int
	MaxZoom int
}

// MosaicBuilder turns tile ids into a manifest. It performs no I/O beyond
// bounds lookups, which never fail.
type MosaicBuilder struct {
	bounds BoundsLookup
	policy BoundsPolicy
}

func NewMosaicBuilder(bounds BoundsLookup, policy BoundsPolicy) *MosaicBuilder {
	if policy == "" {
		policy = BoundsUnion
	}
	return &MosaicBuilder{
		bounds: bounds,
		policy: policy,
	}
}

// ParseTileIDs splits a comma-separated id list, trimming blanks and
// keeping the first occurrence of duplicates.
func ParseTileIDs(list string) []string {
	return normalizeIDs(strings.Split(list, ","))
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (b *MosaicBuilder) Build(tileIDs []string, opts BuildOptions) (*entity.Manifest, error) {
	ids := normalizeIDs(tileIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no tile ids", ErrInvalidInput)
	}
	if opts.MinZoom < 0 || opts.MinZoom > opts.MaxZoom {
		return nil, fmt.Errorf("%w: minzoom %d exceeds maxzoom %d", ErrInvalidInput, opts.MinZoom, opts.MaxZoom)
	}
	for _, id := range ids {
		if !tileIDPattern.MatchString(id) {
			return nil, fmt.Errorf("%w: malformed tile id %q", ErrInvalidInput, id)
		}
	}

	suffix := opts.Suffix
	if suffix == "" {
		suffix = DefaultTileSuffix
	}

	base := strings.TrimRight(opts.BaseURL, "/")
	prefix := strings.Trim(opts.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	m := &entity.Manifest{
		SchemaVersion: entity.MosaicJSONVersion,
		Version:       entity.ManifestVersion,
		MinZoom:       opts.MinZoom,
		MaxZoom:       opts.MaxZoom,
		Tiles:         make(map[string]entity.TileEntry, len(ids)),
	}

	var union orb.Bound
	for i, id := range ids {
		bounds := b.bounds.Lookup(id)
		m.Tiles[id] = entity.TileEntry{
			URL:     base + "/" + prefix + id + suffix,
			Bounds:  bounds,
			MinZoom: opts.MinZoom,
			MaxZoom: opts.MaxZoom,
		}

		if i == 0 {
			union = bounds.Bound()
		} else {
			union = union.Union(bounds.Bound())
		}
	}

	switch b.policy {
	case BoundsWorld:
		m.Bounds = entity.WorldBounds
	default:
		m.Bounds = entity.BoundsFromOrb(union)
	}

	return m, nil
}

// BuildFromGlob lists objects matching pattern and uses their base names,
// minus opts.Suffix, as tile ids.
func (b *MosaicBuilder) BuildFromGlob(ctx context.Context, lister Lister, pattern string, opts BuildOptions) (*entity.Manifest, error) {
	paths, err := lister.List(ctx, pattern)
	if err != nil {
		if errors.Is(err, blobstore.ErrInvalidPath) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}

	suffix := opts.Suffix
	if suffix == "" {
		suffix = DefaultTileSuffix
	}

	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		name := path.Base(p)
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, suffix))
	}
	sort.Strings(ids)

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no tiles match %q", ErrInvalidInput, pattern)
	}

	return b.Build(ids, opts)
}
