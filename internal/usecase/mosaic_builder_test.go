package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/jaennil/guide_helper/backend/mosaic/internal/entity"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBounds map[string]entity.Bounds

func (f fakeBounds) Lookup(id string) entity.Bounds {
	if b, ok := f[id]; ok {
		return b
	}
	return entity.WorldBounds
}

var testBounds = fakeBounds{
	"001_001": {10, 70, 20, 80},
	"002_002": {12, 60, 25, 71},
}

func defaultOpts() BuildOptions {
	return BuildOptions{BaseURL: "https://store/base", MinZoom: 8, MaxZoom: 14}
}

func TestBuild(t *testing.T) {
	m, err := NewMosaicBuilder(testBounds, BoundsUnion).Build([]string{"001_001", "002_002"}, defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, entity.MosaicJSONVersion, m.SchemaVersion)
	assert.Equal(t, 8, m.MinZoom)
	assert.Equal(t, 14, m.MaxZoom)
	require.Len(t, m.Tiles, 2)

	assert.Equal(t, "https://store/base/001_001.tif", m.Tiles["001_001"].URL)
	assert.Equal(t, "https://store/base/002_002.tif", m.Tiles["002_002"].URL)
	assert.Equal(t, testBounds["001_001"], m.Tiles["001_001"].Bounds)
	assert.Equal(t, testBounds["002_002"], m.Tiles["002_002"].Bounds)
	assert.Equal(t, 8, m.Tiles["001_001"].MinZoom)

	assert.Equal(t, entity.Bounds{10, 60, 25, 80}, m.Bounds)
}

func TestBuildUncachedFallsBackToWorld(t *testing.T) {
	m, err := NewMosaicBuilder(testBounds, BoundsUnion).Build([]string{"999_999"}, defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, entity.WorldBounds, m.Tiles["999_999"].Bounds)
	assert.Equal(t, entity.WorldBounds, m.Bounds)
}

func TestBuildWorldPolicy(t *testing.T) {
	m, err := NewMosaicBuilder(testBounds, BoundsWorld).Build([]string{"001_001"}, defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, entity.WorldBounds, m.Bounds)
}

func TestBuildPrefixAndSuffix(t *testing.T) {
	opts := defaultOpts()
	opts.BaseURL = "https://store/base/"
	opts.Prefix = "/wrs2/"
	opts.Suffix = ".TIF"

	m, err := NewMosaicBuilder(testBounds, BoundsUnion).Build([]string{"001_001"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "https://store/base/wrs2/001_001.TIF", m.Tiles["001_001"].URL)
}

func TestBuildNormalizesIDs(t *testing.T) {
	m, err := NewMosaicBuilder(testBounds, BoundsUnion).Build([]string{" 001_001 ", "", "001_001", "002_002"}, defaultOpts())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"001_001", "002_002"}, m.TileIDs())
}

func TestBuildRejects(t *testing.T) {
	b := NewMosaicBuilder(testBounds, BoundsUnion)

	tests := []struct {
		name string
		ids  []string
		opts func(o *BuildOptions)
	}{
		{"empty", nil, nil},
		{"only blanks", []string{" ", ""}, nil},
		{"traversal", []string{"../etc/passwd"}, nil},
		{"slash", []string{"a/b"}, nil},
		{"leading dot", []string{".hidden"}, nil},
		{"inverted zoom", []string{"001_001"}, func(o *BuildOptions) { o.MinZoom = 15 }},
		{"negative zoom", []string{"001_001"}, func(o *BuildOptions) { o.MinZoom = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOpts()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			_, err := b.Build(tt.ids, opts)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestParseTileIDs(t *testing.T) {
	assert.Equal(t, []string{"001_001", "002_002"}, ParseTileIDs("001_001, 002_002,,001_001 "))
	assert.Empty(t, ParseTileIDs(" , "))
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewMosaicBuilder(testBounds, BoundsUnion)
	first, err := b.Build([]string{"001_001", "002_002"}, defaultOpts())
	require.NoError(t, err)
	second, err := b.Build([]string{"001_001", "002_002"}, defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildFromGlob(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	for _, p := range []string{"wrs2/002_002.tif", "wrs2/001_001.tif", "wrs2/notes.txt"} {
		require.NoError(t, store.Put(ctx, p, []byte("x")))
	}

	m, err := NewMosaicBuilder(testBounds, BoundsUnion).BuildFromGlob(ctx, store, "wrs2/*", defaultOpts())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"001_001", "002_002"}, m.TileIDs())
	assert.Equal(t, "https://store/base/001_001.tif", m.Tiles["001_001"].URL)
}

func TestBuildFromGlobNoMatch(t *testing.T) {
	_, err := NewMosaicBuilder(testBounds, BoundsUnion).BuildFromGlob(context.Background(), blobstore.NewMemoryStore(), "wrs2/*.tif", defaultOpts())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

type failingLister struct{ err error }

func (f failingLister) List(context.Context, string) ([]string, error) { return nil, f.err }

func TestBuildFromGlobListErrors(t *testing.T) {
	b := NewMosaicBuilder(testBounds, BoundsUnion)

	_, err := b.BuildFromGlob(context.Background(), failingLister{errors.New("boom")}, "x/*", defaultOpts())
	assert.ErrorIs(t, err, ErrStorageRead)

	_, err = b.BuildFromGlob(context.Background(), failingLister{blobstore.ErrInvalidPath}, "[", defaultOpts())
	assert.ErrorIs(t, err, ErrInvalidInput)
}
