// Package bounds resolves WRS-2 tile ids to their geographic footprint from a
// precomputed dataset file.
//
// The dataset is a JSON object keyed by tile id:
//
//	{"233_087": {"bounds": [-72.1, -39.0, -70.2, -37.3], "path": 233, "row": 87}}
//
// Fields other than "bounds" are kept verbatim as metadata.
package bounds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jaennil/guide_helper/backend/mosaic/internal/entity"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const sampleSize = 5

var ErrParse = errors.New("malformed bounds dataset")

type Record struct {
	Bounds   entity.Bounds              `json:"bounds"`
	Metadata map[string]json.RawMessage `json:"metadata,omitempty"`
}

type Stats struct {
	TotalCached     int        `json:"total_tiles_cached"`
	Skipped         int        `json:"skipped_entries"`
	SourcePath      string     `json:"bounds_file_path"`
	SourceExists    bool       `json:"bounds_file_exists"`
	SourceReadable  bool       `json:"bounds_file_readable"`
	SourceSizeBytes int64      `json:"bounds_file_size_bytes"`
	LoadedAt        *time.Time `json:"loaded_at,omitempty"`
	SampleIDs       []string   `json:"sample_tiles"`
}

type snapshot struct {
	records  map[string]Record
	ids      []string
	skipped  int
	loadedAt time.Time
}

var emptySnapshot = &snapshot{records: map[string]Record{}, ids: []string{}}

// Cache holds an immutable snapshot of the dataset. Readers never lock;
// Reload builds a new snapshot and swaps the pointer.
type Cache struct {
	path   string
	logger logger.Logger

	once    sync.Once
	current atomic.Pointer[snapshot]
	reloads singleflight.Group
}

func NewCache(path string, l logger.Logger) *Cache {
	return &Cache{
		path:   path,
		logger: l,
	}
}

func (c *Cache) Path() string {
	return c.path
}

// Load reads the dataset on first call only. A missing or malformed file
// leaves an empty snapshot behind and is reported, not returned.
func (c *Cache) Load() {
	c.once.Do(func() {
		_ = c.initialLoad()
	})
}

func (c *Cache) initialLoad() error {
	snap, err := c.read()
	if err != nil {
		c.logger.Warn("bounds dataset unavailable, every lookup falls back to world bounds",
			"path", c.path, "error", err)
		metrics.BoundsReloads.WithLabelValues("failed").Inc()
		c.store(emptySnapshot)
		return err
	}

	c.logger.Info("bounds dataset loaded", "path", c.path, "tiles", len(snap.records), "skipped", snap.skipped)
	metrics.BoundsReloads.WithLabelValues("ok").Inc()
	c.store(snap)
	return nil
}

// Reload rereads the dataset and swaps it in. On failure the previous
// snapshot stays visible. Concurrent calls share one read.
func (c *Cache) Reload() error {
	first := false
	var firstErr error
	c.once.Do(func() {
		first = true
		firstErr = c.initialLoad()
	})
	if first {
		return firstErr
	}

	_, err, _ := c.reloads.Do("reload", func() (any, error) {
		snap, err := c.read()
		if err != nil {
			c.logger.Error("bounds reload failed, keeping previous snapshot", "path", c.path, "error", err)
			metrics.BoundsReloads.WithLabelValues("failed").Inc()
			return nil, err
		}

		c.store(snap)
		c.logger.Info("bounds dataset reloaded", "path", c.path, "tiles", len(snap.records), "skipped", snap.skipped)
		metrics.BoundsReloads.WithLabelValues("ok").Inc()
		return nil, nil
	})
	return err
}

func (c *Cache) store(s *snapshot) {
	c.current.Store(s)
	metrics.BoundsEntries.Set(float64(len(s.records)))
}

func (c *Cache) snapshot() *snapshot {
	c.Load()
	return c.current.Load()
}

// Lookup returns the tile's bounds, or entity.WorldBounds when unknown.
func (c *Cache) Lookup(tileID string) entity.Bounds {
	rec, ok := c.snapshot().records[tileID]
	if !ok {
		metrics.BoundsLookups.WithLabelValues("miss").Inc()
		return entity.WorldBounds
	}
	metrics.BoundsLookups.WithLabelValues("hit").Inc()
	return rec.Bounds
}

func (c *Cache) IsCached(tileID string) bool {
	_, ok := c.snapshot().records[tileID]
	return ok
}

func (c *Cache) Metadata(tileID string) (Record, bool) {
	rec, ok := c.snapshot().records[tileID]
	return rec, ok
}

// TileIDs returns every cached id in sorted order.
func (c *Cache) TileIDs() []string {
	ids := c.snapshot().ids
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func (c *Cache) Stats() Stats {
	snap := c.snapshot()

	stats := Stats{
		TotalCached: len(snap.records),
		Skipped:     snap.skipped,
		SourcePath:  c.path,
		SampleIDs:   []string{},
	}

	if !snap.loadedAt.IsZero() {
		loadedAt := snap.loadedAt
		stats.LoadedAt = &loadedAt
	}

	if info, err := os.Stat(c.path); err == nil {
		stats.SourceExists = true
		stats.SourceSizeBytes = info.Size()
		if f, err := os.Open(c.path); err == nil {
			stats.SourceReadable = true
			f.Close()
		}
	}

	n := min(sampleSize, len(snap.ids))
	stats.SampleIDs = append(stats.SampleIDs, snap.ids[:n]...)

	return stats
}

func (c *Cache) read() (*snapshot, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read bounds dataset: %w", err)
	}

	return parse(data, c.logger)
}

func parse(data []byte, l logger.Logger) (*snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	snap := &snapshot{
		records:  make(map[string]Record, len(raw)),
		ids:      make([]string, 0, len(raw)),
		loadedAt: time.Now(),
	}

	for id, entry := range raw {
		rec, err := parseRecord(entry)
		if err != nil {
			l.Debug("skipping bounds entry", "tile_id", id, "error", err)
			snap.skipped++
			continue
		}
		snap.records[id] = rec
		snap.ids = append(snap.ids, id)
	}

	sort.Strings(snap.ids)

	if snap.skipped > 0 {
		l.Warn("bounds dataset contains malformed entries", "skipped", snap.skipped)
	}

	return snap, nil
}

func parseRecord(entry json.RawMessage) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
		return Record{}, errors.New("entry is not an object")
	}

	rawBounds, ok := fields["bounds"]
	if !ok {
		return Record{}, errors.New("entry has no bounds")
	}

	var values []float64
	if err := json.Unmarshal(rawBounds, &values); err != nil {
		return Record{}, fmt.Errorf("bounds is not a number array: %w", err)
	}
	if len(values) != 4 {
		return Record{}, fmt.Errorf("bounds has %d values, want 4", len(values))
	}

	b := entity.Bounds{values[0], values[1], values[2], values[3]}
	if !b.Valid() {
		return Record{}, fmt.Errorf("bounds %v are inverted", b)
	}

	delete(fields, "bounds")
	if len(fields) == 0 {
		fields = nil
	}

	return Record{Bounds: b, Metadata: fields}, nil
}
