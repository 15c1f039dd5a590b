package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request gate
	GateAuthRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gate_auth_rejections_total",
		Help: "Total number of requests rejected for a missing or wrong API key",
	})

	GateRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gate_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})

	RateLimitStoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_store_errors_total",
		Help: "Total number of rate window store failures (requests were admitted)",
	})

	RateLimitIdentities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rate_limit_identities",
		Help: "Number of client identities currently tracked by the in-memory rate limiter",
	})

	// Bounds cache
	BoundsLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bounds_cache_lookups_total",
		Help: "Total number of bounds lookups by result",
	}, []string{"result"})

	BoundsEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bounds_cache_entries",
		Help: "Number of tiles in the current bounds snapshot",
	})

	BoundsReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bounds_cache_reloads_total",
		Help: "Total number of bounds dataset loads by status",
	}, []string{"status"})

	// Manifests
	ManifestsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "manifest_generated_total",
		Help: "Total number of generated mosaic manifests by tile source",
	}, []string{"source"})

	ManifestsSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "manifest_saved_total",
		Help: "Total number of manifest save attempts by status",
	}, []string{"status"})

	ManifestTiles = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "manifest_tiles",
		Help:    "Number of tiles per generated manifest",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	// Blob storage
	StorageOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storage_operation_duration_seconds",
		Help:    "Duration of blob store operations in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"backend", "operation"})

	StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_errors_total",
		Help: "Total number of blob store errors",
	}, []string{"backend", "operation"})
)
