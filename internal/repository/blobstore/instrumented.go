package blobstore

import (
	"context"
	"errors"
	"time"

	"github.com/jaennil/guide_helper/backend/mosaic/pkg/metrics"
)

type instrumented struct {
	backend string
	next    BlobStore
}

// Instrument records the duration and failures of every call on next.
func Instrument(backend string, next BlobStore) BlobStore {
	return &instrumented{backend: backend, next: next}
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	metrics.StorageOperationDuration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.StorageErrors.WithLabelValues(s.backend, op).Inc()
	}
}

func (s *instrumented) Get(ctx context.Context, p string) (data []byte, err error) {
	start := time.Now()
	defer func() { s.observe("get", start, err) }()
	return s.next.Get(ctx, p)
}

func (s *instrumented) Put(ctx context.Context, p string, data []byte) (err error) {
	start := time.Now()
	defer func() { s.observe("put", start, err) }()
	return s.next.Put(ctx, p, data)
}

func (s *instrumented) List(ctx context.Context, pattern string) (out []string, err error) {
	start := time.Now()
	defer func() { s.observe("list", start, err) }()
	return s.next.List(ctx, pattern)
}

func (s *instrumented) Close() error {
	return s.next.Close()
}
