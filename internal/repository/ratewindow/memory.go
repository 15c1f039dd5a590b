package ratewindow

import (
	"context"
	"sync"
	"time"

	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/metrics"
)

// MemoryStore guards every window with one mutex. Admission is O(pruned).
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string][]time.Time),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Admit(_ context.Context, id string, now time.Time, window time.Duration, ceiling int) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	ts := s.windows[id]

	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	ts = ts[i:]

	if len(ts) >= ceiling {
		s.windows[id] = ts
		return denied(ceiling, ts[0], now, window), nil
	}

	ts = append(ts, now)
	s.windows[id] = ts

	return Decision{
		Allowed:   true,
		Limit:     ceiling,
		Remaining: ceiling - len(ts),
	}, nil
}

func (s *MemoryStore) Count(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows[id]), nil
}

// Len is the number of tracked identities.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Evict drops identities whose newest request is not after idleBefore.
func (s *MemoryStore) Evict(idleBefore time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, ts := range s.windows {
		if len(ts) == 0 || !ts[len(ts)-1].After(idleBefore) {
			delete(s.windows, id)
			evicted++
		}
	}

	metrics.RateLimitIdentities.Set(float64(len(s.windows)))
	return evicted
}

// Run evicts identities idle for longer than idleTTL every interval until
// ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval, idleTTL time.Duration, l logger.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := s.Evict(now.Add(-idleTTL)); n > 0 {
				l.Debug("evicted idle rate limit identities", "count", n)
			}
		}
	}
}

func (s *MemoryStore) Close() error {
	return nil
}
