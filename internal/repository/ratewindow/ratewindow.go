// Package ratewindow keeps per-identity request timestamps for a sliding
// window rate limiter.
package ratewindow

import (
	"context"
	"time"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Store interface {
	// Admit prunes the identity's timestamps older than window, rejects when
	// ceiling timestamps remain, and otherwise records now.
	Admit(ctx context.Context, id string, now time.Time, window time.Duration, ceiling int) (Decision, error)
	// Count reports the recorded timestamps for id without pruning.
	Count(ctx context.Context, id string) (int, error)
	Close() error
}

func denied(ceiling int, oldest time.Time, now time.Time, window time.Duration) Decision {
	retry := oldest.Add(window).Sub(now)
	if retry < 0 {
		retry = 0
	}
	return Decision{
		Allowed:    false,
		Limit:      ceiling,
		Remaining:  0,
		RetryAfter: retry,
	}
}
