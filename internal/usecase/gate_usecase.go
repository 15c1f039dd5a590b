package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"time"

	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/ratewindow"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/metrics"
)

type GateConfig struct {
	AuthEnabled      bool
	APIKey           string
	PublicPaths      []string
	RateLimitEnabled bool
	Ceiling          int
	Window           time.Duration
}

// GateUseCase decides whether a request may reach the service.
type GateUseCase struct {
	cfg     GateConfig
	keyHash [sha256.Size]byte
	public  map[string]struct{}
	windows ratewindow.Store
	now     func() time.Time
	logger  logger.Logger
}

func NewGateUseCase(cfg GateConfig, windows ratewindow.Store, l logger.Logger) *GateUseCase {
	public := make(map[string]struct{}, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		public[p] = struct{}{}
	}

	return &GateUseCase{
		cfg:     cfg,
		keyHash: sha256.Sum256([]byte(cfg.APIKey)),
		public:  public,
		windows: windows,
		now:     time.Now,
		logger:  l,
	}
}

// WithClock replaces the time source used for rate windows.
func (uc *GateUseCase) WithClock(now func() time.Time) *GateUseCase {
	uc.now = now
	return uc
}

func (uc *GateUseCase) IsPublic(path string) bool {
	_, ok := uc.public[path]
	return ok
}

func (uc *GateUseCase) AuthEnabled() bool {
	return uc.cfg.AuthEnabled
}

func (uc *GateUseCase) RateLimitEnabled() bool {
	return uc.cfg.RateLimitEnabled
}

// Authenticate compares credential with the configured key in constant
// time. Both sides are hashed first so their lengths never leak.
func (uc *GateUseCase) Authenticate(credential string) bool {
	if !uc.cfg.AuthEnabled {
		return true
	}
	if credential == "" {
		metrics.GateAuthRejections.Inc()
		return false
	}

	got := sha256.Sum256([]byte(credential))
	if subtle.ConstantTimeCompare(got[:], uc.keyHash[:]) != 1 {
		metrics.GateAuthRejections.Inc()
		return false
	}
	return true
}

// Admit records one request for identity. A failing window store admits
// the request and returns a Decision with a zero Limit.
func (uc *GateUseCase) Admit(ctx context.Context, identity string) ratewindow.Decision {
	if !uc.cfg.RateLimitEnabled {
		return ratewindow.Decision{Allowed: true}
	}

	d, err := uc.windows.Admit(ctx, identity, uc.now(), uc.cfg.Window, uc.cfg.Ceiling)
	if err != nil {
		uc.logger.Warn("rate window store failed, admitting request", "identity", identity, "error", err)
		metrics.RateLimitStoreErrors.Inc()
		return ratewindow.Decision{Allowed: true}
	}

	if !d.Allowed {
		uc.logger.Info("rate limit exceeded", "identity", identity, "retry_after", d.RetryAfter)
		metrics.GateRateLimited.Inc()
	}
	return d
}
