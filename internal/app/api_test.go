package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/ratewindow"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/config"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("AUTH_API_KEY", "secret")

	cfg, err := env.ParseAs[config.Config]()
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.HTTP.Server.Port = "0"
	cfg.HTTP.Server.ShutdownTimeout = time.Second
	cfg.Storage.Backend = "memory"
	cfg.Bounds.Path = filepath.Join(dir, "wrs2_bounds.json")
	cfg.Bounds.Watch = true
	cfg.RateLimit.SweepInterval = 10 * time.Millisecond
	return &cfg
}

func TestNewWindowStore(t *testing.T) {
	cfg := testConfig(t)

	s, err := newWindowStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &ratewindow.MemoryStore{}, s)

	cfg.RateLimit.Backend = "redis"
	s, err = newWindowStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &ratewindow.RedisStore{}, s)
	s.Close()

	cfg.RateLimit.Backend = "etcd"
	_, err = newWindowStore(cfg)
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, logger.NewNoOpLogger()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}

func TestRunFailsOnBadStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "gcs"

	err := run(context.Background(), cfg, logger.NewNoOpLogger())
	assert.Error(t, err)
}
