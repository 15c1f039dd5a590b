package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("AUTH_API_KEY", "secret")

	cfg, err := env.ParseAs[Config]()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8080", cfg.HTTP.Server.Port)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "X-API-Key", cfg.Auth.HeaderName)
	assert.Equal(t, []string{"/health", "/healthz", "/metrics"}, cfg.Auth.PublicPaths)
	assert.Equal(t, 100, cfg.RateLimit.Ceiling)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 8, cfg.Mosaic.MinZoom)
	assert.Equal(t, 14, cfg.Mosaic.MaxZoom)
	assert.Equal(t, ".tif", cfg.Mosaic.TileSuffix)
	assert.Equal(t, "union", cfg.Mosaic.BoundsPolicy)
	assert.Equal(t, "gzip", cfg.Storage.Compression)
}

func TestListsAreCommaSeparated(t *testing.T) {
	t.Setenv("AUTH_API_KEY", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("HTTP_TRUSTED_PROXIES", "10.0.0.1")

	cfg, err := env.ParseAs[Config]()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.HTTP.TrustedProxies)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"auth without key", func(c *Config) { c.Auth.APIKey = "" }, false},
		{"auth disabled without key", func(c *Config) { c.Auth.Enabled = false; c.Auth.APIKey = "" }, true},
		{"zero ceiling", func(c *Config) { c.RateLimit.Ceiling = 0 }, false},
		{"zero ceiling with limiter off", func(c *Config) { c.RateLimit.Enabled = false; c.RateLimit.Ceiling = 0 }, true},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "gcs" }, false},
		{"unknown limiter backend", func(c *Config) { c.RateLimit.Backend = "etcd" }, false},
		{"unknown compression", func(c *Config) { c.Storage.Compression = "lz4" }, false},
		{"unknown policy", func(c *Config) { c.Mosaic.BoundsPolicy = "centroid" }, false},
		{"inverted zoom", func(c *Config) { c.Mosaic.MinZoom = 15 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUTH_API_KEY", "secret")
			cfg, err := env.ParseAs[Config]()
			require.NoError(t, err)

			tt.mutate(&cfg)

			err = cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
