package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Auth      Auth      `envPrefix:"AUTH_"`
		CORS      CORS      `envPrefix:"CORS_"`
		RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
		Bounds    Bounds    `envPrefix:"BOUNDS_"`
		Mosaic    Mosaic    `envPrefix:"MOSAIC_"`
		Storage   Storage   `envPrefix:"STORAGE_"`
		Redis     Redis     `envPrefix:"REDIS_"`
	}

	HTTP struct {
		Server         Server   `envPrefix:"SERVER_"`
		TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
	}

	Server struct {
		Port            string        `env:"PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}

	Logger struct {
		Level  string `env:"LEVEL" envDefault:"info"`
		Format string `env:"FORMAT" envDefault:"json"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"guide-helper-mosaic"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	Auth struct {
		Enabled     bool     `env:"ENABLED" envDefault:"true"`
		APIKey      string   `env:"API_KEY"`
		HeaderName  string   `env:"HEADER_NAME" envDefault:"X-API-Key"`
		QueryParam  string   `env:"QUERY_PARAM" envDefault:"api_key"`
		PublicPaths []string `env:"PUBLIC_PATHS" envSeparator:"," envDefault:"/health,/healthz,/metrics"`
	}

	CORS struct {
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	RateLimit struct {
		Enabled       bool          `env:"ENABLED" envDefault:"true"`
		Ceiling       int           `env:"CEILING" envDefault:"100"`
		Window        time.Duration `env:"WINDOW" envDefault:"60s"`
		Backend       string        `env:"BACKEND" envDefault:"memory"`
		IdleTTL       time.Duration `env:"IDLE_TTL" envDefault:"10m"`
		SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	}

	Bounds struct {
		Path    string `env:"PATH" envDefault:"data/wrs2_bounds.json"`
		Watch   bool   `env:"WATCH" envDefault:"false"`
		Preload bool   `env:"PRELOAD" envDefault:"false"`
	}

	Mosaic struct {
		COGStorageURL string `env:"COG_STORAGE_URL"`
		TilesPath     string `env:"TILES_PATH"`
		TilePrefix    string `env:"TILE_PREFIX"`
		TileSuffix    string `env:"TILE_SUFFIX" envDefault:".tif"`
		MinZoom       int    `env:"MIN_ZOOM" envDefault:"8"`
		MaxZoom       int    `env:"MAX_ZOOM" envDefault:"14"`
		BoundsPolicy  string `env:"BOUNDS_POLICY" envDefault:"union"`
		SavePrefix    string `env:"SAVE_PREFIX" envDefault:"mosaics"`
	}

	Storage struct {
		Backend         string        `env:"BACKEND" envDefault:"filesystem"`
		Root            string        `env:"ROOT" envDefault:"data/store"`
		SQLitePath      string        `env:"SQLITE_PATH" envDefault:"data/store.db"`
		Compression     string        `env:"COMPRESSION" envDefault:"gzip"`
		RetryMaxElapsed time.Duration `env:"RETRY_MAX_ELAPSED" envDefault:"5s"`
	}

	Redis struct {
		Addr      string        `env:"ADDR" envDefault:"localhost:6379"`
		Password  string        `env:"PASSWORD" envDefault:""`
		DB        int           `env:"DB" envDefault:"0"`
		TTL       time.Duration `env:"TTL" envDefault:"0s"`
		KeyPrefix string        `env:"KEY_PREFIX" envDefault:"mosaic:"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings env tags cannot express on their own.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.Enabled && c.Auth.APIKey == "" {
		errs = append(errs, errors.New("AUTH_API_KEY is required when AUTH_ENABLED is true"))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Ceiling <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_CEILING must be positive, got %d", c.RateLimit.Ceiling))
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimit.Window))
		}
	}

	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q (supported: memory, redis)", c.RateLimit.Backend))
	}

	switch c.Storage.Backend {
	case "filesystem", "memory", "sqlite", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q (supported: filesystem, memory, sqlite, redis)", c.Storage.Backend))
	}

	switch c.Storage.Compression {
	case "gzip", "zstd":
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_COMPRESSION %q (supported: gzip, zstd)", c.Storage.Compression))
	}

	switch c.Mosaic.BoundsPolicy {
	case "union", "world":
	default:
		errs = append(errs, fmt.Errorf("unknown MOSAIC_BOUNDS_POLICY %q (supported: union, world)", c.Mosaic.BoundsPolicy))
	}

	if c.Mosaic.MinZoom < 0 || c.Mosaic.MinZoom > c.Mosaic.MaxZoom {
		errs = append(errs, fmt.Errorf("invalid zoom range %d-%d", c.Mosaic.MinZoom, c.Mosaic.MaxZoom))
	}

	return errors.Join(errs...)
}
