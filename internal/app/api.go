package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	v1 "github.com/jaennil/guide_helper/backend/mosaic/internal/infrastructure/http/v1"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/blobstore"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/bounds"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/manifest"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/repository/ratewindow"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/usecase"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/config"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/http_server"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/telemetry"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger)
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logger.WithLogger(ctx, l)

	if err := run(ctx, cfg, l); err != nil {
		l.Fatal("application failed", "error", err)
	}

	l.Info("application shutdown completed")
}

func run(ctx context.Context, cfg *config.Config, l logger.Logger) error {
	l.Info("starting mosaic service",
		"port", cfg.HTTP.Server.Port,
		"storage_backend", cfg.Storage.Backend,
		"rate_limit_backend", cfg.RateLimit.Backend,
		"auth_enabled", cfg.Auth.Enabled,
		"rate_limit_enabled", cfg.RateLimit.Enabled,
	)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
	}

	store, err := blobstore.New(cfg.Storage, cfg.Redis, l)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}
	defer store.Close()

	gateway := manifest.NewGateway(store, manifest.Compression(cfg.Storage.Compression), cfg.Storage.RetryMaxElapsed, l)

	boundsCache := bounds.NewCache(cfg.Bounds.Path, l)
	if cfg.Bounds.Preload {
		boundsCache.Load()
	}

	builder := usecase.NewMosaicBuilder(boundsCache, usecase.BoundsPolicy(cfg.Mosaic.BoundsPolicy))
	manifests := usecase.NewManifestUseCase(builder, gateway, usecase.ManifestConfig{
		COGStorageURL: cfg.Mosaic.COGStorageURL,
		TilesPath:     cfg.Mosaic.TilesPath,
		TilePrefix:    cfg.Mosaic.TilePrefix,
		TileSuffix:    cfg.Mosaic.TileSuffix,
		MinZoom:       cfg.Mosaic.MinZoom,
		MaxZoom:       cfg.Mosaic.MaxZoom,
		SavePrefix:    cfg.Mosaic.SavePrefix,
	}, l)

	if cfg.Mosaic.COGStorageURL == "" {
		l.Warn("MOSAIC_COG_STORAGE_URL is not set, mosaic generation will be rejected")
	}

	windows, err := newWindowStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open rate window store: %w", err)
	}
	defer windows.Close()

	gate := usecase.NewGateUseCase(usecase.GateConfig{
		AuthEnabled:      cfg.Auth.Enabled,
		APIKey:           cfg.Auth.APIKey,
		PublicPaths:      cfg.Auth.PublicPaths,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		Ceiling:          cfg.RateLimit.Ceiling,
		Window:           cfg.RateLimit.Window,
	}, windows, l)

	h := handler.NewHandler(validator.New(), manifests, boundsCache)
	router, err := v1.NewRouter(h, gate, v1.NewRouterConfig(cfg), l)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	httpServer := http_server.NewServer(ctx, cfg.HTTP.Server, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info("starting http server...", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		l.Info("http server stopped", "address", httpServer.Addr)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info("shutting down http server...", "address", httpServer.Addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		l.Info("http server shutdown completed")
		return nil
	})

	if mem, ok := windows.(*ratewindow.MemoryStore); ok && cfg.RateLimit.Enabled {
		g.Go(func() error {
			return mem.Run(gctx, cfg.RateLimit.SweepInterval, cfg.RateLimit.IdleTTL, l)
		})
	}

	if cfg.Bounds.Watch {
		g.Go(func() error {
			if err := boundsCache.Watch(gctx); err != nil {
				// The service keeps serving the last good snapshot.
				l.Error("bounds watcher stopped", "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func newWindowStore(cfg *config.Config) (ratewindow.Store, error) {
	switch cfg.RateLimit.Backend {
	case "memory":
		return ratewindow.NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return ratewindow.NewRedisStore(client, cfg.Redis.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend: %s (supported: memory, redis)", cfg.RateLimit.Backend)
	}
}
