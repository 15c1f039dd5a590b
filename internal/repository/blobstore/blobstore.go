// Package blobstore keeps opaque objects addressed by slash-separated paths
// such as "mosaics/3f2a.json.gz".
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/jaennil/guide_helper/backend/mosaic/pkg/config"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidPath = errors.New("invalid object path")
)

type BlobStore interface {
	Get(ctx context.Context, p string) ([]byte, error)
	Put(ctx context.Context, p string, data []byte) error
	// List returns the sorted paths matching a path.Match pattern.
	List(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// New builds the backend named by cfg.Backend, wrapped with metrics.
func New(cfg config.Storage, redisCfg config.Redis, l logger.Logger) (BlobStore, error) {
	var (
		store BlobStore
		err   error
	)

	switch cfg.Backend {
	case "filesystem":
		l.Info("using filesystem blob store", "root", cfg.Root)
		store, err = NewFilesystemStore(cfg.Root)
	case "memory":
		l.Info("using in-memory blob store")
		store = NewMemoryStore()
	case "sqlite":
		l.Info("using sqlite blob store", "path", cfg.SQLitePath)
		store, err = NewSQLiteStore(cfg.SQLitePath, l)
	case "redis":
		l.Info("using redis blob store", "addr", redisCfg.Addr)
		store, err = NewRedisStore(RedisConfig{
			Addr:      redisCfg.Addr,
			Password:  redisCfg.Password,
			DB:        redisCfg.DB,
			TTL:       redisCfg.TTL,
			KeyPrefix: redisCfg.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: filesystem, memory, sqlite, redis)", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	return Instrument(cfg.Backend, store), nil
}

// cleanPath rejects paths that could escape a backend's namespace.
func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	return p, nil
}

func checkPattern(pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("%w: bad pattern %q: %v", ErrInvalidPath, pattern, err)
	}
	return nil
}
