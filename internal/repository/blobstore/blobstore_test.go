package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaennil/guide_helper/backend/mosaic/pkg/config"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type factory func(t *testing.T) BlobStore

func backends(t *testing.T) map[string]factory {
	t.Helper()

	f := map[string]factory{
		"memory": func(t *testing.T) BlobStore { return NewMemoryStore() },
		"filesystem": func(t *testing.T) BlobStore {
			s, err := NewFilesystemStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) BlobStore {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "blobs.db"), logger.NewNoOpLogger())
			require.NoError(t, err)
			return s
		},
	}

	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		f["redis"] = func(t *testing.T) BlobStore {
			client := redis.NewClient(&redis.Options{Addr: addr})
			prefix := "test:" + t.Name() + ":"
			t.Cleanup(func() {
				ctx := context.Background()
				iter := client.Scan(ctx, 0, prefix+"*", 0).Iterator()
				for iter.Next(ctx) {
					client.Del(ctx, iter.Val())
				}
			})
			return NewRedisStoreFromClient(client, prefix, 0)
		}
	}

	return f
}

func TestBlobStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("get missing", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()

				_, err := s.Get(ctx, "mosaics/none.json")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("put then get", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()

				require.NoError(t, s.Put(ctx, "mosaics/a.json.gz", []byte("first")))
				got, err := s.Get(ctx, "mosaics/a.json.gz")
				require.NoError(t, err)
				assert.Equal(t, []byte("first"), got)

				require.NoError(t, s.Put(ctx, "mosaics/a.json.gz", []byte("second")))
				got, err = s.Get(ctx, "mosaics/a.json.gz")
				require.NoError(t, err)
				assert.Equal(t, []byte("second"), got)
			})

			t.Run("list by glob", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()

				for _, p := range []string{"wrs2/233_088.tif", "wrs2/233_087.tif", "wrs2/readme.txt", "other/001_001.tif"} {
					require.NoError(t, s.Put(ctx, p, []byte("x")))
				}

				got, err := s.List(ctx, "wrs2/*.tif")
				require.NoError(t, err)
				assert.Equal(t, []string{"wrs2/233_087.tif", "wrs2/233_088.tif"}, got)

				got, err = s.List(ctx, "*.tif")
				require.NoError(t, err)
				assert.Empty(t, got)
			})

			t.Run("rejects bad paths", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()

				for _, p := range []string{"", "/abs", "a/../b", "a//b", "..", "a\\b"} {
					assert.ErrorIs(t, s.Put(ctx, p, []byte("x")), ErrInvalidPath, p)
					_, err := s.Get(ctx, p)
					assert.ErrorIs(t, err, ErrInvalidPath, p)
				}

				_, err := s.List(ctx, "[")
				assert.ErrorIs(t, err, ErrInvalidPath)
			})
		})
	}
}

func TestFilesystemStoreLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	s, err := NewFilesystemStore(root)
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "mosaics/a.json", []byte("{}")))

	entries, err := os.ReadDir(filepath.Join(root, "mosaics"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.json", entries[0].Name())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", data))
	data[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestNewSelectsBackend(t *testing.T) {
	l := logger.NewNoOpLogger()

	s, err := New(config.Storage{Backend: "memory"}, config.Redis{}, l)
	require.NoError(t, err)
	assert.IsType(t, &instrumented{}, s)
	assert.IsType(t, &MemoryStore{}, s.(*instrumented).next)

	s, err = New(config.Storage{Backend: "filesystem", Root: t.TempDir()}, config.Redis{}, l)
	require.NoError(t, err)
	assert.IsType(t, &FilesystemStore{}, s.(*instrumented).next)

	_, err = New(config.Storage{Backend: "gcs"}, config.Redis{}, l)
	assert.Error(t, err)
}

func TestInstrumentedPassesThrough(t *testing.T) {
	ctx := context.Background()
	s := Instrument("memory", NewMemoryStore())

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "a/b", []byte("1")))
	got, err := s.List(ctx, "a/*")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b"}, got)
}
