package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 256

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreFromClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

// NewRedisStoreFromClient wraps an existing client. A zero ttl keeps
// objects forever.
func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		prefix: prefix,
	}
}

var _ BlobStore = (*RedisStore)(nil)

func (s *RedisStore) keyFor(p string) string {
	return s.prefix + "blob:" + p
}

func (s *RedisStore) Get(ctx context.Context, p string) ([]byte, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.keyFor(p)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	return data, nil
}

func (s *RedisStore) Put(ctx context.Context, p string, data []byte) error {
	p, err := cleanPath(p)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.keyFor(p), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

// List scans the store's key space and filters with path.Match, since
// redis glob lets '*' cross '/'.
func (s *RedisStore) List(ctx context.Context, pattern string) ([]string, error) {
	if err := checkPattern(pattern); err != nil {
		return nil, err
	}

	keyPrefix := s.keyFor("")
	var out []string

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		p := strings.TrimPrefix(iter.Val(), keyPrefix)
		if ok, _ := path.Match(pattern, p); ok {
			out = append(out, p)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan error: %w", err)
	}

	sort.Strings(out)
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
