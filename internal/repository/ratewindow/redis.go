package ratewindow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// admitScript runs the prune/check/record sequence atomically.
// KEYS[1] window key; ARGV: now (ms), window (ms), ceiling, member.
// Returns {allowed, count, oldest (ms)}.
var admitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local ceiling = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= ceiling then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, count, tonumber(oldest[2])}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`)

// RedisStore shares windows between replicas through sorted sets.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) keyFor(id string) string {
	return s.prefix + "ratewindow:" + id
}

func (s *RedisStore) Admit(ctx context.Context, id string, now time.Time, window time.Duration, ceiling int) (Decision, error) {
	res, err := admitScript.Run(ctx, s.client, []string{s.keyFor(id)},
		now.UnixMilli(), window.Milliseconds(), ceiling, uuid.NewString()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis admit error: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("redis admit: unexpected reply %v", res)
	}

	if res[0] == 0 {
		return denied(ceiling, time.UnixMilli(res[2]), now, window), nil
	}

	return Decision{
		Allowed:   true,
		Limit:     ceiling,
		Remaining: ceiling - int(res[1]),
	}, nil
}

func (s *RedisStore) Count(ctx context.Context, id string) (int, error) {
	n, err := s.client.ZCard(ctx, s.keyFor(id)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count error: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
