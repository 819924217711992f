package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	windowKeyPrefix = "sheetwatch:rl:win:"
	blockKeyPrefix  = "sheetwatch:rl:blk:"
)

// checkScript runs the whole check-and-record atomically so concurrent
// instances never double-admit around the limit. Same semantics as the
// in-memory store: active block denies, expired block key means an empty
// window (the window zset is deleted when a block starts).
//
// KEYS[1] window zset, KEYS[2] block key.
// ARGV: now_ms, window_ms, limit, block_ms, member.
// Returns {allowed, remaining, reset_ms, blocked}.
var checkScript = redis.NewScript(`
local window_key = KEYS[1]
local block_key = KEYS[2]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local block = tonumber(ARGV[4])
local member = ARGV[5]

local block_until = redis.call('GET', block_key)
if block_until then
  return {0, 0, tonumber(block_until), 1}
end

redis.call('ZREMRANGEBYSCORE', window_key, 0, now - window)
local count = redis.call('ZCARD', window_key)

if count >= limit then
  local until_ms = now + block
  redis.call('SET', block_key, until_ms, 'PX', block)
  redis.call('DEL', window_key)
  return {0, 0, until_ms, 1}
end

redis.call('ZADD', window_key, now, member)
redis.call('PEXPIRE', window_key, window)
local oldest = redis.call('ZRANGE', window_key, 0, 0, 'WITHSCORES')
return {1, limit - count - 1, tonumber(oldest[2]) + window, 0}
`)

// RedisBucketStore is the shared sliding-window store for multi-instance
// deployments.
type RedisBucketStore struct {
	client   *redis.Client
	limit    int
	window   time.Duration
	blockFor time.Duration
}

func NewRedisBucketStore(client *redis.Client, limit int, window, blockFor time.Duration) *RedisBucketStore {
	return &RedisBucketStore{
		client:   client,
		limit:    limit,
		window:   window,
		blockFor: blockFor,
	}
}

func (s *RedisBucketStore) Check(ctx context.Context, key string, now time.Time) (*Decision, error) {
	res, err := checkScript.Run(ctx, s.client,
		[]string{windowKeyPrefix + key, blockKeyPrefix + key},
		now.UnixMilli(),
		s.window.Milliseconds(),
		s.limit,
		s.blockFor.Milliseconds(),
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if len(res) != 4 {
		return nil, fmt.Errorf("rate limit check: unexpected script result %v", res)
	}

	decision := &Decision{
		Allowed:   res[0] == 1,
		Limit:     s.limit,
		Remaining: int(res[1]),
		ResetAt:   time.UnixMilli(res[2]).UTC(),
		Blocked:   res[3] == 1,
	}
	if decision.Blocked {
		decision.BlockUntil = decision.ResetAt
	}
	return decision, nil
}

func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, windowKeyPrefix+key, blockKeyPrefix+key).Err()
}
