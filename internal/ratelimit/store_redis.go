package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const keyPrefix = "rl:"

// RedisStore shares windows across instances. Each key is a sorted set of
// request timestamps in unix milliseconds.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit Limit, now time.Time) (*Result, error) {
	key = keyPrefix + key
	nowMS := now.UnixMilli()
	cutoff := now.Add(-limit.Window).UnixMilli()
	member := strconv.FormatInt(nowMS, 10) + "-" + uuid.NewString()

	var card *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMS), Member: member})
		card = pipe.ZCard(ctx, key)
		oldest = pipe.ZRangeWithScores(ctx, key, 0, 0)
		pipe.PExpire(ctx, key, limit.Window)
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "redis: count rate limit window")
	}

	count := int(card.Val())
	res := &Result{Limit: limit.Requests, ResetAt: now.Add(limit.Window)}
	if zs := oldest.Val(); len(zs) > 0 {
		res.ResetAt = time.UnixMilli(int64(zs[0].Score)).Add(limit.Window)
	}
	if count <= limit.Requests {
		res.Allowed = true
		res.Remaining = limit.Requests - count
		return res, nil
	}
	// Rejected requests do not consume budget.
	if err := s.client.ZRem(ctx, key, member).Err(); err != nil {
		return nil, eris.Wrap(err, "redis: release rejected request")
	}
	res.RetryAfter = res.ResetAt.Sub(now)
	return res, nil
}
