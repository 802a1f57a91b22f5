package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const keyPrefix = "idem:"

// RedisStore shares keys across instances. Reservation is a single SET NX so
// two instances cannot both run the same request.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (*Record, bool, error) {
	pending, err := json.Marshal(Record{Fingerprint: fingerprint})
	if err != nil {
		return nil, false, eris.Wrap(err, "redis: encode idempotency record")
	}
	// The held key can expire between SET NX and GET; one retry covers it.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, keyPrefix+key, pending, ttl).Result()
		if err != nil {
			return nil, false, eris.Wrap(err, "redis: reserve idempotency key")
		}
		if ok {
			return nil, true, nil
		}
		raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, false, eris.Wrap(err, "redis: read idempotency key")
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, false, eris.Wrap(err, "redis: decode idempotency record")
		}
		return &rec, false, nil
	}
	return nil, false, eris.New("redis: idempotency key churned during reservation")
}

func (s *RedisStore) Complete(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	rec.Completed = true
	raw, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "redis: encode idempotency record")
	}
	if err := s.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return eris.Wrap(err, "redis: store idempotent response")
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return eris.Wrap(err, "redis: release idempotency key")
	}
	return nil
}
