package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const responsePrefix = KeyPrefix + "resp:"

// RedisResponses stores gzip-compressed response bodies in Redis so the cache
// survives restarts and is shared between replicas. Keys are hashed because
// request URLs carry credentials.
type RedisResponses struct {
	r *Redis
}

// NewRedisResponses returns a Responses backend on r.
func NewRedisResponses(r *Redis) *RedisResponses {
	return &RedisResponses{r: r}
}

func responseKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return responsePrefix + hex.EncodeToString(sum[:])
}

func (c *RedisResponses) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.r.client.Get(ctx, responseKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("response cache get")
		}
		return nil, false
	}
	body, err := gunzip(raw)
	if err != nil {
		return nil, false
	}
	return body, true
}

func (c *RedisResponses) Set(ctx context.Context, key string, body []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	z, err := gzipBytes(body)
	if err != nil {
		return
	}
	if err := c.r.client.Set(ctx, responseKey(key), z, ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("response cache set")
	}
}

func (c *RedisResponses) Clear(ctx context.Context) error {
	return DelPattern(ctx, c.r, responsePrefix+"*")
}
