package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gaspardpetit/chatpredict/internal/logx"
)

// CacheObserver is notified of every cache lookup.
type CacheObserver interface {
	ObserveCache(hit bool)
}

// Cached stores answers of an inner generator in Redis. Absent messages are
// never cached. Redis failures fall back to the inner generator.
type Cached struct {
	inner     Generator
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
	observer  CacheObserver
}

// NewCached wraps inner. namespace separates answers of differently
// configured generators sharing one Redis; observer may be nil.
func NewCached(inner Generator, client redis.UniversalClient, namespace string, ttl time.Duration, observer CacheObserver) *Cached {
	return &Cached{inner: inner, client: client, namespace: namespace, ttl: ttl, observer: observer}
}

// Key returns the Redis key holding the answer for message.
func (c *Cached) Key(message string) string {
	sum := sha256.Sum256([]byte(message))
	return "chatpredict:answer:" + c.namespace + ":" + hex.EncodeToString(sum[:])
}

// Generate implements Generator.
func (c *Cached) Generate(ctx context.Context, message *string) (string, error) {
	if message == nil {
		return c.inner.Generate(ctx, message)
	}
	key := c.Key(*message)
	answer, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		c.observe(true)
		return answer, nil
	case errors.Is(err, redis.Nil):
		c.observe(false)
	default:
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logx.Log.Warn().Err(err).Str("key", key).Msg("answer cache lookup")
		c.observe(false)
	}

	answer, err = c.inner.Generate(ctx, message)
	if err != nil {
		return "", err
	}
	if err := c.client.Set(ctx, key, answer, c.ttl).Err(); err != nil {
		logx.Log.Warn().Err(err).Str("key", key).Msg("answer cache store")
	}
	return answer, nil
}

func (c *Cached) observe(hit bool) {
	if c.observer != nil {
		c.observer.ObserveCache(hit)
	}
}
