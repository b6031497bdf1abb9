package serverstate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gaspardpetit/chatpredict/internal/logx"
)

// redisStore implements Store backed by a Redis instance. Each server
// instance owns its own key, so one replica draining never affects another.
type redisStore struct {
	client redis.UniversalClient
	key    string
	ctx    context.Context
}

// RedisKeyPrefix prefixes the per-instance state keys.
const RedisKeyPrefix = "chatpredict:state:"

// redisStateTTL expires the keys of instances that went away without
// cleaning up. Every Store refreshes it.
const redisStateTTL = 24 * time.Hour

// NewRedisStore returns a Store kept under the key of instance in client.
// The key is initialized to a default state if it does not exist.
func NewRedisStore(ctx context.Context, client redis.UniversalClient, instance string) (Store, error) {
	if instance == "" {
		return nil, errors.New("serverstate: instance id is required")
	}
	rs := &redisStore{client: client, key: RedisKeyPrefix + instance, ctx: ctx}
	b, err := json.Marshal(State{Status: StatusNotReady})
	if err != nil {
		return nil, err
	}
	if err := client.SetNX(ctx, rs.key, b, redisStateTTL).Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

func (r *redisStore) Load() State {
	b, err := r.client.Get(r.ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{Status: StatusNotReady}
		}
		return State{Status: "unknown"}
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return State{Status: "unknown"}
	}
	return st
}

func (r *redisStore) Store(s State) {
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := r.client.Set(r.ctx, r.key, b, redisStateTTL).Err(); err != nil {
		logx.Log.Error().Err(err).Msg("store server state")
	}
}
