// Package redisx builds Redis clients from connection URLs.
package redisx

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Connect parses addr, opens a client and verifies it with a PING.
func Connect(ctx context.Context, addr string) (redis.UniversalClient, error) {
	opts, err := ParseURL(addr)
	if err != nil {
		return nil, err
	}
	c := redis.NewUniversalClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping %s: %w", Redact(addr), err)
	}
	return c, nil
}

// ParseURL parses addr into UniversalOptions supporting single, cluster,
// and sentinel Redis deployments. If no scheme is present, addr is treated as
// a plain host:port string.
func ParseURL(addr string) (*redis.UniversalOptions, error) {
	if !strings.Contains(addr, "://") {
		return &redis.UniversalOptions{Addrs: []string{addr}}, nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	opts := &redis.UniversalOptions{}
	if u.User != nil {
		opts.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			opts.Password = pw
		}
	}
	opts.Addrs = strings.Split(u.Host, ",")

	q := u.Query()
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	switch u.Scheme {
	case "redis", "rediss":
		if u.Path != "" && u.Path != "/" {
			db, err := strconv.Atoi(strings.TrimPrefix(u.Path, "/"))
			if err != nil {
				return nil, fmt.Errorf("redis: invalid db: %v", err)
			}
			opts.DB = db
		} else if dbStr := q.Get("db"); dbStr != "" {
			db, err := strconv.Atoi(dbStr)
			if err != nil {
				return nil, fmt.Errorf("redis: invalid db: %v", err)
			}
			opts.DB = db
		}
		if u.Scheme == "rediss" {
			opts.TLSConfig = tlsCfg
		}
	case "redis-sentinel", "rediss-sentinel":
		opts.MasterName = strings.TrimPrefix(u.Path, "/")
		if dbStr := q.Get("db"); dbStr != "" {
			db, err := strconv.Atoi(dbStr)
			if err != nil {
				return nil, fmt.Errorf("redis: invalid db: %v", err)
			}
			opts.DB = db
		}
		if v := q.Get("sentinel_username"); v != "" {
			opts.SentinelUsername = v
		}
		if v := q.Get("sentinel_password"); v != "" {
			opts.SentinelPassword = v
		}
		if u.Scheme == "rediss-sentinel" {
			opts.TLSConfig = tlsCfg
		}
	default:
		return nil, fmt.Errorf("redis: invalid URL scheme: %s", u.Scheme)
	}

	return opts, nil
}

// Redact returns addr with any password replaced, suitable for logs.
func Redact(addr string) string {
	u, err := url.Parse(addr)
	if err != nil || u.User == nil {
		return addr
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
