package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingObserver struct{ hits, misses int }

func (o *countingObserver) ObserveCache(hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func newCacheFixture(t *testing.T, inner Generator) (*Cached, *miniredis.Miniredis, *countingObserver) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	obs := &countingObserver{}
	return NewCached(inner, client, "test", time.Minute, obs), mr, obs
}

func TestCachedHitSkipsInner(t *testing.T) {
	calls := 0
	inner := Func(func(ctx context.Context, m *string) (string, error) {
		calls++
		return "answer to " + *m, nil
	})
	c, mr, obs := newCacheFixture(t, inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.Generate(ctx, strPtr("hello"))
		if err != nil || got != "answer to hello" {
			t.Fatalf("Generate = %q, %v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("inner called %d times", calls)
	}
	if obs.hits != 2 || obs.misses != 1 {
		t.Fatalf("hits=%d misses=%d", obs.hits, obs.misses)
	}
	if ttl := mr.TTL(c.Key("hello")); ttl != time.Minute {
		t.Fatalf("ttl = %s", ttl)
	}
}

func TestCachedAbsentMessageBypasses(t *testing.T) {
	calls := 0
	inner := Func(func(ctx context.Context, m *string) (string, error) {
		calls++
		return DefaultFallback, nil
	})
	c, mr, obs := newCacheFixture(t, inner)
	for i := 0; i < 2; i++ {
		if _, err := c.Generate(context.Background(), nil); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	if calls != 2 || obs.hits+obs.misses != 0 {
		t.Fatalf("calls=%d observed=%d", calls, obs.hits+obs.misses)
	}
	if n := len(mr.Keys()); n != 0 {
		t.Fatalf("unexpected keys: %d", n)
	}
}

func TestCachedErrorsAreNotStored(t *testing.T) {
	boom := errors.New("boom")
	c, mr, _ := newCacheFixture(t, Func(func(ctx context.Context, m *string) (string, error) {
		return "", boom
	}))
	if _, err := c.Generate(context.Background(), strPtr("hello")); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if mr.Exists(c.Key("hello")) {
		t.Fatalf("error result was cached")
	}
}

func TestCachedRedisDownFallsBack(t *testing.T) {
	c, mr, _ := newCacheFixture(t, Func(func(ctx context.Context, m *string) (string, error) {
		return "live", nil
	}))
	mr.Close()
	got, err := c.Generate(context.Background(), strPtr("hello"))
	if err != nil || got != "live" {
		t.Fatalf("Generate = %q, %v", got, err)
	}
}

func TestCachedKeyNamespaced(t *testing.T) {
	a := NewCached(Echo{}, nil, "a", time.Minute, nil)
	b := NewCached(Echo{}, nil, "b", time.Minute, nil)
	if a.Key("x") == b.Key("x") {
		t.Fatalf("namespaces share keys")
	}
}
