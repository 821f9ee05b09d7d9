package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestSeen_Redis(t *testing.T) {
	mrs, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mrs.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mrs.Addr()})
	d := New(rdb, time.Minute)

	ctx := context.Background()
	assert.False(t, d.Seen(ctx, 100))
	assert.True(t, d.Seen(ctx, 100))
	assert.False(t, d.Seen(ctx, 101))

	ttl := mrs.TTL(keyPrefix + "100")
	if ttl < 50*time.Second || ttl > time.Minute {
		t.Fatalf("expected ttl around 1m, got %v", ttl)
	}

	mrs.FastForward(2 * time.Minute)
	assert.False(t, d.Seen(ctx, 100), "expired ids are processed again")
}

func TestSeen_RedisDownFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	d := New(rdb, time.Minute)

	assert.False(t, d.Seen(context.Background(), 1))
	assert.False(t, d.Seen(context.Background(), 1))
}

func TestSeen_LocalExpiry(t *testing.T) {
	d := New(nil, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	assert.False(t, d.Seen(context.Background(), 5))
	assert.True(t, d.Seen(context.Background(), 5))

	now = now.Add(time.Minute)
	assert.False(t, d.Seen(context.Background(), 5))
	assert.Len(t, d.seen, 1)
}

func TestSeen_DisabledWithZeroTTL(t *testing.T) {
	d := New(nil, 0)
	assert.False(t, d.Seen(context.Background(), 9))
	assert.False(t, d.Seen(context.Background(), 9))
}
