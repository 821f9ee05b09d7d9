package dedup

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"signbot/internal/infra/logging"
)

const keyPrefix = "tgupdate:"

// Deduper remembers processed Telegram update ids for a while, so webhook
// redeliveries are not handled twice.
type Deduper struct {
	rdb *redis.Client
	ttl time.Duration

	mu   sync.Mutex
	seen map[int64]time.Time
	now  func() time.Time
}

// New returns a Deduper backed by Redis when rdb is non-nil, and by an
// in-process map otherwise. A zero ttl disables de-duplication.
func New(rdb *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{
		rdb:  rdb,
		ttl:  ttl,
		seen: make(map[int64]time.Time),
		now:  time.Now,
	}
}

// Seen marks updateID as processed and reports whether it already was.
// Redis failures are logged and treated as unseen.
func (d *Deduper) Seen(ctx context.Context, updateID int64) bool {
	if d.ttl <= 0 {
		return false
	}
	if d.rdb != nil {
		ctxRedis, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()

		ok, err := d.rdb.SetNX(ctxRedis, keyPrefix+strconv.FormatInt(updateID, 10), 1, d.ttl).Result()
		if err != nil {
			logging.Warn("Redis dedup failed", "update_id", updateID, "error", err)
			return false
		}
		return !ok
	}
	return d.seenLocal(updateID)
}

func (d *Deduper) seenLocal(updateID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for id, exp := range d.seen {
		if !now.Before(exp) {
			delete(d.seen, id)
		}
	}
	if _, ok := d.seen[updateID]; ok {
		return true
	}
	d.seen[updateID] = now.Add(d.ttl)
	return false
}
