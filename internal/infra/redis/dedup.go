package redis

import (
	"context"
	"time"
)

// DedupStore remembers external payment references with SETNX so replayed
// notifications can be short-circuited before any database work. It is a
// fast path only: the ledger lookup inside the reconciliation transaction
// remains authoritative, so a flushed cache merely costs one extra query.
type DedupStore struct {
	cli *Client
	ttl time.Duration
}

func NewDedupStore(c *Client, ttl time.Duration) *DedupStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &DedupStore{cli: c, ttl: ttl}
}

// MarkSeen records the reference and reports whether it was fresh.
func (d *DedupStore) MarkSeen(ctx context.Context, ref string) (bool, error) {
	return d.cli.cli.SetNX(ctx, "ipn:ref:"+ref, 1, d.ttl).Result()
}
