package repositories

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const settlementCacheTTL = 24 * time.Hour

// SettlementCache is a best-effort fast path for replayed deliveries:
// recently settled transaction refs are kept in redis so an obvious
// duplicate can be answered without opening a DB transaction. The
// database UNIQUE constraint remains the correctness mechanism; every
// cache failure is treated as a miss.
type SettlementCache struct {
	RDB *redis.Client
}

func NewSettlementCache(rdb *redis.Client) *SettlementCache { return &SettlementCache{RDB: rdb} }

func (c *SettlementCache) MarkSettled(ctx context.Context, txRef, invoiceNumber string) {
	if c == nil || c.RDB == nil {
		return
	}
	c.RDB.Set(ctx, "settled:"+txRef, invoiceNumber, settlementCacheTTL)
}

// SettledInvoice returns the invoice number a transaction ref settled,
// or "" on miss (including any redis error).
func (c *SettlementCache) SettledInvoice(ctx context.Context, txRef string) string {
	if c == nil || c.RDB == nil {
		return ""
	}
	val, err := c.RDB.Get(ctx, "settled:"+txRef).Result()
	if err != nil {
		return ""
	}
	return val
}
