package idempotency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradevision/pkg/cache"
)

// DefaultTTL is how long a processed marker lives. Retransmission storms
// settle well inside an hour; the storage constraint covers the rest.
const DefaultTTL = time.Hour

// Key derives the deterministic idempotency key for an event.
func Key(symbol, tf string, timestampMs int64) string {
	return fmt.Sprintf("signal:%s:%s:%d", strings.ToUpper(symbol), tf, timestampMs)
}

// Gate is an advisory duplicate filter ahead of the authoritative store. It
// may report false negatives (expired marker, concurrent requests) but never
// false positives; correctness is owned by the store's uniqueness
// constraint. Cache failures degrade to "not yet processed".
type Gate struct {
	cache cache.Service
	ttl   time.Duration
}

// NewGate creates a gate over the shared marker store.
func NewGate(c cache.Service, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Gate{cache: c, ttl: ttl}
}

// IsDuplicate reports whether the key is marked as already processed.
// Errors are swallowed: an unavailable cache must not block ingestion.
func (g *Gate) IsDuplicate(ctx context.Context, key string) bool {
	exists, err := g.cache.Exists(ctx, key)
	if err != nil {
		return false
	}
	return exists
}

// MarkProcessed sets the marker after a successful create. Set-if-not-exists
// keeps the first marker's TTL authoritative when retransmissions race.
func (g *Gate) MarkProcessed(ctx context.Context, key string) error {
	_, err := g.cache.SetNX(ctx, key, "processed", g.ttl)
	return err
}
