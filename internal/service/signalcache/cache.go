package signalcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradevision/internal/domain/models"
	"tradevision/pkg/cache"
)

// DefaultTTL bounds how long a cached snapshot may be served.
const DefaultTTL = 5 * time.Minute

// ErrMiss is returned when no snapshot is cached; callers fall back to the
// signal store.
var ErrMiss = errors.New("signalcache: miss")

// Cache holds the most recent signal per (symbol, timeframe). Best-effort
// and never authoritative: it may be stale, empty or entirely absent without
// affecting correctness.
type Cache struct {
	cache cache.Service
	ttl   time.Duration
}

// New creates a latest-signal cache.
func New(c cache.Service, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{cache: c, ttl: ttl}
}

func key(symbol, tf string) string {
	return fmt.Sprintf("last_signal:%s:%s", strings.ToUpper(symbol), tf)
}

// Refresh stores a snapshot of the latest signal.
func (c *Cache) Refresh(ctx context.Context, s *models.Signal) error {
	return c.cache.Set(ctx, key(s.Symbol, s.TF), models.SnapshotOf(s), c.ttl)
}

// Latest returns the cached snapshot or ErrMiss. Cache failures are
// reported as misses.
func (c *Cache) Latest(ctx context.Context, symbol, tf string) (*models.SignalSnapshot, error) {
	var snap models.SignalSnapshot
	if err := c.cache.Get(ctx, key(symbol, tf), &snap); err != nil {
		return nil, ErrMiss
	}
	return &snap, nil
}
