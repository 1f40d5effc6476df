package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradevision/pkg/cache"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "signal:BTCUSDT:5m:1717243200000", Key("BTCUSDT", "5m", 1717243200000))

	// symbol casing must not split the key space
	assert.Equal(t, Key("btcusdt", "5m", 1), Key("BTCUSDT", "5m", 1))

	// distinct timeframes and timestamps stay distinct
	assert.NotEqual(t, Key("BTCUSDT", "5m", 1), Key("BTCUSDT", "15m", 1))
	assert.NotEqual(t, Key("BTCUSDT", "5m", 1), Key("BTCUSDT", "5m", 2))
}

func TestGateMarkAndCheck(t *testing.T) {
	ctx := context.Background()
	g := NewGate(cache.NewMemoryCache(), time.Hour)

	key := Key("BTCUSDT", "5m", 1717243200000)
	assert.False(t, g.IsDuplicate(ctx, key))

	require.NoError(t, g.MarkProcessed(ctx, key))
	assert.True(t, g.IsDuplicate(ctx, key))

	// other keys are unaffected
	assert.False(t, g.IsDuplicate(ctx, Key("BTCUSDT", "15m", 1717243200000)))
}

func TestGateMarkerExpires(t *testing.T) {
	ctx := context.Background()
	g := NewGate(cache.NewMemoryCache(), 10*time.Millisecond)

	key := Key("ETHUSDT", "1m", 1)
	require.NoError(t, g.MarkProcessed(ctx, key))
	assert.True(t, g.IsDuplicate(ctx, key))

	time.Sleep(20 * time.Millisecond)
	assert.False(t, g.IsDuplicate(ctx, key))
}

func TestGateRemarkKeepsOriginalTTL(t *testing.T) {
	ctx := context.Background()
	g := NewGate(cache.NewMemoryCache(), 40*time.Millisecond)

	key := Key("BTCUSDT", "5m", 1717243200000)
	require.NoError(t, g.MarkProcessed(ctx, key))

	time.Sleep(25 * time.Millisecond)

	// re-marking a live key must not extend the first marker's lifetime
	require.NoError(t, g.MarkProcessed(ctx, key))
	assert.True(t, g.IsDuplicate(ctx, key))

	time.Sleep(25 * time.Millisecond)
	assert.False(t, g.IsDuplicate(ctx, key))
}

type failingCache struct {
	cache.Service
}

func (failingCache) Exists(context.Context, ...string) (bool, error) {
	return false, assert.AnError
}

func TestGateSwallowsCacheErrors(t *testing.T) {
	g := NewGate(failingCache{}, time.Hour)

	// unavailable marker store must read as "not yet processed"
	assert.False(t, g.IsDuplicate(context.Background(), "signal:BTCUSDT:5m:1"))
}
