package signalcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradevision/internal/domain/models"
	"tradevision/pkg/cache"
)

func testSignal() *models.Signal {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &models.Signal{
		ID:        42,
		SymbolID:  1,
		Symbol:    "BTCUSDT",
		TF:        "5m",
		TS:        ts,
		Direction: models.DirectionUp,
		EnterAt:   ts.Add(time.Minute),
		ExpireAt:  ts.Add(6 * time.Minute),
		CreatedAt: ts.Add(2 * time.Second),
	}
}

func TestRefreshAndLatest(t *testing.T) {
	ctx := context.Background()
	c := New(cache.NewMemoryCache(), time.Minute)

	sig := testSignal()
	require.NoError(t, c.Refresh(ctx, sig))

	snap, err := c.Latest(ctx, "BTCUSDT", "5m")
	require.NoError(t, err)
	assert.Equal(t, sig.ID, snap.ID)
	assert.Equal(t, sig.Symbol, snap.Symbol)
	assert.Equal(t, sig.Direction, snap.Direction)
	assert.True(t, snap.EnterAt.Equal(sig.EnterAt))
	assert.True(t, snap.ExpireAt.Equal(sig.ExpireAt))
}

func TestLatestIsCaseInsensitiveOnSymbol(t *testing.T) {
	ctx := context.Background()
	c := New(cache.NewMemoryCache(), time.Minute)
	require.NoError(t, c.Refresh(ctx, testSignal()))

	snap, err := c.Latest(ctx, "btcusdt", "5m")
	require.NoError(t, err)
	assert.Equal(t, int64(42), snap.ID)
}

func TestLatestMiss(t *testing.T) {
	c := New(cache.NewMemoryCache(), time.Minute)

	_, err := c.Latest(context.Background(), "BTCUSDT", "5m")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestLatestMissOnOtherTimeframe(t *testing.T) {
	ctx := context.Background()
	c := New(cache.NewMemoryCache(), time.Minute)
	require.NoError(t, c.Refresh(ctx, testSignal()))

	_, err := c.Latest(ctx, "BTCUSDT", "15m")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestSnapshotExpires(t *testing.T) {
	ctx := context.Background()
	c := New(cache.NewMemoryCache(), 10*time.Millisecond)
	require.NoError(t, c.Refresh(ctx, testSignal()))

	time.Sleep(20 * time.Millisecond)
	_, err := c.Latest(ctx, "BTCUSDT", "5m")
	assert.ErrorIs(t, err, ErrMiss)
}
