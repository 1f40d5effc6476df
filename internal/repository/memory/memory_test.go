package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradevision/internal/domain/models"
	"tradevision/internal/domain/repository"
)

func TestSymbolStoreGetOrCreate(t *testing.T) {
	ctx := context.Background()
	s := NewSymbolStore()

	first, err := s.GetOrCreate(ctx, "btcusdt")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", first.Name)
	assert.NotZero(t, first.ID)

	// same symbol under any casing resolves to the same row
	again, err := s.GetOrCreate(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	got, err := s.GetByName(ctx, "BtcUsdt")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = s.GetByName(ctx, "ETHUSDT")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSymbolStoreListOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewSymbolStore()

	for _, name := range []string{"SOLUSDT", "BTCUSDT", "ETHUSDT"} {
		_, err := s.GetOrCreate(ctx, name)
		require.NoError(t, err)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "BTCUSDT", list[0].Name)
	assert.Equal(t, "ETHUSDT", list[1].Name)
	assert.Equal(t, "SOLUSDT", list[2].Name)
}

func makeSignal(symbolID int64, tf string, ts time.Time) *models.Signal {
	return &models.Signal{
		SymbolID:  symbolID,
		Symbol:    "BTCUSDT",
		TF:        tf,
		TS:        ts,
		Direction: models.DirectionUp,
		EnterAt:   ts.Add(time.Minute),
		ExpireAt:  ts.Add(6 * time.Minute),
	}
}

func TestSignalStoreCreateRejectsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	s := NewSignalStore()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := makeSignal(1, "5m", ts)
	require.NoError(t, s.Create(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	dup := makeSignal(1, "5m", ts)
	dup.Direction = models.DirectionDown
	assert.ErrorIs(t, s.Create(ctx, dup), repository.ErrDuplicateSignal)

	// same instant on another timeframe or symbol is a distinct signal
	require.NoError(t, s.Create(ctx, makeSignal(1, "15m", ts)))
	require.NoError(t, s.Create(ctx, makeSignal(2, "5m", ts)))
}

func TestSignalStoreGetByKeyReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewSignalStore()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, makeSignal(1, "5m", ts)))

	got, err := s.GetByKey(ctx, 1, "5m", ts)
	require.NoError(t, err)

	got.Direction = models.DirectionDown

	again, err := s.GetByKey(ctx, 1, "5m", ts)
	require.NoError(t, err)
	assert.Equal(t, models.DirectionUp, again.Direction)
}

func TestSignalStoreRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewSignalStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Create(ctx, makeSignal(1, "5m", base.Add(time.Duration(i)*5*time.Minute))))
	}

	recent, err := s.Recent(ctx, 1, "5m", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	for i := 1; i < len(recent); i++ {
		assert.True(t, recent[i].ID < recent[i-1].ID, "expected newest first")
	}

	count, err := s.Count(ctx, 1, "5m")
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestSignalStoreLatest(t *testing.T) {
	ctx := context.Background()
	s := NewSignalStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.Latest(ctx, 1, "5m")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Create(ctx, makeSignal(1, "5m", base)))
	last := makeSignal(1, "5m", base.Add(5*time.Minute))
	require.NoError(t, s.Create(ctx, last))

	got, err := s.Latest(ctx, 1, "5m")
	require.NoError(t, err)
	assert.Equal(t, last.ID, got.ID)
}

func TestSignalStoreConcurrentCreateSameKey(t *testing.T) {
	ctx := context.Background()
	s := NewSignalStore()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Create(ctx, makeSignal(1, "5m", ts))
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			assert.ErrorIs(t, err, repository.ErrDuplicateSignal)
		}
	}
	assert.Equal(t, 1, created)
}

func TestVerdictStoreLatestBySignals(t *testing.T) {
	ctx := context.Background()
	s := NewVerdictStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, &models.Verdict{SignalID: 1, Result: models.ResultLoss, SettledAt: base}))
	// later settlement overrides the first
	require.NoError(t, s.Append(ctx, &models.Verdict{SignalID: 1, Result: models.ResultWin, SettledAt: base.Add(time.Minute)}))
	require.NoError(t, s.Append(ctx, &models.Verdict{SignalID: 2, Result: models.ResultSkip, SettledAt: base}))

	latest, err := s.LatestBySignals(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, models.ResultWin, latest[1])
	assert.Equal(t, models.ResultSkip, latest[2])
	_, ok := latest[3]
	assert.False(t, ok, "unsettled signal must be absent")

	all, err := s.ListBySignal(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStatsStoreUpsert(t *testing.T) {
	ctx := context.Background()
	s := NewStatsStore()

	st := &models.RollingStats{SymbolID: 1, TF: "5m", Window: 200, Winrate: 0.5, TotalSignals: 10, Wins: 5, Losses: 5}
	require.NoError(t, s.Upsert(ctx, st))
	assert.NotZero(t, st.ID)
	assert.Equal(t, models.BreakEvenWinrate, st.BreakEvenRate)

	update := &models.RollingStats{SymbolID: 1, TF: "5m", Window: 200, Winrate: 0.6, TotalSignals: 11, Wins: 6, Losses: 4, Skips: 1}
	require.NoError(t, s.Upsert(ctx, update))
	assert.Equal(t, st.ID, update.ID, "same key must keep its row identity")

	got, err := s.Get(ctx, 1, "5m", 200)
	require.NoError(t, err)
	assert.Equal(t, 0.6, got.Winrate)
	assert.Equal(t, 6, got.Wins)

	// a different window is a separate row
	_, err = s.Get(ctx, 1, "5m", 100)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
