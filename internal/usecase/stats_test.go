package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradevision/internal/domain/models"
	"tradevision/internal/repository/memory"
	applogger "tradevision/pkg/logger"
)

type statsFixture struct {
	agg      *StatsAggregator
	symbols  *memory.SymbolStore
	signals  *memory.SignalStore
	verdicts *memory.VerdictStore
	stats    *memory.StatsStore
}

func newStatsFixture(t *testing.T) *statsFixture {
	t.Helper()

	f := &statsFixture{
		symbols:  memory.NewSymbolStore(),
		signals:  memory.NewSignalStore(),
		verdicts: memory.NewVerdictStore(),
		stats:    memory.NewStatsStore(),
	}
	f.agg = NewStatsAggregator(f.signals, f.verdicts, f.stats, applogger.Nop(), testRecorder)
	return f
}

// seed creates n signals for (symbol, 5m) and settles them per results;
// empty string means unsettled. Returns signal IDs oldest first.
func (f *statsFixture) seed(t *testing.T, symbol *models.Symbol, results []models.VerdictResult) []int64 {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ids := make([]int64, 0, len(results))
	for i, res := range results {
		sig := &models.Signal{
			SymbolID:  symbol.ID,
			Symbol:    symbol.Name,
			TF:        "5m",
			TS:        base.Add(time.Duration(i) * 5 * time.Minute),
			Direction: models.DirectionUp,
			EnterAt:   base.Add(time.Duration(i)*5*time.Minute + time.Minute),
			ExpireAt:  base.Add(time.Duration(i)*5*time.Minute + 6*time.Minute),
		}
		require.NoError(t, f.signals.Create(ctx, sig))
		ids = append(ids, sig.ID)

		if res != "" {
			require.NoError(t, f.verdicts.Append(ctx, &models.Verdict{SignalID: sig.ID, Result: res}))
		}
	}
	return ids
}

func TestUpdateComputesWinrate(t *testing.T) {
	ctx := context.Background()
	f := newStatsFixture(t)
	symbol, err := f.symbols.GetOrCreate(ctx, "BTCUSDT")
	require.NoError(t, err)

	// 6 wins, 3 losses, 1 skip over 10 signals
	f.seed(t, symbol, []models.VerdictResult{
		models.ResultWin, models.ResultWin, models.ResultWin,
		models.ResultWin, models.ResultWin, models.ResultWin,
		models.ResultLoss, models.ResultLoss, models.ResultLoss,
		models.ResultSkip,
	})

	st, err := f.agg.Update(ctx, symbol, "5m", 200)
	require.NoError(t, err)

	assert.Equal(t, 10, st.TotalSignals)
	assert.Equal(t, 6, st.Wins)
	assert.Equal(t, 3, st.Losses)
	assert.Equal(t, 1, st.Skips)
	assert.InDelta(t, 6.0/9.0, st.Winrate, 1e-9, "skips must not dilute the rate")
}

func TestUpdateCountsUnsettledWithoutDiluting(t *testing.T) {
	ctx := context.Background()
	f := newStatsFixture(t)
	symbol, err := f.symbols.GetOrCreate(ctx, "BTCUSDT")
	require.NoError(t, err)

	f.seed(t, symbol, []models.VerdictResult{
		models.ResultWin, models.ResultWin, models.ResultLoss, "", "",
	})

	st, err := f.agg.Update(ctx, symbol, "5m", 200)
	require.NoError(t, err)

	assert.Equal(t, 5, st.TotalSignals)
	assert.Equal(t, 2, st.Wins)
	assert.Equal(t, 1, st.Losses)
	assert.Zero(t, st.Skips)
	assert.InDelta(t, 2.0/3.0, st.Winrate, 1e-9)
}

func TestUpdateZeroWinrateWhenNothingDecided(t *testing.T) {
	ctx := context.Background()
	f := newStatsFixture(t)
	symbol, err := f.symbols.GetOrCreate(ctx, "BTCUSDT")
	require.NoError(t, err)

	f.seed(t, symbol, []models.VerdictResult{models.ResultSkip, "", ""})

	st, err := f.agg.Update(ctx, symbol, "5m", 200)
	require.NoError(t, err)
	assert.Zero(t, st.Winrate)
	assert.Equal(t, 3, st.TotalSignals)
	assert.Equal(t, 1, st.Skips)
}

func TestUpdateHonorsWindow(t *testing.T) {
	ctx := context.Background()
	f := newStatsFixture(t)
	symbol, err := f.symbols.GetOrCreate(ctx, "BTCUSDT")
	require.NoError(t, err)

	// oldest three win, newest five lose; a window of 5 sees only losses
	f.seed(t, symbol, []models.VerdictResult{
		models.ResultWin, models.ResultWin, models.ResultWin,
		models.ResultLoss, models.ResultLoss, models.ResultLoss,
		models.ResultLoss, models.ResultLoss,
	})

	st, err := f.agg.Update(ctx, symbol, "5m", 5)
	require.NoError(t, err)

	assert.Equal(t, 5, st.TotalSignals)
	assert.Zero(t, st.Wins)
	assert.Equal(t, 5, st.Losses)
	assert.Zero(t, st.Winrate)
}

func TestUpdateLatestVerdictWins(t *testing.T) {
	ctx := context.Background()
	f := newStatsFixture(t)
	symbol, err := f.symbols.GetOrCreate(ctx, "BTCUSDT")
	require.NoError(t, err)

	ids := f.seed(t, symbol, []models.VerdictResult{models.ResultLoss})

	// re-settlement flips the outcome; only the latest verdict counts
	require.NoError(t, f.verdicts.Append(ctx, &models.Verdict{
		SignalID:  ids[0],
		Result:    models.ResultWin,
		SettledAt: time.Now().Add(time.Minute),
	}))

	st, err := f.agg.Update(ctx, symbol, "5m", 200)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Wins)
	assert.Zero(t, st.Losses)
	assert.InDelta(t, 1.0, st.Winrate, 1e-9)
}

func TestUpdateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newStatsFixture(t)
	symbol, err := f.symbols.GetOrCreate(ctx, "BTCUSDT")
	require.NoError(t, err)

	f.seed(t, symbol, []models.VerdictResult{models.ResultWin, models.ResultLoss})

	first, err := f.agg.Update(ctx, symbol, "5m", 200)
	require.NoError(t, err)
	second, err := f.agg.Update(ctx, symbol, "5m", 200)
	require.NoError(t, err)

	assert.Equal(t, first.Wins, second.Wins)
	assert.Equal(t, first.Losses, second.Losses)
	assert.Equal(t, first.Winrate, second.Winrate)
	assert.Equal(t, first.ID, second.ID)
}

func TestViewComputesOnDemand(t *testing.T) {
	ctx := context.Background()
	f := newStatsFixture(t)
	symbol, err := f.symbols.GetOrCreate(ctx, "BTCUSDT")
	require.NoError(t, err)

	f.seed(t, symbol, []models.VerdictResult{models.ResultWin, models.ResultWin, models.ResultLoss})

	// no Update was ever run for this key
	view, err := f.agg.View(ctx, symbol, "5m", 200)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", view.Symbol)
	assert.Equal(t, "5m", view.TF)
	assert.Equal(t, 200, view.N)
	assert.InDelta(t, 2.0/3.0, view.WinrateLastN, 1e-9)
	assert.Equal(t, models.BreakEvenWinrate, view.BreakEvenAt)
	assert.Equal(t, int64(3), view.SignalsCount)
}
