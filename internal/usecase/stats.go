package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tradevision/internal/domain/models"
	"tradevision/internal/domain/repository"
	applogger "tradevision/pkg/logger"
	"tradevision/pkg/metrics"
)

// DefaultWindow is the rolling window size used when none is requested.
const DefaultWindow = 200

// StatsAggregator recomputes rolling win/loss statistics per
// (symbol, timeframe, window). Recomputation is a deterministic fold over
// stored history, so it is idempotent; same-key runs are serialized with a
// per-key mutex to avoid interleaved read-then-write cycles.
type StatsAggregator struct {
	signals  repository.SignalStore
	verdicts repository.VerdictStore
	stats    repository.StatsStore
	logger   *applogger.Logger
	recorder *metrics.Recorder

	locks sync.Map // "symbolID|tf" -> *sync.Mutex
}

// NewStatsAggregator creates a stats aggregator.
func NewStatsAggregator(
	signals repository.SignalStore,
	verdicts repository.VerdictStore,
	stats repository.StatsStore,
	l *applogger.Logger,
	rec *metrics.Recorder,
) *StatsAggregator {
	return &StatsAggregator{
		signals:  signals,
		verdicts: verdicts,
		stats:    stats,
		logger:   l,
		recorder: rec,
	}
}

func (a *StatsAggregator) keyLock(symbolID int64, tf repository.Timeframe) *sync.Mutex {
	key := fmt.Sprintf("%d|%s", symbolID, tf)
	mu, _ := a.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Update recomputes the rolling stats row for (symbol, tf, window) from the
// most recent signals and their latest verdicts.
func (a *StatsAggregator) Update(ctx context.Context, symbol *models.Symbol, tf repository.Timeframe, window int) (*models.RollingStats, error) {
	if window <= 0 {
		window = DefaultWindow
	}

	mu := a.keyLock(symbol.ID, tf)
	mu.Lock()
	defer mu.Unlock()

	recent, err := a.signals.Recent(ctx, symbol.ID, tf, window)
	if err != nil {
		return nil, fmt.Errorf("fetch recent signals: %w", err)
	}

	ids := make([]int64, 0, len(recent))
	for _, sig := range recent {
		ids = append(ids, sig.ID)
	}

	latest, err := a.verdicts.LatestBySignals(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch latest verdicts: %w", err)
	}

	var wins, losses, skips int
	for _, id := range ids {
		switch latest[id] {
		case models.ResultWin:
			wins++
		case models.ResultLoss:
			losses++
		case models.ResultSkip:
			skips++
		}
	}

	// Skips and unsettled signals are counted but do not dilute the rate:
	// only decided trades move it.
	var winrate float64
	if decided := wins + losses; decided > 0 {
		winrate = float64(wins) / float64(decided)
	}

	st := &models.RollingStats{
		SymbolID:     symbol.ID,
		TF:           string(tf),
		Window:       window,
		Winrate:      winrate,
		TotalSignals: len(recent),
		Wins:         wins,
		Losses:       losses,
		Skips:        skips,
	}

	if err := a.stats.Upsert(ctx, st); err != nil {
		return nil, fmt.Errorf("upsert stats: %w", err)
	}

	if a.recorder != nil {
		a.recorder.RecordWinrate(symbol.Name, string(tf), winrate)
	}

	a.logger.Debug("rolling stats updated",
		applogger.String("symbol", symbol.Name),
		applogger.String("tf", string(tf)),
		applogger.Int("window", window),
		applogger.Float64("winrate", winrate),
		applogger.Int("total", len(recent)),
	)

	return st, nil
}

// View returns the public stats payload for (symbol, tf, window), computing
// the row on demand when it does not exist yet.
func (a *StatsAggregator) View(ctx context.Context, symbol *models.Symbol, tf repository.Timeframe, window int) (*models.StatsView, error) {
	if window <= 0 {
		window = DefaultWindow
	}

	st, err := a.stats.Get(ctx, symbol.ID, tf, window)
	if errors.Is(err, repository.ErrNotFound) {
		st, err = a.Update(ctx, symbol, tf, window)
	}
	if err != nil {
		return nil, err
	}

	total, err := a.signals.Count(ctx, symbol.ID, tf)
	if err != nil {
		return nil, fmt.Errorf("count signals: %w", err)
	}

	return &models.StatsView{
		Symbol:       symbol.Name,
		TF:           string(tf),
		WinrateLastN: st.Winrate,
		N:            st.Window,
		BreakEvenAt:  st.BreakEvenRate,
		SignalsCount: total,
		Wins:         st.Wins,
		Losses:       st.Losses,
		Skips:        st.Skips,
		UpdatedAt:    st.UpdatedAt,
	}, nil
}
