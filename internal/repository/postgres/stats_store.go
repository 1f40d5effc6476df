package postgres

import (
	"context"
	"fmt"

	"tradevision/internal/domain/models"
	"tradevision/internal/domain/repository"
)

// StatsStore implements repository.StatsStore using PostgreSQL.
type StatsStore struct {
	pool *Pool
}

// NewStatsStore creates a new StatsStore.
func NewStatsStore(pool *Pool) *StatsStore {
	return &StatsStore{pool: pool}
}

// Compile-time interface check.
var _ repository.StatsStore = (*StatsStore)(nil)

// Upsert writes the stats row for (symbol_id, tf, window). Stats are a
// deterministic fold over stored history, so last-writer-wins is safe.
func (s *StatsStore) Upsert(ctx context.Context, st *models.RollingStats) error {
	query := `
		INSERT INTO stats_rolling (symbol_id, tf, "window", winrate, total_signals, wins, losses, skips, break_even)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol_id, tf, "window") DO UPDATE SET
			winrate       = EXCLUDED.winrate,
			total_signals = EXCLUDED.total_signals,
			wins          = EXCLUDED.wins,
			losses        = EXCLUDED.losses,
			skips         = EXCLUDED.skips,
			updated_at    = now()
		RETURNING id, updated_at
	`

	breakEven := st.BreakEvenRate
	if breakEven == 0 {
		breakEven = models.BreakEvenWinrate
	}

	err := s.pool.QueryRow(ctx, query,
		st.SymbolID,
		st.TF,
		st.Window,
		st.Winrate,
		st.TotalSignals,
		st.Wins,
		st.Losses,
		st.Skips,
		breakEven,
	).Scan(&st.ID, &st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert rolling stats: %w", err)
	}
	st.BreakEvenRate = breakEven
	return nil
}

// Get retrieves the stats row. Returns ErrNotFound if not exists.
func (s *StatsStore) Get(ctx context.Context, symbolID int64, tf repository.Timeframe, window int) (*models.RollingStats, error) {
	query := `
		SELECT id, symbol_id, tf, "window", winrate, total_signals, wins, losses, skips, break_even, updated_at
		FROM stats_rolling
		WHERE symbol_id = $1 AND tf = $2 AND "window" = $3
	`

	var st models.RollingStats
	err := s.pool.QueryRow(ctx, query, symbolID, string(tf), window).Scan(
		&st.ID,
		&st.SymbolID,
		&st.TF,
		&st.Window,
		&st.Winrate,
		&st.TotalSignals,
		&st.Wins,
		&st.Losses,
		&st.Skips,
		&st.BreakEvenRate,
		&st.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get rolling stats: %w", err)
	}
	return &st, nil
}
