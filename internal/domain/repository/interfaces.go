package repository

import (
	"context"
	"time"

	"tradevision/internal/domain/models"
)

// SymbolStore provides access to the symbol registry.
type SymbolStore interface {
	// GetOrCreate resolves a symbol by name, lazily creating it. The upsert
	// is race-safe: on a concurrent create the existing row is re-fetched.
	GetOrCreate(ctx context.Context, name string) (*models.Symbol, error)

	// GetByName retrieves a symbol. Returns ErrNotFound if not exists.
	GetByName(ctx context.Context, name string) (*models.Symbol, error)

	// List returns all known symbols ordered by name.
	List(ctx context.Context) ([]*models.Symbol, error)
}

// SignalStore provides access to the append-only signal record.
type SignalStore interface {
	// Create inserts a new signal and sets its ID and CreatedAt. Returns
	// ErrDuplicateSignal if (symbol_id, tf, ts) already exists. Signals are
	// never updated or deleted.
	Create(ctx context.Context, s *models.Signal) error

	// GetByKey retrieves a signal by its uniqueness key. Returns ErrNotFound
	// if not exists.
	GetByKey(ctx context.Context, symbolID int64, tf Timeframe, ts time.Time) (*models.Signal, error)

	// Latest returns the most recently created signal for (symbol, tf).
	// Returns ErrNotFound if none exists.
	Latest(ctx context.Context, symbolID int64, tf Timeframe) (*models.Signal, error)

	// Recent returns up to limit signals for (symbol, tf), newest first.
	Recent(ctx context.Context, symbolID int64, tf Timeframe, limit int) ([]*models.Signal, error)

	// Count returns the total number of stored signals for (symbol, tf).
	Count(ctx context.Context, symbolID int64, tf Timeframe) (int64, error)
}

// VerdictStore provides access to append-only settlement records.
type VerdictStore interface {
	// Append records a verdict for a signal and sets its ID and SettledAt.
	Append(ctx context.Context, v *models.Verdict) error

	// ListBySignal returns all verdicts for a signal, oldest first.
	ListBySignal(ctx context.Context, signalID int64) ([]*models.Verdict, error)

	// LatestBySignals returns the latest verdict result per signal ID.
	// Signals with no verdict are absent from the map.
	LatestBySignals(ctx context.Context, signalIDs []int64) (map[int64]models.VerdictResult, error)
}

// StatsStore provides access to derived rolling statistics.
type StatsStore interface {
	// Upsert writes the stats row for (symbol_id, tf, window), replacing any
	// previous counts. Last writer wins.
	Upsert(ctx context.Context, s *models.RollingStats) error

	// Get retrieves the stats row. Returns ErrNotFound if not exists.
	Get(ctx context.Context, symbolID int64, tf Timeframe, window int) (*models.RollingStats, error)
}
