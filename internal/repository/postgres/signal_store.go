package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tradevision/internal/domain/models"
	"tradevision/internal/domain/repository"
)

// SignalStore implements repository.SignalStore using PostgreSQL. Signals
// are append-only; there is deliberately no update or delete path.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ repository.SignalStore = (*SignalStore)(nil)

const signalColumns = `s.id, s.symbol_id, sym.name, s.tf, s.ts, s.direction, s.enter_at, s.expire_at, s.created_at`

// Create inserts a new signal. The unique_signal constraint is the
// authoritative duplicate guard: a concurrent writer losing the race gets
// ErrDuplicateSignal, never a fatal error.
func (s *SignalStore) Create(ctx context.Context, sig *models.Signal) error {
	query := `
		INSERT INTO signals (symbol_id, tf, ts, direction, enter_at, expire_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := s.pool.QueryRow(ctx, query,
		sig.SymbolID,
		sig.TF,
		sig.TS,
		string(sig.Direction),
		sig.EnterAt,
		sig.ExpireAt,
	).Scan(&sig.ID, &sig.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return repository.ErrDuplicateSignal
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// GetByKey retrieves a signal by its uniqueness key.
func (s *SignalStore) GetByKey(ctx context.Context, symbolID int64, tf repository.Timeframe, ts time.Time) (*models.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals s
		JOIN symbols sym ON sym.id = s.symbol_id
		WHERE s.symbol_id = $1 AND s.tf = $2 AND s.ts = $3
	`

	sig, err := scanSignal(s.pool.QueryRow(ctx, query, symbolID, string(tf), ts))
	if err != nil {
		if isNotFoundError(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get signal by key: %w", err)
	}
	return sig, nil
}

// Latest returns the most recently created signal for (symbol, tf).
func (s *SignalStore) Latest(ctx context.Context, symbolID int64, tf repository.Timeframe) (*models.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals s
		JOIN symbols sym ON sym.id = s.symbol_id
		WHERE s.symbol_id = $1 AND s.tf = $2
		ORDER BY s.created_at DESC
		LIMIT 1
	`

	sig, err := scanSignal(s.pool.QueryRow(ctx, query, symbolID, string(tf)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get latest signal: %w", err)
	}
	return sig, nil
}

// Recent returns up to limit signals for (symbol, tf), newest first.
func (s *SignalStore) Recent(ctx context.Context, symbolID int64, tf repository.Timeframe, limit int) ([]*models.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals s
		JOIN symbols sym ON sym.id = s.symbol_id
		WHERE s.symbol_id = $1 AND s.tf = $2
		ORDER BY s.created_at DESC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, symbolID, string(tf), limit)
	if err != nil {
		return nil, fmt.Errorf("get recent signals: %w", err)
	}
	defer rows.Close()

	var signals []*models.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal rows: %w", err)
	}
	return signals, nil
}

// Count returns the total number of stored signals for (symbol, tf).
func (s *SignalStore) Count(ctx context.Context, symbolID int64, tf repository.Timeframe) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM signals
		WHERE symbol_id = $1 AND tf = $2
	`

	var count int64
	if err := s.pool.QueryRow(ctx, query, symbolID, string(tf)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	return count, nil
}

// scanSignal scans a single row into a Signal.
func scanSignal(row pgx.Row) (*models.Signal, error) {
	var sig models.Signal
	var direction string

	err := row.Scan(
		&sig.ID,
		&sig.SymbolID,
		&sig.Symbol,
		&sig.TF,
		&sig.TS,
		&direction,
		&sig.EnterAt,
		&sig.ExpireAt,
		&sig.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	sig.Direction = models.Direction(direction)
	return &sig, nil
}
