package postgres

import (
	"context"
	"fmt"

	"tradevision/internal/domain/models"
	"tradevision/internal/domain/repository"
)

// VerdictStore implements repository.VerdictStore using PostgreSQL.
// Verdicts are append-only; re-settlement adds a row rather than updating.
type VerdictStore struct {
	pool *Pool
}

// NewVerdictStore creates a new VerdictStore.
func NewVerdictStore(pool *Pool) *VerdictStore {
	return &VerdictStore{pool: pool}
}

// Compile-time interface check.
var _ repository.VerdictStore = (*VerdictStore)(nil)

// Append records a verdict for a signal.
func (s *VerdictStore) Append(ctx context.Context, v *models.Verdict) error {
	query := `
		INSERT INTO verdicts (signal_id, result)
		VALUES ($1, $2)
		RETURNING id, settled_at
	`

	err := s.pool.QueryRow(ctx, query, v.SignalID, string(v.Result)).
		Scan(&v.ID, &v.SettledAt)
	if err != nil {
		return fmt.Errorf("insert verdict: %w", err)
	}
	return nil
}

// ListBySignal returns all verdicts for a signal, oldest first.
func (s *VerdictStore) ListBySignal(ctx context.Context, signalID int64) ([]*models.Verdict, error) {
	query := `
		SELECT id, signal_id, result, settled_at
		FROM verdicts
		WHERE signal_id = $1
		ORDER BY settled_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, signalID)
	if err != nil {
		return nil, fmt.Errorf("list verdicts: %w", err)
	}
	defer rows.Close()

	var verdicts []*models.Verdict
	for rows.Next() {
		var v models.Verdict
		var result string
		if err := rows.Scan(&v.ID, &v.SignalID, &result, &v.SettledAt); err != nil {
			return nil, fmt.Errorf("scan verdict row: %w", err)
		}
		v.Result = models.VerdictResult(result)
		verdicts = append(verdicts, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdict rows: %w", err)
	}
	return verdicts, nil
}

// LatestBySignals returns the latest verdict result per signal ID.
func (s *VerdictStore) LatestBySignals(ctx context.Context, signalIDs []int64) (map[int64]models.VerdictResult, error) {
	results := make(map[int64]models.VerdictResult, len(signalIDs))
	if len(signalIDs) == 0 {
		return results, nil
	}

	query := `
		SELECT DISTINCT ON (signal_id) signal_id, result
		FROM verdicts
		WHERE signal_id = ANY($1)
		ORDER BY signal_id, settled_at DESC, id DESC
	`

	rows, err := s.pool.Query(ctx, query, signalIDs)
	if err != nil {
		return nil, fmt.Errorf("latest verdicts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var signalID int64
		var result string
		if err := rows.Scan(&signalID, &result); err != nil {
			return nil, fmt.Errorf("scan verdict row: %w", err)
		}
		results[signalID] = models.VerdictResult(result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdict rows: %w", err)
	}
	return results, nil
}
