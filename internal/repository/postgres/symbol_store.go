package postgres

import (
	"context"
	"fmt"
	"strings"

	"tradevision/internal/domain/models"
	"tradevision/internal/domain/repository"
)

// SymbolStore implements repository.SymbolStore using PostgreSQL.
type SymbolStore struct {
	pool *Pool
}

// NewSymbolStore creates a new SymbolStore.
func NewSymbolStore(pool *Pool) *SymbolStore {
	return &SymbolStore{pool: pool}
}

// Compile-time interface check.
var _ repository.SymbolStore = (*SymbolStore)(nil)

// GetOrCreate resolves a symbol by name, lazily creating it. ON CONFLICT DO
// NOTHING keeps the insert race-safe: the loser of a concurrent create falls
// through to the select.
func (s *SymbolStore) GetOrCreate(ctx context.Context, name string) (*models.Symbol, error) {
	name = strings.ToUpper(name)

	query := `
		INSERT INTO symbols (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, name); err != nil {
		return nil, fmt.Errorf("insert symbol: %w", err)
	}

	return s.GetByName(ctx, name)
}

// GetByName retrieves a symbol. Returns ErrNotFound if not exists.
func (s *SymbolStore) GetByName(ctx context.Context, name string) (*models.Symbol, error) {
	query := `
		SELECT id, name, created_at
		FROM symbols
		WHERE name = $1
	`

	var sym models.Symbol
	err := s.pool.QueryRow(ctx, query, strings.ToUpper(name)).
		Scan(&sym.ID, &sym.Name, &sym.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get symbol by name: %w", err)
	}
	return &sym, nil
}

// List returns all known symbols ordered by name.
func (s *SymbolStore) List(ctx context.Context) ([]*models.Symbol, error) {
	query := `
		SELECT id, name, created_at
		FROM symbols
		ORDER BY name ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	var symbols []*models.Symbol
	for rows.Next() {
		var sym models.Symbol
		if err := rows.Scan(&sym.ID, &sym.Name, &sym.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		symbols = append(symbols, &sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbol rows: %w", err)
	}
	return symbols, nil
}
