package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tradevision/internal/domain/models"
	"tradevision/internal/domain/repository"
)

// SymbolStore is an in-memory implementation of repository.SymbolStore.
type SymbolStore struct {
	mu     sync.RWMutex
	nextID int64
	byName map[string]*models.Symbol
}

// NewSymbolStore creates a new in-memory symbol store.
func NewSymbolStore() *SymbolStore {
	return &SymbolStore{byName: make(map[string]*models.Symbol)}
}

// Compile-time interface check.
var _ repository.SymbolStore = (*SymbolStore)(nil)

// GetOrCreate resolves a symbol by name, lazily creating it.
func (s *SymbolStore) GetOrCreate(_ context.Context, name string) (*models.Symbol, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return nil, repository.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sym, ok := s.byName[name]; ok {
		symCopy := *sym
		return &symCopy, nil
	}

	s.nextID++
	sym := &models.Symbol{
		ID:        s.nextID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.byName[name] = sym

	symCopy := *sym
	return &symCopy, nil
}

// GetByName retrieves a symbol. Returns ErrNotFound if not exists.
func (s *SymbolStore) GetByName(_ context.Context, name string) (*models.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sym, ok := s.byName[strings.ToUpper(name)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	symCopy := *sym
	return &symCopy, nil
}

// List returns all known symbols ordered by name.
func (s *SymbolStore) List(_ context.Context) ([]*models.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Symbol, 0, len(s.byName))
	for _, sym := range s.byName {
		symCopy := *sym
		result = append(result, &symCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}
