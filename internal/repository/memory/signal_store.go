package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tradevision/internal/domain/models"
	"tradevision/internal/domain/repository"
)

// SignalStore is an in-memory implementation of repository.SignalStore.
// The byKey map enforces the same uniqueness invariant the relational
// constraint provides in production.
type SignalStore struct {
	mu     sync.RWMutex
	nextID int64
	byKey  map[string]*models.Signal
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{byKey: make(map[string]*models.Signal)}
}

// Compile-time interface check.
var _ repository.SignalStore = (*SignalStore)(nil)

func signalKey(symbolID int64, tf string, ts time.Time) string {
	return fmt.Sprintf("%d|%s|%d", symbolID, tf, ts.UnixMilli())
}

// Create inserts a new signal. Returns ErrDuplicateSignal on key collision.
func (s *SignalStore) Create(_ context.Context, sig *models.Signal) error {
	if sig == nil || sig.SymbolID == 0 || sig.TF == "" {
		return repository.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := signalKey(sig.SymbolID, sig.TF, sig.TS)
	if _, exists := s.byKey[key]; exists {
		return repository.ErrDuplicateSignal
	}

	s.nextID++
	sig.ID = s.nextID
	sig.CreatedAt = time.Now().UTC()

	// Store a copy to prevent external mutation
	sigCopy := *sig
	s.byKey[key] = &sigCopy
	return nil
}

// GetByKey retrieves a signal by its uniqueness key.
func (s *SignalStore) GetByKey(_ context.Context, symbolID int64, tf repository.Timeframe, ts time.Time) (*models.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.byKey[signalKey(symbolID, string(tf), ts)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sigCopy := *sig
	return &sigCopy, nil
}

// Latest returns the most recently created signal for (symbol, tf).
func (s *SignalStore) Latest(ctx context.Context, symbolID int64, tf repository.Timeframe) (*models.Signal, error) {
	recent, err := s.Recent(ctx, symbolID, tf, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, repository.ErrNotFound
	}
	return recent[0], nil
}

// Recent returns up to limit signals for (symbol, tf), newest first.
func (s *SignalStore) Recent(_ context.Context, symbolID int64, tf repository.Timeframe, limit int) ([]*models.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Signal
	for _, sig := range s.byKey {
		if sig.SymbolID == symbolID && sig.TF == string(tf) {
			sigCopy := *sig
			result = append(result, &sigCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Count returns the total number of stored signals for (symbol, tf).
func (s *SignalStore) Count(_ context.Context, symbolID int64, tf repository.Timeframe) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, sig := range s.byKey {
		if sig.SymbolID == symbolID && sig.TF == string(tf) {
			count++
		}
	}
	return count, nil
}
