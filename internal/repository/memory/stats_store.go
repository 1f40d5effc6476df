package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradevision/internal/domain/models"
	"tradevision/internal/domain/repository"
)

// StatsStore is an in-memory implementation of repository.StatsStore.
type StatsStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[string]*models.RollingStats
}

// NewStatsStore creates a new in-memory stats store.
func NewStatsStore() *StatsStore {
	return &StatsStore{rows: make(map[string]*models.RollingStats)}
}

// Compile-time interface check.
var _ repository.StatsStore = (*StatsStore)(nil)

func statsKey(symbolID int64, tf string, window int) string {
	return fmt.Sprintf("%d|%s|%d", symbolID, tf, window)
}

// Upsert writes the stats row for (symbol_id, tf, window).
func (s *StatsStore) Upsert(_ context.Context, st *models.RollingStats) error {
	if st == nil || st.SymbolID == 0 || st.TF == "" || st.Window <= 0 {
		return repository.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := statsKey(st.SymbolID, st.TF, st.Window)
	if existing, ok := s.rows[key]; ok {
		st.ID = existing.ID
		st.BreakEvenRate = existing.BreakEvenRate
	} else {
		s.nextID++
		st.ID = s.nextID
		if st.BreakEvenRate == 0 {
			st.BreakEvenRate = models.BreakEvenWinrate
		}
	}
	st.UpdatedAt = time.Now().UTC()

	stCopy := *st
	s.rows[key] = &stCopy
	return nil
}

// Get retrieves the stats row. Returns ErrNotFound if not exists.
func (s *StatsStore) Get(_ context.Context, symbolID int64, tf repository.Timeframe, window int) (*models.RollingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.rows[statsKey(symbolID, string(tf), window)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	stCopy := *st
	return &stCopy, nil
}
