package memory

import (
	"context"
	"sync"
	"time"

	"tradevision/internal/domain/models"
	"tradevision/internal/domain/repository"
)

// VerdictStore is an in-memory implementation of repository.VerdictStore.
type VerdictStore struct {
	mu       sync.RWMutex
	nextID   int64
	bySignal map[int64][]*models.Verdict
}

// NewVerdictStore creates a new in-memory verdict store.
func NewVerdictStore() *VerdictStore {
	return &VerdictStore{bySignal: make(map[int64][]*models.Verdict)}
}

// Compile-time interface check.
var _ repository.VerdictStore = (*VerdictStore)(nil)

// Append records a verdict for a signal.
func (s *VerdictStore) Append(_ context.Context, v *models.Verdict) error {
	if v == nil || v.SignalID == 0 {
		return repository.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	v.ID = s.nextID
	if v.SettledAt.IsZero() {
		v.SettledAt = time.Now().UTC()
	}

	vCopy := *v
	s.bySignal[v.SignalID] = append(s.bySignal[v.SignalID], &vCopy)
	return nil
}

// ListBySignal returns all verdicts for a signal, oldest first.
func (s *VerdictStore) ListBySignal(_ context.Context, signalID int64) ([]*models.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	verdicts := s.bySignal[signalID]
	result := make([]*models.Verdict, 0, len(verdicts))
	for _, v := range verdicts {
		vCopy := *v
		result = append(result, &vCopy)
	}
	return result, nil
}

// LatestBySignals returns the latest verdict result per signal ID.
func (s *VerdictStore) LatestBySignals(_ context.Context, signalIDs []int64) (map[int64]models.VerdictResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[int64]models.VerdictResult, len(signalIDs))
	for _, id := range signalIDs {
		verdicts := s.bySignal[id]
		if len(verdicts) == 0 {
			continue
		}
		latest := verdicts[0]
		for _, v := range verdicts[1:] {
			if v.SettledAt.After(latest.SettledAt) ||
				(v.SettledAt.Equal(latest.SettledAt) && v.ID > latest.ID) {
				latest = v
			}
		}
		results[id] = latest.Result
	}
	return results, nil
}
