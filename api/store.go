package api

import (
	"sync"

	"github.com/gregtusar/pairs/pkg/models"
)

type runEntry struct {
	id     string
	result *models.RunResult
}

// runStore keeps completed backtests in memory in creation order.
type runStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*models.RunResult
}

func newRunStore() *runStore {
	return &runStore{byID: make(map[string]*models.RunResult)}
}

func (s *runStore) put(id string, result *models.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[id]; !exists {
		s.order = append(s.order, id)
	}
	s.byID[id] = result
}

func (s *runStore) get(id string) (*models.RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	return r, ok
}

func (s *runStore) list() []runEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]runEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, runEntry{id: id, result: s.byID[id]})
	}
	return out
}
