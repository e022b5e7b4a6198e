package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"brainzzz/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	brains      map[string]model.BrainRecord
	populations map[string]model.PopulationRecord
	stats       map[string][]model.GenerationStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.brains = make(map[string]model.BrainRecord)
	s.populations = make(map[string]model.PopulationRecord)
	s.stats = make(map[string][]model.GenerationStats)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

// ListRuns returns runs oldest first.
func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *MemoryStore) SaveBrain(_ context.Context, brain model.BrainRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.brains[brain.ID] = brain
	return nil
}

func (s *MemoryStore) GetBrain(_ context.Context, id string) (model.BrainRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	brain, ok := s.brains[id]
	return brain, ok, nil
}

func (s *MemoryStore) SavePopulation(_ context.Context, population model.PopulationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	population.BrainIDs = append([]string(nil), population.BrainIDs...)
	s.populations[population.ID] = population
	return nil
}

func (s *MemoryStore) GetPopulation(_ context.Context, id string) (model.PopulationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	population, ok := s.populations[id]
	if ok {
		population.BrainIDs = append([]string(nil), population.BrainIDs...)
	}
	return population, ok, nil
}

func (s *MemoryStore) SaveGenerationStats(_ context.Context, runID string, stats []model.GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.stats[runID] = append([]model.GenerationStats(nil), stats...)
	return nil
}

func (s *MemoryStore) GetGenerationStats(_ context.Context, runID string) ([]model.GenerationStats, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.stats[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.GenerationStats(nil), stats...), true, nil
}

var errNotInitialized = errors.New("store is not initialized")

func sortRuns(runs []model.RunRecord) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})
}
