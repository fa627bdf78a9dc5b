package store

import (
	"context"
	"sync"

	"github.com/welltegra/welltegra-api/internal/dataset"
	"github.com/welltegra/welltegra-api/internal/toolstring"
)

// Compile-time contract assertion.
var _ toolstring.Store = (*Memory)(nil)

// Memory is a thread-safe in-memory record store. It backs the default
// local mode (seeded from a dataset file) and test fixtures. Replace swaps
// the whole dataset atomically, which is how the dataset watcher applies
// reloads.
type Memory struct {
	mu         sync.RWMutex
	runs       []toolstring.Run
	placements []toolstring.Placement
	byID       map[string]toolstring.Run
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]toolstring.Run)}
}

// MemoryFromDataset creates an in-memory store seeded from ds.
func MemoryFromDataset(ds dataset.Dataset) *Memory {
	m := NewMemory()
	m.Replace(ds)
	return m
}

// Replace swaps the store contents for the given dataset.
func (m *Memory) Replace(ds dataset.Dataset) {
	runs, placements := ds.Split()
	byID := make(map[string]toolstring.Run, len(runs))
	for _, r := range runs {
		byID[r.ID] = r
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = runs
	m.placements = placements
	m.byID = byID
}

// FetchRuns returns a copy of all run rows.
func (m *Memory) FetchRuns(ctx context.Context) ([]toolstring.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]toolstring.Run, len(m.runs))
	copy(out, m.runs)
	return out, nil
}

// FetchRun returns the run row with the given id, if present.
func (m *Memory) FetchRun(ctx context.Context, id string) (toolstring.Run, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.byID[id]
	return r, ok, nil
}

// FetchPlacements returns placement rows for the given run, or for all runs
// when runID is empty.
func (m *Memory) FetchPlacements(ctx context.Context, runID string) ([]toolstring.Placement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]toolstring.Placement, 0, len(m.placements))
	for _, p := range m.placements {
		if runID == "" || p.RunID == runID {
			out = append(out, p)
		}
	}
	return out, nil
}

// CountRuns returns the number of run rows held.
func (m *Memory) CountRuns(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs), nil
}

// Ping always succeeds: the in-memory store has nothing to reach.
func (m *Memory) Ping(ctx context.Context) error { return nil }
