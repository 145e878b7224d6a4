package delivery

import (
	"context"
	"sync"
)

// memoryStateStore is an in-process StateStore with the same commit rule.
type memoryStateStore struct {
	mu          sync.Mutex
	generations map[string]int64
	states      map[string]State
}

func newMemoryStateStore() *memoryStateStore {
	return &memoryStateStore{
		generations: map[string]int64{},
		states:      map[string]State{},
	}
}

func (m *memoryStateStore) NextGeneration(_ context.Context, sessionID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[sessionID]++
	return m.generations[sessionID], nil
}

func (m *memoryStateStore) Commit(_ context.Context, sessionID string, state State) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generations[sessionID] != state.Generation {
		return false, nil
	}
	m.states[sessionID] = state
	return true, nil
}

func (m *memoryStateStore) Load(_ context.Context, sessionID string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[sessionID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (m *memoryStateStore) Invalidate(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[sessionID]++
	delete(m.states, sessionID)
	return nil
}
