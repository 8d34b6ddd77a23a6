package job

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/store"
)

// MockStore is an in-memory implementation of Store for testing.
type MockStore struct {
	mu    sync.Mutex
	jobs  map[uuid.UUID]*Job
	snaps map[uuid.UUID]Snapshot

	// TerminalCommits counts CommitTerminal calls, for asserting that a
	// terminal state is committed exactly once.
	TerminalCommits int

	// Error, when set, is returned by every method.
	Error error
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		jobs:  make(map[uuid.UUID]*Job),
		snaps: make(map[uuid.UUID]Snapshot),
	}
}

// Create implements Store.
func (m *MockStore) Create(_ context.Context, j *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Error != nil {
		return m.Error
	}
	m.jobs[j.ID] = j
	m.snaps[j.ID] = NewSnapshot(j)
	return nil
}

// UpdateSnapshot implements Store.
func (m *MockStore) UpdateSnapshot(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Error != nil {
		return m.Error
	}
	m.snaps[snap.JobID] = snap
	return nil
}

// CommitTerminal implements Store.
func (m *MockStore) CommitTerminal(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Error != nil {
		return m.Error
	}
	if existing, ok := m.snaps[snap.JobID]; ok && existing.Status.Terminal() {
		return ErrInvalidTransition
	}
	m.snaps[snap.JobID] = snap
	m.TerminalCommits++
	return nil
}

// GetJob implements Store.
func (m *MockStore) GetJob(_ context.Context, id uuid.UUID) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Error != nil {
		return nil, m.Error
	}
	j, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return j, nil
}

// GetSnapshot implements Store.
func (m *MockStore) GetSnapshot(_ context.Context, id uuid.UUID) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Error != nil {
		return Snapshot{}, m.Error
	}
	snap, ok := m.snaps[id]
	if !ok {
		return Snapshot{}, store.ErrJobNotFound
	}
	return snap, nil
}

// ListInterrupted implements Store.
func (m *MockStore) ListInterrupted(_ context.Context) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Error != nil {
		return nil, m.Error
	}
	var interrupted []Snapshot
	for _, snap := range m.snaps {
		if !snap.Status.Terminal() {
			interrupted = append(interrupted, snap)
		}
	}
	sort.Slice(interrupted, func(i, j int) bool {
		if !interrupted[i].CreatedAt.Equal(interrupted[j].CreatedAt) {
			return interrupted[i].CreatedAt.Before(interrupted[j].CreatedAt)
		}
		return interrupted[i].JobID.String() < interrupted[j].JobID.String()
	})
	return interrupted, nil
}

// WithTx implements Store. The mock ignores transactions.
func (m *MockStore) WithTx(_ *sql.Tx) Store {
	return m
}
