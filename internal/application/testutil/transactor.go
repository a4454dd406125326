package testutil

import (
	"context"
	"sync"
)

// MockTransactor runs fn directly. It counts units of work and can fail the commit.
type MockTransactor struct {
	mu        sync.Mutex
	calls     int
	commitErr error
}

func NewMockTransactor() *MockTransactor {
	return &MockTransactor{}
}

func (m *MockTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.calls++
	commitErr := m.commitErr
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}
	return commitErr
}

func (m *MockTransactor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockTransactor) SetCommitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitErr = err
}
