package collector

import (
	"context"
	"sync"

	"NavSentinel/internal/model"
)

// FetchCall records one invocation of MockSource.
type FetchCall struct {
	Key  Key
	From model.Date
	To   model.Date
}

// MockSource serves points from an in-memory series for development and
// testing. Only points inside the requested window are returned.
type MockSource struct {
	mu     sync.Mutex
	Series map[string]model.Series // keyed by Key.String()
	Err    error
	calls  []FetchCall
}

// NewMockSource creates an empty mock.
func NewMockSource() *MockSource {
	return &MockSource{Series: map[string]model.Series{}}
}

func (m *MockSource) Name() string { return "mock" }

// Set replaces the data served for key.
func (m *MockSource) Set(key Key, s model.Series) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Series[key.String()] = s
}

func (m *MockSource) Fetch(_ context.Context, key Key, from, to model.Date) ([]model.Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, FetchCall{Key: key, From: from, To: to})
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Series[key.String()].Between(from, to), nil
}

// Calls returns a copy of the recorded invocations.
func (m *MockSource) Calls() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FetchCall(nil), m.calls...)
}

// Reset clears the call log.
func (m *MockSource) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
