package mocks

import "sync"

// MockNavigator implements flow.Navigator and records every navigation.
type MockNavigator struct {
	// NavigateFunc, when set, is called after the navigation is recorded.
	NavigateFunc func(path string)

	paths []string
	mu    sync.Mutex
}

// NewMockNavigator creates a navigator that only records.
func NewMockNavigator() *MockNavigator {
	return &MockNavigator{}
}

// Navigate implements flow.Navigator.
func (m *MockNavigator) Navigate(path string) {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	fn := m.NavigateFunc
	m.mu.Unlock()

	if fn != nil {
		fn(path)
	}
}

// Paths returns a copy of the recorded navigations in order.
func (m *MockNavigator) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.paths))
	copy(out, m.paths)
	return out
}

// Count returns how many navigations were recorded.
func (m *MockNavigator) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.paths)
}
