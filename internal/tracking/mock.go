package tracking

import (
	"context"
	"sync"

	"github.com/ayusman/thumbstick/internal/hand"
)

// MockSource is a Source driven by the test through Push.
type MockSource struct {
	hub

	mu       sync.Mutex
	startErr error
	running  bool
	starts   int
	stops    int
}

// NewMockSource returns a stopped mock source.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// FailStart makes Start return err.
func (m *MockSource) FailStart(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	if !m.running {
		m.running = true
		m.starts++
	}
	return nil
}

func (m *MockSource) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		m.running = false
		m.stops++
	}
}

// Push delivers u to subscribers synchronously when running.
func (m *MockSource) Push(u hand.Update) {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()
	if running {
		m.publish(u)
	}
}

// Running reports whether the source is started.
func (m *MockSource) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Starts and Stops count effective state changes.
func (m *MockSource) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

func (m *MockSource) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}
