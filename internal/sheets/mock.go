package sheets

import (
	"context"
	"sync"
)

// MockWriter records Write calls for tests.
type MockWriter struct {
	WriteFunc  func(ctx context.Context, data *ReportData) error
	LastData   *ReportData
	WriteCalls []WriteCall
	mu         sync.Mutex
}

// WriteCall is one recorded call to Write.
type WriteCall struct {
	Error error
	Data  *ReportData
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements ReportWriter.
func (m *MockWriter) Write(ctx context.Context, data *ReportData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastData = data
	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, data)
	}
	m.WriteCalls = append(m.WriteCalls, WriteCall{Data: data, Error: err})
	return err
}

// Calls returns a copy of the recorded calls.
func (m *MockWriter) Calls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError makes every later Write return err.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, *ReportData) error { return err }
}
