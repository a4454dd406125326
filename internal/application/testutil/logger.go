package testutil

import (
	"fmt"
	"sync"

	"vendorflow/internal/shared/logger"
)

// MockLogger records log calls for assertions.
type MockLogger struct {
	mu      sync.RWMutex
	entries []LogEntry
}

// LogEntry records a log call.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		entries: make([]LogEntry, 0),
	}
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.log("DEBUG", msg, args...)
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.log("INFO", msg, args...)
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.log("WARN", msg, args...)
}

func (m *MockLogger) Error(msg string, args ...any) {
	m.log("ERROR", msg, args...)
}

func (m *MockLogger) With(args ...any) logger.Interface {
	return m
}

func (m *MockLogger) Named(name string) logger.Interface {
	return m
}

func (m *MockLogger) Debugw(msg string, keysAndValues ...any) {
	m.log("DEBUG", msg, keysAndValues...)
}

func (m *MockLogger) Infow(msg string, keysAndValues ...any) {
	m.log("INFO", msg, keysAndValues...)
}

func (m *MockLogger) Warnw(msg string, keysAndValues ...any) {
	m.log("WARN", msg, keysAndValues...)
}

func (m *MockLogger) Errorw(msg string, keysAndValues ...any) {
	m.log("ERROR", msg, keysAndValues...)
}

func (m *MockLogger) log(level, msg string, fields ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := LogEntry{
		Level:   level,
		Message: msg,
		Fields:  make(map[string]any),
	}
	for i := 0; i+1 < len(fields); i += 2 {
		entry.Fields[fmt.Sprint(fields[i])] = fields[i+1]
	}
	m.entries = append(m.entries, entry)
}

// GetEntries returns all recorded log entries.
func (m *MockLogger) GetEntries() []LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]LogEntry(nil), m.entries...)
}

// HasMessage reports whether any entry at level carries msg.
func (m *MockLogger) HasMessage(level, msg string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

// Reset clears all recorded entries.
func (m *MockLogger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make([]LogEntry, 0)
}
