package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MockStorage is an in-memory implementation of Storage for testing.
// Units are kept as encoded JSON so loads return independent copies.
type MockStorage struct {
	mu        sync.RWMutex
	units     map[string][]byte
	pingError error
	saveError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		units: make(map[string][]byte),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail every save with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// PutRaw stores raw bytes under name, bypassing encoding (for malformed-unit tests).
func (m *MockStorage) PutRaw(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units[name] = data
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveUnit stores a copy of unit under the first free candidate name.
func (m *MockStorage) SaveUnit(ctx context.Context, unit *Unit, at time.Time) (string, error) {
	if unit == nil {
		return "", errors.New("unit cannot be nil")
	}
	data, err := json.Marshal(unit)
	if err != nil {
		return "", fmt.Errorf("failed to marshal unit: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return "", m.saveError
	}
	base := UnitName(unit.Character.Name, at)
	for n := 1; ; n++ {
		name := CandidateName(base, n)
		if _, exists := m.units[name]; exists {
			continue
		}
		m.units[name] = data
		return name, nil
	}
}

// LoadUnit decodes the unit stored under name.
func (m *MockStorage) LoadUnit(ctx context.Context, name string) (*Unit, error) {
	m.mu.RLock()
	data, exists := m.units[name]
	m.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return DecodeUnit(data)
}

// ListUnits returns all stored names sorted.
func (m *MockStorage) ListUnits(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.units))
	for name := range m.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// LatestUnit returns the newest unit saved for characterName.
func (m *MockStorage) LatestUnit(ctx context.Context, characterName string) (string, error) {
	names, _ := m.ListUnits(ctx)
	latest, ok := LatestOf(names, characterName)
	if !ok {
		return "", fmt.Errorf("%w: no saves for %q", ErrNotFound, characterName)
	}
	return latest, nil
}
