package persistence

import (
	"context"
	"sync"
)

// MemoryLocation 进程内位置，用于测试和单机调试，不具备持久性
type MemoryLocation struct {
	name string
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryLocation 创建内存位置
func NewMemoryLocation(name string) *MemoryLocation {
	return &MemoryLocation{name: name, data: make(map[string]string)}
}

func (m *MemoryLocation) Name() string { return m.name }

func (m *MemoryLocation) Write(_ context.Context, authority uint8, scope, sequence string, id PersistedID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[Key("", authority, scope, sequence)] = id.String()
	return nil
}

func (m *MemoryLocation) Read(_ context.Context, authority uint8, scope, sequence string) (PersistedID, bool, error) {
	m.mu.RLock()
	raw, ok := m.data[Key("", authority, scope, sequence)]
	m.mu.RUnlock()
	if !ok {
		return PersistedID{}, false, nil
	}
	id, err := ParsePersistedID(raw)
	if err != nil {
		return PersistedID{}, false, err
	}
	return id, true, nil
}
