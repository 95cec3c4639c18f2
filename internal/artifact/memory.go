package artifact

import (
	"fmt"
	"sort"
	"sync"

	"github.com/m-kadula/ml2024-25/internal/tensor"
)

// Memory is an in-process store. It doubles as a Writer so goldens can be
// recorded and replayed without touching disk. The zero value is ready to use.
type Memory struct {
	mu     sync.RWMutex
	arrays map[string]tensor.Array
}

func NewMemory() *Memory {
	return &Memory{arrays: make(map[string]tensor.Array)}
}

func (m *Memory) Put(key string, a tensor.Array) error {
	if _, err := ParseKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.arrays == nil {
		m.arrays = make(map[string]tensor.Array)
	}
	m.arrays[key] = a.Clone()
	return nil
}

func (m *Memory) Load(key string) (tensor.Array, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.arrays[key]
	if !ok {
		return tensor.Array{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return a.Clone(), nil
}

func (m *Memory) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.arrays))
	for k := range m.arrays {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
