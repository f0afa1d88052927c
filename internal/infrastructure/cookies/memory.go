package cookies

import (
	"sync"

	"github.com/youcodecowboy/conka-sub004/internal/ports"
)

// Memory is an in-memory SessionStore for tests. It records set and delete
// operations so tests can assert on cookie traffic, not just final values.
type Memory struct {
	mu      sync.Mutex
	values  map[string]string
	options map[string]ports.CookieOptions
	Deleted []string
}

func NewMemory() *Memory {
	return &Memory{
		values:  make(map[string]string),
		options: make(map[string]ports.CookieOptions),
	}
}

func (m *Memory) Get(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[name]
}

func (m *Memory) Set(name, value string, opts ports.CookieOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	m.options[name] = opts
}

func (m *Memory) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
	m.Deleted = append(m.Deleted, name)
}

// Options returns the options a value was last stored with.
func (m *Memory) Options(name string) ports.CookieOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.options[name]
}

// Names returns the currently stored cookie names.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.values))
	for name := range m.values {
		names = append(names, name)
	}
	return names
}

var _ ports.SessionStore = (*Memory)(nil)
