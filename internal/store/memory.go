package store

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore is the in-process Store backend. A single mutex linearizes
// every commit, which makes AtomicUpdate conflict-free by construction;
// push delivery still happens asynchronously per subscriber, exactly like
// the networked backends.
type MemoryStore struct {
	mu       sync.RWMutex
	leaves   map[string][]byte
	children map[string]map[string]struct{}
	events   *fanout
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leaves:   make(map[string][]byte),
		children: make(map[string]map[string]struct{}),
		events:   newFanout(),
	}
}

func (m *MemoryStore) Read(_ context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.leaves[path]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Write(_ context.Context, path string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)

	m.mu.Lock()
	m.leaves[path] = v
	m.index(path)
	m.mu.Unlock()

	m.events.publish(Event{Path: path, Kind: EventPut})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	_, existed := m.leaves[path]
	if existed {
		delete(m.leaves, path)
		m.unindex(path)
	}
	m.mu.Unlock()

	if existed {
		m.events.publish(Event{Path: path, Kind: EventDelete})
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context, path string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte)
	for key := range m.children[path] {
		if v, ok := m.leaves[Join(path, key)]; ok {
			c := make([]byte, len(v))
			copy(c, v)
			out[key] = c
		}
	}
	return out, nil
}

func (m *MemoryStore) AtomicUpdate(_ context.Context, path string, fn UpdateFn) (int64, error) {
	m.mu.Lock()
	cur := int64(0)
	if raw, ok := m.leaves[path]; ok {
		parsed, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			m.mu.Unlock()
			return 0, err
		}
		cur = parsed
	}
	next := fn(cur)
	m.leaves[path] = []byte(strconv.FormatInt(next, 10))
	m.index(path)
	m.mu.Unlock()

	m.events.publish(Event{Path: path, Kind: EventPut})
	return next, nil
}

func (m *MemoryStore) Subscribe(prefix string, fn func(Event)) func() {
	return m.events.subscribe(prefix, fn)
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.events.closeAll()
	return nil
}

// index records path under its parent collection. Caller holds mu.
func (m *MemoryStore) index(path string) {
	parent := Parent(path)
	if parent == "" {
		return
	}
	set, ok := m.children[parent]
	if !ok {
		set = make(map[string]struct{})
		m.children[parent] = set
	}
	set[Key(path)] = struct{}{}
}

// unindex removes path from its parent collection. Caller holds mu.
func (m *MemoryStore) unindex(path string) {
	parent := Parent(path)
	if set, ok := m.children[parent]; ok {
		delete(set, Key(path))
		if len(set) == 0 {
			delete(m.children, parent)
		}
	}
}
