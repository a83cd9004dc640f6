package hybridx

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Blackboard is thread-safe storage for sensor values read by jump
// conditions. Producers write from any goroutine; the control loop takes a
// snapshot per tick and only copies when something changed.
type Blackboard struct {
	mu      sync.RWMutex
	data    map[string]any
	version atomic.Uint64
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{data: make(map[string]any)}
}

// Get retrieves a value by key. Returns nil if the key does not exist.
func (b *Blackboard) Get(key string) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data[key]
}

// Float retrieves a numeric value by key.
func (b *Blackboard) Float(key string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return SensorFloat(b.data, key)
}

// Set stores a value by key.
func (b *Blackboard) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	b.version.Add(1)
}

// Delete removes a key.
func (b *Blackboard) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.data[key]; ok {
		delete(b.data, key)
		b.version.Add(1)
	}
}

// Version increases on every change.
func (b *Blackboard) Version() uint64 { return b.version.Load() }

// Snapshot returns a copy of all data with the version it reflects.
func (b *Blackboard) Snapshot() (map[string]any, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.data), b.version.Load()
}

// LoadAll atomically replaces all data.
func (b *Blackboard) LoadAll(data map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = maps.Clone(data)
	if b.data == nil {
		b.data = make(map[string]any)
	}
	b.version.Add(1)
}
