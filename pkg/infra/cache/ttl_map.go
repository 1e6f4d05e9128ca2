package cache

import (
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// sweepBatch bounds how many expired entries one lock acquisition removes.
const sweepBatch = 1024

// TTLEntry represents an entry in TTLMap
type TTLEntry[V any] struct {
	Value   V
	touched time.Time
}

// TTLMap is a thread-safe map whose entries expire after a period of
// inactivity. Reads through Get/GetOrCreate refresh the entry and move it to
// the front of the recency list. At maxEntries the least recently touched
// entry is evicted in O(1); expired entries are removed lazily on access and
// by the janitor.
type TTLMap[V any] struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, *TTLEntry[V]]
	ttl time.Duration
	now func() time.Time
}

// NewTTLMap creates a new TTLMap with the specified TTL. maxEntries <= 0
// means unbounded.
func NewTTLMap[V any](ttl time.Duration, maxEntries int) *TTLMap[V] {
	if maxEntries <= 0 {
		maxEntries = math.MaxInt
	}
	lru, err := simplelru.NewLRU[string, *TTLEntry[V]](maxEntries, nil)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &TTLMap[V]{
		lru: lru,
		ttl: ttl,
		now: time.Now,
	}
}

// WithClock replaces the time source, used by tests.
func (m *TTLMap[V]) WithClock(now func() time.Time) *TTLMap[V] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

func (m *TTLMap[V]) expired(e *TTLEntry[V], now time.Time) bool {
	return now.Sub(e.touched) > m.ttl
}

// getLocked returns the live entry under key and refreshes it. An expired
// entry is dropped.
func (m *TTLMap[V]) getLocked(key string, now time.Time) (*TTLEntry[V], bool) {
	entry, ok := m.lru.Get(key)
	if !ok {
		return nil, false
	}
	if m.expired(entry, now) {
		m.lru.Remove(key)
		return nil, false
	}
	entry.touched = now
	return entry, true
}

// Get retrieves a value from the TTLMap if it hasn't expired
func (m *TTLMap[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.getLocked(key, m.now()); ok {
		return entry.Value, true
	}
	var zero V
	return zero, false
}

// GetOrCreate returns the live value under key, creating it with create when
// absent or expired. An expired entry is replaced, never revived.
func (m *TTLMap[V]) GetOrCreate(key string, create func() V) V {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if entry, ok := m.getLocked(key, now); ok {
		return entry.Value
	}
	value := create()
	m.lru.Add(key, &TTLEntry[V]{Value: value, touched: now})
	return value
}

// Set adds or updates a value in the TTLMap
func (m *TTLMap[V]) Set(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Add(key, &TTLEntry[V]{Value: value, touched: m.now()})
}

// Delete removes a key from the TTLMap
func (m *TTLMap[V]) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Remove(key)
}

// Clear removes all entries from the TTLMap
func (m *TTLMap[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Purge()
}

func (m *TTLMap[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// Sweep deletes every expired entry and returns how many were removed.
// Entries are ordered by last touch, so it walks from the oldest end and stops
// at the first live one, releasing the lock between batches.
func (m *TTLMap[V]) Sweep() int {
	removed := 0
	for {
		n, more := m.sweepOnce()
		removed += n
		if !more {
			return removed
		}
	}
}

func (m *TTLMap[V]) sweepOnce() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for n := 0; n < sweepBatch; n++ {
		_, entry, ok := m.lru.GetOldest()
		if !ok || !m.expired(entry, now) {
			return n, false
		}
		m.lru.RemoveOldest()
	}
	return sweepBatch, true
}

// StartJanitor sweeps the map every interval until done is closed. onSweep,
// when non-nil, receives the number of removed entries and the remaining size.
func (m *TTLMap[V]) StartJanitor(interval time.Duration, done <-chan struct{}, onSweep func(removed, size int)) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				removed := m.Sweep()
				if onSweep != nil {
					onSweep(removed, m.Len())
				}
			}
		}
	}()
}
