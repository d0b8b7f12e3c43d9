package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// memoryEntry is a single LRU entry. Size accounts for both key and payload.
type memoryEntry struct {
	key   string
	value []byte
	size  int64
}

// memoryTier is the in-process LRU tier. A single coarse mutex guards the
// whole check-size, evict, insert sequence so concurrent inserts cannot both
// pass the size check before either evicts.
type memoryTier struct {
	mu        sync.Mutex
	index     map[string]*list.Element
	recency   *list.List // front = most recently used
	bytes     int64
	maxBytes  int64
	evictions *atomic.Int64
}

func newMemoryTier(maxBytes int64, evictions *atomic.Int64) *memoryTier {
	return &memoryTier{
		index:     make(map[string]*list.Element),
		recency:   list.New(),
		maxBytes:  maxBytes,
		evictions: evictions,
	}
}

// get returns the cached value and marks the key most recently used.
// Entries are trusted until evicted; the memory tier never re-checks TTL.
func (m *memoryTier) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.index[key]
	if !ok {
		return nil, false
	}

	m.recency.MoveToFront(elem)
	return elem.Value.(*memoryEntry).value, true
}

// set inserts or replaces a value, evicting least-recently-used entries one
// at a time until the tier fits its byte budget.
func (m *memoryTier) set(key string, value []byte) {
	size := int64(len(key) + len(value))
	if size > m.maxBytes {
		// A value larger than the whole budget is never cached in memory
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.index[key]; ok {
		entry := elem.Value.(*memoryEntry)
		m.bytes += size - entry.size
		entry.value = value
		entry.size = size
		m.recency.MoveToFront(elem)
		m.evictUntilFitLocked()
		return
	}

	for m.bytes+size > m.maxBytes && m.recency.Len() > 0 {
		m.evictOldestLocked()
	}

	entry := &memoryEntry{key: key, value: value, size: size}
	m.index[key] = m.recency.PushFront(entry)
	m.bytes += size
}

func (m *memoryTier) evictUntilFitLocked() {
	for m.bytes > m.maxBytes && m.recency.Len() > 0 {
		m.evictOldestLocked()
	}
}

func (m *memoryTier) evictOldestLocked() {
	elem := m.recency.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*memoryEntry)
	m.recency.Remove(elem)
	delete(m.index, entry.key)
	m.bytes -= entry.size
	m.evictions.Add(1)
}

// delete removes a key without counting an eviction
func (m *memoryTier) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.index[key]; ok {
		entry := elem.Value.(*memoryEntry)
		m.recency.Remove(elem)
		delete(m.index, key)
		m.bytes -= entry.size
	}
}

// clear drops all entries without counting evictions
func (m *memoryTier) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.index = make(map[string]*list.Element)
	m.recency.Init()
	m.bytes = 0
}

func (m *memoryTier) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recency.Len()
}

func (m *memoryTier) currentBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bytes
}
