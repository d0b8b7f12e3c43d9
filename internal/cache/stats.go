package cache

import "sync/atomic"

// TierName identifies a cache tier in statistics and logs.
type TierName string

const (
	// MemoryTier is the in-process LRU tier
	MemoryTier TierName = "memory"
	// PersistentTier is the embedded SQLite tier
	PersistentTier TierName = "persistent"
	// RemoteTier is the optional Redis tier
	RemoteTier TierName = "remote"
)

// stats holds process-lifetime cache counters. All counters are monotonic
// until Reset.
type stats struct {
	memoryHits       atomic.Int64
	memoryMisses     atomic.Int64
	persistentHits   atomic.Int64
	persistentMisses atomic.Int64
	remoteHits       atomic.Int64
	remoteMisses     atomic.Int64
	evictions        atomic.Int64
	totalRequests    atomic.Int64
}

// TierStats holds hit/miss counters for a single tier
type TierStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Stats is a point-in-time snapshot of cache statistics
type Stats struct {
	Memory        TierStats `json:"memory"`
	Persistent    TierStats `json:"persistent"`
	Remote        TierStats `json:"remote"`
	Evictions     int64     `json:"evictions"`
	TotalRequests int64     `json:"total_requests"`
	HitRate       float64   `json:"hit_rate"`
	MemoryBytes   int64     `json:"memory_bytes"`
	MemoryEntries int       `json:"memory_entries"`
}

func (s *stats) snapshot() Stats {
	snap := Stats{
		Memory:        TierStats{Hits: s.memoryHits.Load(), Misses: s.memoryMisses.Load()},
		Persistent:    TierStats{Hits: s.persistentHits.Load(), Misses: s.persistentMisses.Load()},
		Remote:        TierStats{Hits: s.remoteHits.Load(), Misses: s.remoteMisses.Load()},
		Evictions:     s.evictions.Load(),
		TotalRequests: s.totalRequests.Load(),
	}

	if snap.TotalRequests > 0 {
		totalHits := snap.Memory.Hits + snap.Persistent.Hits + snap.Remote.Hits
		snap.HitRate = float64(totalHits) / float64(snap.TotalRequests)
	}

	return snap
}

func (s *stats) reset() {
	s.memoryHits.Store(0)
	s.memoryMisses.Store(0)
	s.persistentHits.Store(0)
	s.persistentMisses.Store(0)
	s.remoteHits.Store(0)
	s.remoteMisses.Store(0)
	s.evictions.Store(0)
	s.totalRequests.Store(0)
}
