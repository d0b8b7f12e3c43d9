// Package cache implements the three-tier analysis cache: an in-process LRU
// memory tier, an embedded SQLite persistent tier, and an optional Redis
// remote tier. Lookups run memory, persistent, remote in that order; a hit in
// a slower tier is promoted into every faster tier before it is returned.
// Writes go through all enabled tiers synchronously.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"coursegen/internal/logging"
	"coursegen/internal/storage"
)

// Options configures a TieredCache.
type Options struct {
	// MaxMemoryBytes is the memory tier byte budget
	MaxMemoryBytes int64
	// RedisURL enables the remote tier when non-empty
	RedisURL string
	// DefaultTTLSeconds is used when promoting remote hits into the
	// persistent tier, where the original TTL is no longer known
	DefaultTTLSeconds int
}

// TieredCache unifies the three cache tiers behind one get/set contract.
// Values are opaque serialized payloads; callers must treat returned slices
// as read-only snapshots.
type TieredCache struct {
	memory     *memoryTier
	persistent *persistentTier
	remote     *remoteTier // nil when disabled
	stats      stats
	logger     *logging.Logger
	opts       Options

	mu          sync.Mutex
	initialized bool
}

// New constructs a TieredCache over the given database. Call Initialize
// before use.
func New(db *storage.DB, opts Options, logger *logging.Logger) *TieredCache {
	c := &TieredCache{
		persistent: newPersistentTier(db),
		logger:     logger,
		opts:       opts,
	}
	c.memory = newMemoryTier(opts.MaxMemoryBytes, &c.stats.evictions)
	return c
}

// Initialize opens backend connections. It is idempotent; calling it twice
// is a no-op. A persistent-tier failure is fatal because that tier is the
// durability backbone; a remote-tier failure only disables the remote tier.
func (c *TieredCache) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	if err := c.persistent.ping(); err != nil {
		return fmt.Errorf("failed to initialize persistent cache tier: %w", err)
	}
	// sweep rows that expired since the last run so they never count
	// against stats or disk
	if err := c.persistent.cleanupExpired(); err != nil {
		c.logger.Warn("Expired cache sweep failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if c.opts.RedisURL != "" {
		remote, err := newRemoteTier(c.opts.RedisURL)
		if err == nil {
			err = remote.connect(ctx)
		}
		if err != nil {
			c.logger.Warn("Remote cache tier disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			c.remote = remote
			c.logger.Debug("Remote cache tier enabled", nil)
		}
	}

	c.initialized = true
	return nil
}

// Close releases backend connections and clears in-memory state. Idempotent.
// The underlying database is owned by the caller and is not closed here.
func (c *TieredCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return nil
	}
	c.initialized = false

	c.memory.clear()

	if c.remote != nil {
		if err := c.remote.close(); err != nil {
			c.logger.Warn("Failed to close remote cache tier", map[string]interface{}{
				"error": err.Error(),
			})
		}
		c.remote = nil
	}

	return nil
}

// With initializes the cache, runs fn, and guarantees Close on every exit
// path, including panics.
func With(ctx context.Context, c *TieredCache, fn func(*TieredCache) error) error {
	if err := c.Initialize(ctx); err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	return fn(c)
}

// Get looks the key up tier by tier, promoting lower-tier hits into every
// faster tier. Tier I/O errors are logged and demoted to misses; Get itself
// never fails.
func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.stats.totalRequests.Add(1)

	if value, ok := c.memory.get(key); ok {
		c.stats.memoryHits.Add(1)
		return value, true
	}
	c.stats.memoryMisses.Add(1)

	value, ok, err := c.persistent.get(key)
	if err != nil {
		c.logger.Warn("Persistent tier read failed, treating as miss", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	} else if ok {
		c.stats.persistentHits.Add(1)
		c.memory.set(key, value)
		return value, true
	}
	c.stats.persistentMisses.Add(1)

	if c.remote == nil {
		return nil, false
	}

	value, ok, err = c.remote.get(ctx, key)
	if err != nil {
		c.logger.Warn("Remote tier read failed, treating as miss", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		c.stats.remoteMisses.Add(1)
		return nil, false
	}
	if !ok {
		c.stats.remoteMisses.Add(1)
		return nil, false
	}

	c.stats.remoteHits.Add(1)
	// Promote into both faster tiers
	if err := c.persistent.set(key, value, c.opts.DefaultTTLSeconds); err != nil {
		c.logger.Warn("Failed to promote into persistent tier", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	c.memory.set(key, value)
	return value, true
}

// Set writes the value through all enabled tiers synchronously. A ttl of 0
// means the entry never expires. Tier I/O errors are logged and skipped for
// that tier only.
func (c *TieredCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) {
	c.memory.set(key, value)

	if err := c.persistent.set(key, value, ttlSeconds); err != nil {
		c.logger.Warn("Persistent tier write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	if c.remote != nil {
		if err := c.remote.set(ctx, key, value, ttlSeconds); err != nil {
			c.logger.Warn("Remote tier write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}

// Delete removes the key from all tiers.
func (c *TieredCache) Delete(ctx context.Context, key string) {
	c.memory.delete(key)

	if err := c.persistent.delete(key); err != nil {
		c.logger.Warn("Persistent tier delete failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	if c.remote != nil {
		if err := c.remote.delete(ctx, key); err != nil {
			c.logger.Warn("Remote tier delete failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}

// ClearMemory drops the memory tier without touching slower tiers.
func (c *TieredCache) ClearMemory() {
	c.memory.clear()
}

// Clear drops the memory and persistent tiers. The remote tier is left to
// expire on its own TTLs.
func (c *TieredCache) Clear() error {
	c.memory.clear()
	return c.persistent.clear()
}

// Stats returns a snapshot of cache statistics.
func (c *TieredCache) Stats() Stats {
	snap := c.stats.snapshot()
	snap.MemoryBytes = c.memory.currentBytes()
	snap.MemoryEntries = c.memory.len()
	return snap
}

// ResetStats zeroes all counters.
func (c *TieredCache) ResetStats() {
	c.stats.reset()
}

// RemoteEnabled reports whether the remote tier survived initialization.
func (c *TieredCache) RemoteEnabled() bool {
	return c.remote != nil
}

// PersistentEntries reports the live row count of the persistent tier.
func (c *TieredCache) PersistentEntries() (int, error) {
	return c.persistent.entryCount()
}

// ---------------------------------------------------------------------------
// Session sub-store: per-codebase ephemeral state, memory + persistent only,
// no TTL.
// ---------------------------------------------------------------------------

const sessionKeyPrefix = "session:"

// GetSession returns the stored session state for a codebase.
func (c *TieredCache) GetSession(codebaseID string) ([]byte, bool) {
	if value, ok := c.memory.get(sessionKeyPrefix + codebaseID); ok {
		return value, true
	}

	var state string
	err := c.persistent.db.QueryRow(`
		SELECT state FROM session_state WHERE codebase_id = ?
	`, codebaseID).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Session state read failed", map[string]interface{}{
			"codebaseId": codebaseID,
			"error":      err.Error(),
		})
		return nil, false
	}

	c.memory.set(sessionKeyPrefix+codebaseID, []byte(state))
	return []byte(state), true
}

// SetSession stores session state for a codebase.
func (c *TieredCache) SetSession(codebaseID string, state []byte) error {
	c.memory.set(sessionKeyPrefix+codebaseID, state)

	_, err := c.persistent.db.Exec(`
		INSERT OR REPLACE INTO session_state (codebase_id, state, updated_at)
		VALUES (?, ?, ?)
	`, codebaseID, string(state), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resource sub-store: opaque source blobs keyed by path, memory + persistent
// only, no TTL. Backed by the file_cache table.
// ---------------------------------------------------------------------------

const resourceKeyPrefix = "resource:"

// FileResource is a cached source file blob.
type FileResource struct {
	Path     string
	Content  []byte
	Hash     string
	Language string
	Size     int64
}

// GetResource returns a cached source blob by path. Both tiers hold the
// same serialized FileResource, so a hit looks identical wherever it lands.
func (c *TieredCache) GetResource(path string) (*FileResource, bool) {
	if raw, ok := c.memory.get(resourceKeyPrefix + path); ok {
		var res FileResource
		if err := json.Unmarshal(raw, &res); err == nil {
			return &res, true
		}
		c.memory.delete(resourceKeyPrefix + path)
	}

	res := &FileResource{Path: path}
	var content string
	err := c.persistent.db.QueryRow(`
		SELECT content, hash, language, size FROM file_cache WHERE path = ?
	`, path).Scan(&content, &res.Hash, &res.Language, &res.Size)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("File cache read failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return nil, false
	}

	res.Content = []byte(content)
	if raw, err := json.Marshal(res); err == nil {
		c.memory.set(resourceKeyPrefix+path, raw)
	}
	return res, true
}

// SetResource stores a source blob.
func (c *TieredCache) SetResource(res *FileResource) error {
	if raw, err := json.Marshal(res); err == nil {
		c.memory.set(resourceKeyPrefix+res.Path, raw)
	}

	_, err := c.persistent.db.Exec(`
		INSERT OR REPLACE INTO file_cache (path, content, hash, language, size, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, res.Path, string(res.Content), res.Hash, res.Language, res.Size, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save file resource: %w", err)
	}
	return nil
}
