package cache

import (
	"database/sql"
	"fmt"
	"time"

	"coursegen/internal/storage"
)

// persistentTier stores TTL'd values in the analysis_cache table. A ttl of 0
// means the entry never expires. Expired rows are treated as misses and
// deleted lazily on read.
type persistentTier struct {
	db  *storage.DB
	now func() time.Time
}

func newPersistentTier(db *storage.DB) *persistentTier {
	return &persistentTier{
		db:  db,
		now: time.Now,
	}
}

// ping verifies the tier is reachable. Called from Initialize, where a
// persistent-tier failure is fatal.
func (p *persistentTier) ping() error {
	var one int
	if err := p.db.QueryRow("SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("persistent tier unreachable: %w", err)
	}
	return nil
}

func (p *persistentTier) get(key string) ([]byte, bool, error) {
	var data string
	var cachedAt int64
	var ttl int

	err := p.db.QueryRow(`
		SELECT data, cached_at, ttl
		FROM analysis_cache
		WHERE key = ?
	`, key).Scan(&data, &cachedAt, &ttl)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("persistent cache lookup failed: %w", err)
	}

	if ttl > 0 && p.now().Unix()-cachedAt > int64(ttl) {
		_, _ = p.db.Exec("DELETE FROM analysis_cache WHERE key = ?", key)
		return nil, false, nil
	}

	return []byte(data), true, nil
}

func (p *persistentTier) set(key string, value []byte, ttlSeconds int) error {
	_, err := p.db.Exec(`
		INSERT OR REPLACE INTO analysis_cache (key, data, cached_at, ttl)
		VALUES (?, ?, ?, ?)
	`, key, string(value), p.now().Unix(), ttlSeconds)
	if err != nil {
		return fmt.Errorf("persistent cache write failed: %w", err)
	}
	return nil
}

func (p *persistentTier) delete(key string) error {
	if _, err := p.db.Exec("DELETE FROM analysis_cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("persistent cache delete failed: %w", err)
	}
	return nil
}

// clear removes all analysis cache entries
func (p *persistentTier) clear() error {
	if _, err := p.db.Exec("DELETE FROM analysis_cache"); err != nil {
		return fmt.Errorf("failed to clear persistent cache: %w", err)
	}
	return nil
}

// cleanupExpired removes all expired rows. Called opportunistically, not on
// the read path.
func (p *persistentTier) cleanupExpired() error {
	_, err := p.db.Exec(`
		DELETE FROM analysis_cache
		WHERE ttl > 0 AND ? - cached_at > ttl
	`, p.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to cleanup expired cache entries: %w", err)
	}
	return nil
}

// entryCount reports the number of stored rows, for stats display
func (p *persistentTier) entryCount() (int, error) {
	var count int
	if err := p.db.QueryRow("SELECT COUNT(*) FROM analysis_cache").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count persistent cache entries: %w", err)
	}
	return count, nil
}
