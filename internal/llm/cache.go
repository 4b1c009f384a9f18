package llm

import (
	"sync"
	"time"

	"github.com/meridianhq/eventrecon/internal/model"
)

// scoreCache memoizes model judgments per expense/candidate pair so
// re-running a batch does not re-bill identical questions.
type scoreCache struct {
	entries map[string]scoreCacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

type scoreCacheEntry struct {
	expiry time.Time
	score  model.CandidateScore
}

func newScoreCache(ttl time.Duration) *scoreCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &scoreCache{
		entries: make(map[string]scoreCacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

func (c *scoreCache) get(key string) (model.CandidateScore, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return model.CandidateScore{}, false
	}

	return entry.score, true
}

func (c *scoreCache) set(key string, score model.CandidateScore) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = scoreCacheEntry{
		score:  score,
		expiry: time.Now().Add(c.ttl),
	}
}

func (c *scoreCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (c *scoreCache) Close() {
	close(c.stopCh)
}
