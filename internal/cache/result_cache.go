package cache

import (
	"sync"
	"time"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

// ResultCache keeps recent API classification responses in memory with a TTL
type ResultCache struct {
	cache map[string]*cacheEntry
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type cacheEntry struct {
	response  *models.ClassifyResponse
	expiresAt time.Time
}

// NewResultCache creates a cache and starts its cleanup goroutine; call Close to stop it
func NewResultCache(ttl time.Duration) *ResultCache {
	rc := &ResultCache{
		cache: make(map[string]*cacheEntry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	go rc.cleanupLoop(cleanupInterval(ttl))

	return rc
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > 5*time.Minute {
		return 5 * time.Minute
	}
	return ttl
}

func (rc *ResultCache) Set(requestID string, resp *models.ClassifyResponse) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.cache[requestID] = &cacheEntry{
		response:  resp,
		expiresAt: rc.now().Add(rc.ttl),
	}
}

// Get returns the response if present and not expired
func (rc *ResultCache) Get(requestID string) (*models.ClassifyResponse, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	entry, exists := rc.cache[requestID]
	if !exists {
		return nil, false
	}
	if rc.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.response, true
}

func (rc *ResultCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.cleanup()
		case <-rc.stop:
			return
		}
	}
}

func (rc *ResultCache) cleanup() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := rc.now()
	for requestID, entry := range rc.cache {
		if now.After(entry.expiresAt) {
			delete(rc.cache, requestID)
		}
	}
}

// size counts entries, expired ones included until cleanup
func (rc *ResultCache) size() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	return len(rc.cache)
}

func (rc *ResultCache) Close() {
	rc.once.Do(func() { close(rc.stop) })
}
