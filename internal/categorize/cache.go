package categorize

import (
	"context"
	"sync"
	"time"

	"gitlab.com/yelinaung/paynotify/internal/models"
)

// defaultCacheTTL bounds how long a mapping snapshot may serve reads.
const defaultCacheTTL = time.Hour

// mappingCache holds an in-memory snapshot of all merchant mappings with
// a bounded TTL. Every write path invalidates it synchronously, so a read
// after a correction never observes the stale mapping.
type mappingCache struct {
	store MappingStore
	ttl   time.Duration
	now   func() time.Time

	mu         sync.RWMutex
	mappings   []models.MerchantCategoryMapping
	byMerchant map[string]models.MerchantCategoryMapping
	expiresAt  time.Time
}

func newMappingCache(store MappingStore, ttl time.Duration, now func() time.Time) *mappingCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &mappingCache{store: store, ttl: ttl, now: now}
}

// All returns the cached mapping snapshot, refreshing it when expired.
func (c *mappingCache) All(ctx context.Context) ([]models.MerchantCategoryMapping, error) {
	c.mu.RLock()
	if c.byMerchant != nil && c.now().Before(c.expiresAt) {
		mappings := c.mappings
		c.mu.RUnlock()
		return mappings, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check under the write lock in case another goroutine refreshed it.
	if c.byMerchant != nil && c.now().Before(c.expiresAt) {
		return c.mappings, nil
	}

	mappings, err := c.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	byMerchant := make(map[string]models.MerchantCategoryMapping, len(mappings))
	for _, m := range mappings {
		byMerchant[m.Merchant] = m
	}

	c.mappings = mappings
	c.byMerchant = byMerchant
	c.expiresAt = c.now().Add(c.ttl)
	return mappings, nil
}

// Get returns the mapping for a normalized merchant key, or nil.
func (c *mappingCache) Get(ctx context.Context, merchant string) (*models.MerchantCategoryMapping, error) {
	if _, err := c.All(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.byMerchant[merchant]; ok {
		return &m, nil
	}
	return nil, nil
}

// Invalidate drops the snapshot so the next read reloads from the store.
func (c *mappingCache) Invalidate() {
	c.mu.Lock()
	c.mappings = nil
	c.byMerchant = nil
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}
