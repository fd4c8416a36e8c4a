package weather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tempest/internal/domain"
)

// Cache wraps a Provider with a two-tier TTL. Entries younger than the soft
// TTL are served fresh; entries past the soft TTL but inside the hard TTL
// are served with the stale flag set; entries past the hard TTL force a
// refetch, and if that fails the whole lookup fails.
type Cache struct {
	provider Provider
	softTTL  time.Duration
	hardTTL  time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry

	now func() time.Time
}

type cacheEntry struct {
	ctx       domain.WeatherContext
	fetchedAt time.Time
}

// NewCache creates a weather cache over the given provider.
func NewCache(provider Provider, softTTL, hardTTL time.Duration) *Cache {
	return &Cache{
		provider: provider,
		softTTL:  softTTL,
		hardTTL:  hardTTL,
		entries:  make(map[string]cacheEntry),
		now:      time.Now,
	}
}

// GetWeather returns the weather context for the entity and whether it is
// stale. A cache hit inside the hard TTL never triggers a network call.
func (c *Cache) GetWeather(ctx context.Context, entityCode string) (domain.WeatherContext, bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[entityCode]
	c.mu.Unlock()

	if ok {
		age := c.now().Sub(entry.fetchedAt)
		if age <= c.softTTL {
			return entry.ctx, false, nil
		}
		if age <= c.hardTTL {
			stale := entry.ctx
			stale.Stale = true
			return stale, true, nil
		}
	}

	return c.refresh(ctx, entityCode)
}

// Refresh fetches a fresh snapshot for the entity, replacing any cached
// entry. The prefetch pool uses it to warm the cache before a run.
func (c *Cache) Refresh(ctx context.Context, entityCode string) error {
	_, _, err := c.refresh(ctx, entityCode)
	return err
}

func (c *Cache) refresh(ctx context.Context, entityCode string) (domain.WeatherContext, bool, error) {
	wc, err := c.provider.Fetch(ctx, entityCode)
	if err != nil {
		return domain.WeatherContext{}, false, fmt.Errorf("fetching weather for %s: %w", entityCode, err)
	}
	wc.EntityCode = entityCode
	wc.FetchedAt = c.now()
	wc.Stale = false

	c.mu.Lock()
	c.entries[entityCode] = cacheEntry{ctx: wc, fetchedAt: wc.FetchedAt}
	c.mu.Unlock()

	return wc, false, nil
}
