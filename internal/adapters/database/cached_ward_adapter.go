package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/providers"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
)

// CachedWardAdapter wraps WardAdapter with caching. Ward records change
// rarely but are read on almost every request for display names.
type CachedWardAdapter struct {
	adapter repositories.WardRepository
	cache   providers.CacheProvider
}

// NewCachedWardAdapter creates a new cached ward adapter
func NewCachedWardAdapter(adapter repositories.WardRepository, cache providers.CacheProvider) repositories.WardRepository {
	return &CachedWardAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	wardByIDTTL = 300 // 5 minutes for single ward
)

func wardCacheKey(id string) string {
	return fmt.Sprintf("ward:%s", id)
}

// GetByID retrieves a ward by ID with caching
func (a *CachedWardAdapter) GetByID(ctx context.Context, id string) (*entities.Ward, error) {
	cacheKey := wardCacheKey(id)

	// Try to get from cache first
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var ward entities.Ward
		if err := json.Unmarshal(cached, &ward); err == nil {
			return &ward, nil
		}
		log.Printf("Failed to unmarshal cached ward %s: %v", id, err)
	}

	// Cache miss - fetch from database
	ward, err := a.adapter.GetByID(ctx, id)
	if err != nil || ward == nil {
		return ward, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(ward); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, wardByIDTTL); err != nil {
				log.Printf("Failed to cache ward %s: %v", id, err)
			}
		}
	}()

	return ward, nil
}

// List passes through; listings are not cached
func (a *CachedWardAdapter) List(ctx context.Context, filter repositories.WardFilter) ([]*entities.Ward, error) {
	return a.adapter.List(ctx, filter)
}

// Create passes through
func (a *CachedWardAdapter) Create(ctx context.Context, ward *entities.Ward) error {
	return a.adapter.Create(ctx, ward)
}

// Update writes through and invalidates the cached entry
func (a *CachedWardAdapter) Update(ctx context.Context, ward *entities.Ward) error {
	if err := a.adapter.Update(ctx, ward); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, wardCacheKey(ward.ID)); err != nil {
		log.Printf("Failed to invalidate cached ward %s: %v", ward.ID, err)
	}
	return nil
}

// Deactivate writes through and invalidates the cached entry
func (a *CachedWardAdapter) Deactivate(ctx context.Context, id string) error {
	if err := a.adapter.Deactivate(ctx, id); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, wardCacheKey(id)); err != nil {
		log.Printf("Failed to invalidate cached ward %s: %v", id, err)
	}
	return nil
}
