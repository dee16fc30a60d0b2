package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/civicworks/warddesk/backend/internal/domain/providers"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
)

// CacheWarmingService keeps ward records warm in the cache. Ward names are
// resolved on almost every device, request and incident write, so a cold
// cache after deploy shows up immediately as extra database load.
type CacheWarmingService struct {
	wardRepo repositories.WardRepository
	cache    providers.CacheProvider
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(
	wardRepo repositories.WardRepository,
	cache providers.CacheProvider,
) *CacheWarmingService {
	return &CacheWarmingService{
		wardRepo: wardRepo,
		cache:    cache,
	}
}

// WarmCache loads every active ward into the cache in one batch write. The
// key scheme matches the cached ward adapter so its reads hit directly.
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	activeFilter := true
	wards, err := s.wardRepo.List(ctx, repositories.WardFilter{
		IsActive: &activeFilter,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch active wards: %w", err)
	}

	items := make(map[string][]byte)
	for _, ward := range wards {
		data, err := json.Marshal(ward)
		if err != nil {
			log.Printf("Failed to marshal ward %s: %v", ward.ID, err)
			continue
		}
		items[fmt.Sprintf("ward:%s", ward.ID)] = data
	}

	// Batch set to cache with 5 minute TTL
	if len(items) > 0 {
		if err := s.cache.SetMulti(ctx, items, 300); err != nil {
			return fmt.Errorf("failed to cache wards: %w", err)
		}
		log.Printf("Warmed cache with %d wards", len(items))
	}

	return nil
}

// StartPeriodicWarming starts a background goroutine that periodically warms the cache
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	// Initial warming
	if err := s.WarmCache(ctx); err != nil {
		log.Printf("Initial cache warming failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("Stopping cache warming service")
				return
			case <-ticker.C:
				if err := s.WarmCache(context.Background()); err != nil {
					log.Printf("Periodic cache warming failed: %v", err)
				}
			}
		}
	}()
	log.Printf("Started periodic cache warming every %v", interval)
}

// InvalidateCache drops all warmed ward entries (useful after bulk imports)
func (s *CacheWarmingService) InvalidateCache(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, "ward:*"); err != nil {
		log.Printf("Failed to invalidate ward cache: %v", err)
	}

	log.Println("Ward cache invalidated")
	return nil
}
