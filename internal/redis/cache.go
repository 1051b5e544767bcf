package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles reference-data caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	PricingCacheTTL = 5 * time.Minute  // Pricing rows change rarely
	SurgeCacheTTL   = 30 * time.Second // Surge windows are short-lived
)

// Key prefixes
const (
	pricingCachePrefix = "cache:pricing:"
	surgeCachePrefix   = "cache:surge:"
)

// CachedPricing represents a cached pricing row.
type CachedPricing struct {
	RegionCode    string  `json:"region_code"`
	VehicleTypeID int16   `json:"vehicle_type_id"`
	BaseFare      float64 `json:"base_fare"`
	RatePerKm     float64 `json:"rate_per_km"`
	RatePerMin    float64 `json:"rate_per_min"`
}

// CachedSurge represents a cached active surge window. Both bounds are
// kept so a lookup instant outside the window never reuses the entry.
type CachedSurge struct {
	RegionCode    string  `json:"region_code"`
	Multiplier    float64 `json:"multiplier"`
	EffectiveFrom int64   `json:"effective_from"`
	ExpiresAt     int64   `json:"expires_at"`
}

// Covers reports whether the cached window contains the given instant.
func (s *CachedSurge) Covers(at time.Time) bool {
	return !at.Before(time.Unix(s.EffectiveFrom, 0)) && at.Before(time.Unix(s.ExpiresAt, 0))
}

func pricingKey(regionCode string, vehicleTypeID int16) string {
	return fmt.Sprintf("%s%s:%d", pricingCachePrefix, regionCode, vehicleTypeID)
}

// GetPricing retrieves a pricing row from cache.
func (s *CacheStore) GetPricing(ctx context.Context, regionCode string, vehicleTypeID int16) (*CachedPricing, error) {
	data, err := s.client.Get(ctx, pricingKey(regionCode, vehicleTypeID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var pricing CachedPricing
	if err := json.Unmarshal(data, &pricing); err != nil {
		return nil, err
	}
	return &pricing, nil
}

// SetPricing stores a pricing row in cache.
func (s *CacheStore) SetPricing(ctx context.Context, pricing *CachedPricing) error {
	data, err := json.Marshal(pricing)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, pricingKey(pricing.RegionCode, pricing.VehicleTypeID), data, PricingCacheTTL).Err()
}

// InvalidatePricing removes a pricing row from cache.
func (s *CacheStore) InvalidatePricing(ctx context.Context, regionCode string, vehicleTypeID int16) error {
	return s.client.Del(ctx, pricingKey(regionCode, vehicleTypeID)).Err()
}

// GetSurge retrieves the active surge window for a region from cache.
func (s *CacheStore) GetSurge(ctx context.Context, regionCode string) (*CachedSurge, error) {
	data, err := s.client.Get(ctx, surgeCachePrefix+regionCode).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var surge CachedSurge
	if err := json.Unmarshal(data, &surge); err != nil {
		return nil, err
	}
	return &surge, nil
}

// SetSurge stores the active surge window for a region in cache. The
// entry never outlives the window itself.
func (s *CacheStore) SetSurge(ctx context.Context, surge *CachedSurge) error {
	data, err := json.Marshal(surge)
	if err != nil {
		return err
	}

	ttl := SurgeCacheTTL
	if remaining := time.Until(time.Unix(surge.ExpiresAt, 0)); remaining < ttl {
		if remaining <= 0 {
			return nil
		}
		ttl = remaining
	}
	return s.client.Set(ctx, surgeCachePrefix+surge.RegionCode, data, ttl).Err()
}

// InvalidateSurge removes a region's surge window from cache.
func (s *CacheStore) InvalidateSurge(ctx context.Context, regionCode string) error {
	return s.client.Del(ctx, surgeCachePrefix+regionCode).Err()
}
