package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error)
	ReleaseRideLock(ctx context.Context, rideID string) error
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID string) error
}

// CacheStoreInterface defines the interface for reference-data caching.
type CacheStoreInterface interface {
	GetPricing(ctx context.Context, regionCode string, vehicleTypeID int16) (*CachedPricing, error)
	SetPricing(ctx context.Context, pricing *CachedPricing) error
	InvalidatePricing(ctx context.Context, regionCode string, vehicleTypeID int16) error
	GetSurge(ctx context.Context, regionCode string) (*CachedSurge, error)
	SetSurge(ctx context.Context, surge *CachedSurge) error
	InvalidateSurge(ctx context.Context, regionCode string) error
}

// SessionStoreInterface defines the interface for session management.
type SessionStoreInterface interface {
	Issue(ctx context.Context, actorID, role string) (string, error)
	Resolve(ctx context.Context, token string) (*Session, error)
	Revoke(ctx context.Context, token string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface    = (*LockStore)(nil)
	_ CacheStoreInterface   = (*CacheStore)(nil)
	_ SessionStoreInterface = (*SessionStore)(nil)
)
