package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// PricingRepository defines the persistence operations for fare reference
// data and fare snapshots.
type PricingRepository interface {
	// GetConfig retrieves the pricing row for (region, vehicle type).
	GetConfig(ctx context.Context, regionCode string, vehicleTypeID int16) (*domain.PricingConfig, error)

	// UpsertConfig creates or replaces a pricing row.
	UpsertConfig(ctx context.Context, cfg *domain.PricingConfig) error

	// ActiveSurge returns the surge row whose window contains the given
	// instant, preferring the most recently effective one. Returns nil
	// without error when no window is active.
	ActiveSurge(ctx context.Context, regionCode string, at time.Time) (*domain.SurgePricing, error)

	// CreateSurge appends a new surge window.
	CreateSurge(ctx context.Context, surge *domain.SurgePricing) error

	// CreateSnapshot appends an immutable fare snapshot. Snapshots are
	// never updated or deleted.
	CreateSnapshot(ctx context.Context, snap *domain.FareSnapshot) error
}
