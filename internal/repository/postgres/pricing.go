package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// PricingRepository is a PostgreSQL implementation of
// repository.PricingRepository.
type PricingRepository struct {
	q Querier
}

// NewPricingRepository creates a new PostgreSQL pricing repository.
func NewPricingRepository(db *sql.DB) *PricingRepository {
	return &PricingRepository{q: db}
}

// GetConfig retrieves the pricing row for (region, vehicle type).
func (r *PricingRepository) GetConfig(ctx context.Context, regionCode string, vehicleTypeID int16) (*domain.PricingConfig, error) {
	query := `
		SELECT id, tenant_id, region_code, vehicle_type, base_fare, rate_per_km, rate_per_min, updated_at
		FROM pricing_config
		WHERE region_code = $1 AND vehicle_type = $2
	`

	var cfg domain.PricingConfig
	err := r.q.QueryRowContext(ctx, query, regionCode, vehicleTypeID).Scan(
		&cfg.ID,
		&cfg.TenantID,
		&cfg.RegionCode,
		&cfg.VehicleTypeID,
		&cfg.BaseFare,
		&cfg.RatePerKm,
		&cfg.RatePerMin,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &cfg, nil
}

// UpsertConfig creates or replaces the pricing row for its scope.
func (r *PricingRepository) UpsertConfig(ctx context.Context, cfg *domain.PricingConfig) error {
	query := `
		INSERT INTO pricing_config (tenant_id, region_code, vehicle_type, base_fare, rate_per_km, rate_per_min, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, region_code, vehicle_type)
		DO UPDATE SET base_fare = $4, rate_per_km = $5, rate_per_min = $6, updated_at = $7
	`

	_, err := r.q.ExecContext(ctx, query,
		cfg.TenantID,
		cfg.RegionCode,
		cfg.VehicleTypeID,
		cfg.BaseFare,
		cfg.RatePerKm,
		cfg.RatePerMin,
		time.Now(),
	)

	return err
}

// ActiveSurge returns the surge row whose window contains the given
// instant. The most recently effective window wins when several overlap.
func (r *PricingRepository) ActiveSurge(ctx context.Context, regionCode string, at time.Time) (*domain.SurgePricing, error) {
	query := `
		SELECT id, region_code, surge_multiplier, effective_from, expires_at
		FROM surge_pricing
		WHERE region_code = $1 AND effective_from <= $2 AND expires_at > $2
		ORDER BY effective_from DESC
		LIMIT 1
	`

	var surge domain.SurgePricing
	err := r.q.QueryRowContext(ctx, query, regionCode, at).Scan(
		&surge.ID,
		&surge.RegionCode,
		&surge.Multiplier,
		&surge.EffectiveFrom,
		&surge.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &surge, nil
}

// CreateSurge appends a new surge window.
func (r *PricingRepository) CreateSurge(ctx context.Context, surge *domain.SurgePricing) error {
	query := `
		INSERT INTO surge_pricing (region_code, surge_multiplier, effective_from, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		surge.RegionCode,
		surge.Multiplier,
		surge.EffectiveFrom,
		surge.ExpiresAt,
	)

	return err
}

// CreateSnapshot appends an immutable fare snapshot.
func (r *PricingRepository) CreateSnapshot(ctx context.Context, snap *domain.FareSnapshot) error {
	query := `
		INSERT INTO ride_fare_snapshot (ride_id, rider_id, base_fare, distance_fare, time_fare, surge_multiplier, tax_amount, final_fare, currency, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		snap.RideID,
		snap.RiderID,
		snap.BaseFare,
		snap.DistanceFare,
		snap.TimeFare,
		snap.SurgeMultiplier,
		snap.TaxAmount,
		snap.FinalFare,
		snap.Currency,
		snap.ComputedAt,
	)

	return err
}
