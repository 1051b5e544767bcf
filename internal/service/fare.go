package service

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// FareService computes fares from region pricing and time-windowed surge.
// Every computation yields an immutable snapshot of the exact inputs, so a
// later pricing change can never rewrite history.
type FareService struct {
	pricingRepo repository.PricingRepository
	regionRepo  repository.RegionRepository
	cacheStore  redis.CacheStoreInterface // optional
}

// NewFareService creates a new FareService.
func NewFareService(pricingRepo repository.PricingRepository, regionRepo repository.RegionRepository, cacheStore redis.CacheStoreInterface) *FareService {
	return &FareService{
		pricingRepo: pricingRepo,
		regionRepo:  regionRepo,
		cacheStore:  cacheStore,
	}
}

// FareRequest contains the inputs of a fare computation.
type FareRequest struct {
	RegionCode    string
	VehicleTypeID int16
	DistanceKm    float64
	DurationMin   float64
	At            time.Time // zero means now
}

// FareBreakdown is the component-wise result of a fare computation.
type FareBreakdown struct {
	BaseFare        float64
	DistanceFare    float64
	TimeFare        float64
	SurgeMultiplier float64
	TaxAmount       float64
	FinalFare       float64
	Currency        string
	ComputedAt      time.Time
}

// Quote computes a fare breakdown without persisting anything. Missing
// pricing is a hard failure, never a silent default.
func (s *FareService) Quote(ctx context.Context, req FareRequest) (*FareBreakdown, error) {
	if req.DistanceKm < 0 || req.DurationMin < 0 {
		return nil, ErrInvalidAmount
	}

	at := req.At
	if at.IsZero() {
		at = time.Now()
	}

	cfg, err := s.getPricing(ctx, req.RegionCode, req.VehicleTypeID)
	if err != nil {
		return nil, err
	}

	region, err := s.regionRepo.GetByCode(ctx, req.RegionCode)
	if err != nil {
		return nil, err
	}

	multiplier := 1.0
	if region.SurgeEnabled {
		multiplier, err = s.surgeMultiplier(ctx, req.RegionCode, at)
		if err != nil {
			return nil, err
		}
	}

	base := cfg.BaseFare
	distance := cfg.RatePerKm * req.DistanceKm
	duration := cfg.RatePerMin * req.DurationMin
	tax := 0.0
	final := (base+distance+duration)*multiplier + tax

	return &FareBreakdown{
		BaseFare:        base,
		DistanceFare:    distance,
		TimeFare:        duration,
		SurgeMultiplier: multiplier,
		TaxAmount:       tax,
		FinalFare:       final,
		Currency:        region.CurrencyCode,
		ComputedAt:      at,
	}, nil
}

// ComputeAndSnapshot computes the fare for a ride and persists the
// breakdown as an immutable snapshot.
func (s *FareService) ComputeAndSnapshot(ctx context.Context, rideID, riderID string, req FareRequest) (*FareBreakdown, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	breakdown, err := s.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.pricingRepo.CreateSnapshot(ctx, &domain.FareSnapshot{
		RideID:          rideID,
		RiderID:         riderID,
		BaseFare:        breakdown.BaseFare,
		DistanceFare:    breakdown.DistanceFare,
		TimeFare:        breakdown.TimeFare,
		SurgeMultiplier: breakdown.SurgeMultiplier,
		TaxAmount:       breakdown.TaxAmount,
		FinalFare:       breakdown.FinalFare,
		Currency:        breakdown.Currency,
		ComputedAt:      breakdown.ComputedAt,
	}); err != nil {
		return nil, err
	}

	return breakdown, nil
}

// SetPricing creates or replaces a pricing row and drops any cached copy.
func (s *FareService) SetPricing(ctx context.Context, cfg *domain.PricingConfig) error {
	if cfg.BaseFare < 0 || cfg.RatePerKm < 0 || cfg.RatePerMin < 0 {
		return ErrInvalidAmount
	}
	if err := s.pricingRepo.UpsertConfig(ctx, cfg); err != nil {
		return err
	}
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidatePricing(ctx, cfg.RegionCode, cfg.VehicleTypeID)
	}
	return nil
}

// AddSurgeWindow appends a surge window and drops the region's cached
// surge entry so the new window is visible immediately.
func (s *FareService) AddSurgeWindow(ctx context.Context, surge *domain.SurgePricing) error {
	if surge.Multiplier < 1.0 {
		return ErrInvalidAmount
	}
	if !surge.ExpiresAt.After(surge.EffectiveFrom) {
		return ErrInvalidSurgeWindow
	}
	if err := s.pricingRepo.CreateSurge(ctx, surge); err != nil {
		return err
	}
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateSurge(ctx, surge.RegionCode)
	}
	return nil
}

// getPricing reads the pricing row through the cache when one is wired.
func (s *FareService) getPricing(ctx context.Context, regionCode string, vehicleTypeID int16) (*domain.PricingConfig, error) {
	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetPricing(ctx, regionCode, vehicleTypeID)
		if err == nil && cached != nil {
			return &domain.PricingConfig{
				RegionCode:    cached.RegionCode,
				VehicleTypeID: cached.VehicleTypeID,
				BaseFare:      cached.BaseFare,
				RatePerKm:     cached.RatePerKm,
				RatePerMin:    cached.RatePerMin,
			}, nil
		}
	}

	cfg, err := s.pricingRepo.GetConfig(ctx, regionCode, vehicleTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPricingNotFound
		}
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetPricing(ctx, &redis.CachedPricing{
			RegionCode:    cfg.RegionCode,
			VehicleTypeID: cfg.VehicleTypeID,
			BaseFare:      cfg.BaseFare,
			RatePerKm:     cfg.RatePerKm,
			RatePerMin:    cfg.RatePerMin,
		})
	}

	return cfg, nil
}

// surgeMultiplier resolves the multiplier active at the given instant,
// defaulting to 1.0 when no window covers it.
func (s *FareService) surgeMultiplier(ctx context.Context, regionCode string, at time.Time) (float64, error) {
	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetSurge(ctx, regionCode)
		if err == nil && cached != nil && cached.Covers(at) {
			return cached.Multiplier, nil
		}
	}

	surge, err := s.pricingRepo.ActiveSurge(ctx, regionCode, at)
	if err != nil {
		return 0, err
	}
	if surge == nil {
		return 1.0, nil
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetSurge(ctx, &redis.CachedSurge{
			RegionCode:    surge.RegionCode,
			Multiplier:    surge.Multiplier,
			EffectiveFrom: surge.EffectiveFrom.Unix(),
			ExpiresAt:     surge.ExpiresAt.Unix(),
		})
	}

	return surge.Multiplier, nil
}
