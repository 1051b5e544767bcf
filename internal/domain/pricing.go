package domain

import "time"

// PricingConfig holds the fare parameters for a (tenant, region, vehicle
// type) scope.
type PricingConfig struct {
	ID            int64
	TenantID      string
	RegionCode    string
	VehicleTypeID int16
	BaseFare      float64
	RatePerKm     float64
	RatePerMin    float64
	UpdatedAt     time.Time
}

// SurgePricing is a time-bounded surge multiplier for a region. Multiple
// rows may exist per region; the active one is the row whose
// [EffectiveFrom, ExpiresAt) window contains the lookup instant.
type SurgePricing struct {
	ID            int64
	RegionCode    string
	Multiplier    float64
	EffectiveFrom time.Time
	ExpiresAt     time.Time
}

// ActiveAt reports whether the surge window contains the given instant.
func (s SurgePricing) ActiveAt(at time.Time) bool {
	return !s.EffectiveFrom.After(at) && s.ExpiresAt.After(at)
}

// FareSnapshot is the immutable record of the exact fare components used
// for a ride. Created once per computation, never edited.
type FareSnapshot struct {
	ID              int64
	RideID          string
	RiderID         string
	BaseFare        float64
	DistanceFare    float64
	TimeFare        float64
	SurgeMultiplier float64
	TaxAmount       float64
	FinalFare       float64
	Currency        string
	ComputedAt      time.Time
}
