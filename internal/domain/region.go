package domain

import "time"

// Region is the pricing/service area rides are booked in. CurrencyCode and
// Timezone are copied onto each ride at booking.
type Region struct {
	Code          string
	CountryCode   string
	Name          string
	CurrencyCode  string
	Timezone      string
	SurgeEnabled  bool
	ServiceActive bool
	CreatedAt     time.Time
}
