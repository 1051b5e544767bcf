package domain

import "time"

// DriverStatus represents the online status of a driver.
type DriverStatus string

const (
	DriverStatusOnline  DriverStatus = "ONLINE"
	DriverStatusOffline DriverStatus = "OFFLINE"
	DriverStatusOnRide  DriverStatus = "ON_RIDE"
)

// Driver represents a driver in the system. CurrentCell holds the raw
// fine-grained H3 index written by the location-ingest surface; the
// dispatch core only reads it.
type Driver struct {
	ID                string
	UserID            string
	LicenceNumber     string
	Rating            float64
	Status            DriverStatus
	CurrentCell       string // empty when the driver has never reported a location
	LocationUpdatedAt time.Time
}

// Vehicle represents a vehicle owned by a fleet tenant.
type Vehicle struct {
	ID            string
	FleetTenantID string
	Number        string
	VehicleTypeID int16
}

// VehicleAssignment binds a vehicle to a driver for a time window.
type VehicleAssignment struct {
	ID        int64
	VehicleID string
	DriverID  string
	StartTime time.Time
	EndTime   time.Time
}

// Active reports whether the assignment window contains the given instant.
func (a VehicleAssignment) Active(at time.Time) bool {
	return !a.StartTime.After(at) && !a.EndTime.Before(at)
}
