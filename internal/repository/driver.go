package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// UpdateLocation stores the driver's raw cell index and ping time.
	UpdateLocation(ctx context.Context, id, cellIndex string, at time.Time) error

	// UpdateStatus updates the online status of a driver.
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error

	// ActiveVehicleAssignment returns the vehicle assignment whose window
	// contains the given instant, first match by assignment start time.
	// Returns nil without error when the driver has no active assignment.
	ActiveVehicleAssignment(ctx context.Context, driverID string, at time.Time) (*domain.VehicleAssignment, error)
}
