package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// AssignDriver binds the winning driver (and optionally a vehicle) to
	// the ride.
	AssignDriver(ctx context.Context, rideID, driverID, vehicleID string) error

	// SetStartedAt stamps the ride start time.
	SetStartedAt(ctx context.Context, rideID string, at time.Time) error

	// SetEndedAt stamps the ride end time.
	SetEndedAt(ctx context.Context, rideID string, at time.Time) error
}

// RideDetailsRepository defines the persistence operations for the
// rider-facing ride detail row, the primary contended resource of the
// dispatch core.
type RideDetailsRepository interface {
	// Create persists a new detail row.
	Create(ctx context.Context, details *domain.RideDetails) error

	// GetByRideID retrieves the detail row for a ride.
	GetByRideID(ctx context.Context, rideID string) (*domain.RideDetails, error)

	// GetByRideIDForUpdate retrieves the detail row under an exclusive row
	// lock. Only meaningful on a transaction-scoped repository; the lock is
	// held until the transaction commits or rolls back.
	GetByRideIDForUpdate(ctx context.Context, rideID string) (*domain.RideDetails, error)

	// UpdateStatus sets the lifecycle status of the detail row.
	UpdateStatus(ctx context.Context, rideID string, status domain.RideStatus) error

	// MarkVerified flips verification_status to true and sets the given
	// status in one statement.
	MarkVerified(ctx context.Context, rideID string, status domain.RideStatus) error

	// FindBookedInCells returns BOOKED rides whose pickup cell is in cells,
	// excluding rides the given driver has rejected, oldest booking first.
	FindBookedInCells(ctx context.Context, cells []string, excludeDriverID string) ([]*domain.RideDetails, error)

	// ListByRider returns a rider's rides, newest first.
	ListByRider(ctx context.Context, riderID string) ([]*domain.RideDetails, error)
}
