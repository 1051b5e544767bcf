package repository

import (
	"context"

	"dispatch/internal/domain"
)

// EventLogRepository is the insert-only audit trail of status transitions.
// No update or delete operations exist by contract.
type EventLogRepository interface {
	Append(ctx context.Context, entry *domain.EventLog) error
	ListByRide(ctx context.Context, rideID string) ([]*domain.EventLog, error)
}

// CancellationLogRepository is the insert-only log of ride cancellations.
type CancellationLogRepository interface {
	Append(ctx context.Context, entry *domain.RideCancellationLog) error
}

// RejectionRepository is the insert-only store of driver ride rejections.
type RejectionRepository interface {
	Append(ctx context.Context, rejection *domain.DriverRideRejection) error
	ListRideIDsByDriver(ctx context.Context, driverID string) ([]string, error)
}

// LocationLogRepository is the insert-only trail of driver pings per ride.
type LocationLogRepository interface {
	Append(ctx context.Context, entry *domain.RideLocationLog) error
}
