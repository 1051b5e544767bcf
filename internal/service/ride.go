package service

import (
	"context"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// RideService serves read access to rides and their audit trail.
type RideService struct {
	rideRepo    repository.RideRepository
	detailsRepo repository.RideDetailsRepository
	eventRepo   repository.EventLogRepository
}

// NewRideService creates a new RideService.
func NewRideService(rideRepo repository.RideRepository, detailsRepo repository.RideDetailsRepository, eventRepo repository.EventLogRepository) *RideService {
	return &RideService{
		rideRepo:    rideRepo,
		detailsRepo: detailsRepo,
		eventRepo:   eventRepo,
	}
}

// RideView pairs the platform ride row with its rider-facing details.
type RideView struct {
	Ride    *domain.Ride
	Details *domain.RideDetails
}

// GetRide retrieves a ride and its detail row.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*RideView, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	details, err := s.detailsRepo.GetByRideID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	return &RideView{Ride: ride, Details: details}, nil
}

// RideEvents returns a ride's audit entries, oldest first.
func (s *RideService) RideEvents(ctx context.Context, rideID string) ([]*domain.EventLog, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if _, err := s.detailsRepo.GetByRideID(ctx, rideID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListByRide(ctx, rideID)
}
