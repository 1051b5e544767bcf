package service

import (
	"context"

	"dispatch/internal/domain"
	"dispatch/internal/geo"
	"dispatch/internal/repository"
)

// MatchingServiceInterface defines the matching service contract.
// This interface allows for testing with mock implementations.
type MatchingServiceInterface interface {
	Candidates(ctx context.Context, req CandidatesRequest) ([]*domain.RideDetails, error)
}

// Ensure MatchingService implements MatchingServiceInterface.
var _ MatchingServiceInterface = (*MatchingService)(nil)

// Ring radius bounds. A radius of 1 covers the driver's cell plus its six
// neighbours; wider rings trade precision for reach.
const (
	MinRingRadius     = 1
	MaxRingRadius     = 3
	DefaultRingRadius = 1
)

// MatchingService surfaces open bookings near a driver. Read-only: it
// never mutates rides, so two drivers may see the same candidate and race
// to accept it.
type MatchingService struct {
	detailsRepo repository.RideDetailsRepository
	driverRepo  repository.DriverRepository
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(detailsRepo repository.RideDetailsRepository, driverRepo repository.DriverRepository) *MatchingService {
	return &MatchingService{
		detailsRepo: detailsRepo,
		driverRepo:  driverRepo,
	}
}

// CandidatesRequest contains the parameters for a candidate search.
type CandidatesRequest struct {
	DriverID   string
	RingRadius int // 0 means DefaultRingRadius
}

// Candidates returns the BOOKED rides whose pickup cell falls within the
// driver's search ring, minus rides the driver has rejected, oldest
// booking first. A driver who has never reported a location gets an empty
// result, not an error.
func (s *MatchingService) Candidates(ctx context.Context, req CandidatesRequest) ([]*domain.RideDetails, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	radius := req.RingRadius
	if radius == 0 {
		radius = DefaultRingRadius
	}
	if radius < MinRingRadius {
		radius = MinRingRadius
	}
	if radius > MaxRingRadius {
		radius = MaxRingRadius
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if driver.CurrentCell == "" {
		return nil, nil
	}

	cell, err := geo.CellOf(driver.CurrentCell, geo.DispatchResolution)
	if err != nil {
		return nil, ErrInvalidCellIndex
	}

	ring, err := geo.Ring(cell, radius)
	if err != nil {
		return nil, err
	}

	return s.detailsRepo.FindBookedInCells(ctx, ring, req.DriverID)
}
