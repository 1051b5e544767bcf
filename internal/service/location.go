package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/geo"
	"dispatch/internal/repository"
)

// LocationService handles driver location ingest and per-ride pings.
type LocationService struct {
	driverRepo      repository.DriverRepository
	locationLogRepo repository.LocationLogRepository
}

// NewLocationService creates a new LocationService.
func NewLocationService(driverRepo repository.DriverRepository, locationLogRepo repository.LocationLogRepository) *LocationService {
	return &LocationService{
		driverRepo:      driverRepo,
		locationLogRepo: locationLogRepo,
	}
}

// UpdateDriverLocation stores the driver's reported cell index. The raw
// fine-grained index is kept as reported; matching coarsens it on read.
func (s *LocationService) UpdateDriverLocation(ctx context.Context, driverID, cellIndex string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if _, err := geo.CellOf(cellIndex, geo.DispatchResolution); err != nil {
		return ErrInvalidCellIndex
	}
	return s.driverRepo.UpdateLocation(ctx, driverID, cellIndex, time.Now())
}

// LogRidePingRequest contains one driver ping during a ride.
type LogRidePingRequest struct {
	RideID         string
	DriverID       string
	Latitude       float64
	Longitude      float64
	HeadingTowards string
	CellIndex      string
	SpeedKmh       float64
}

// LogRidePing appends a ping to the ride's location trail. A ping that
// carries a cell index also refreshes the driver's current cell, so an
// on-ride driver stays current for the next matching pass.
func (s *LocationService) LogRidePing(ctx context.Context, req LogRidePingRequest) error {
	if req.RideID == "" {
		return ErrInvalidRideID
	}
	if req.DriverID == "" {
		return ErrInvalidDriverID
	}

	if req.CellIndex != "" {
		if err := s.driverRepo.UpdateLocation(ctx, req.DriverID, req.CellIndex, time.Now()); err != nil {
			return err
		}
	}

	return s.locationLogRepo.Append(ctx, &domain.RideLocationLog{
		LogID:          uuid.New().String(),
		RideID:         req.RideID,
		DriverID:       req.DriverID,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		HeadingTowards: req.HeadingTowards,
		CellIndex:      req.CellIndex,
		SpeedKmh:       req.SpeedKmh,
		UpdatedAt:      time.Now(),
	})
}
