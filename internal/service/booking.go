package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"math/big"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/geo"
	"dispatch/internal/repository"
	"dispatch/internal/repository/postgres"
)

// BookingService handles ride creation.
type BookingService struct {
	db          *sql.DB
	regionRepo  repository.RegionRepository
	detailsRepo repository.RideDetailsRepository
}

// NewBookingService creates a new BookingService.
func NewBookingService(db *sql.DB, regionRepo repository.RegionRepository, detailsRepo repository.RideDetailsRepository) *BookingService {
	return &BookingService{
		db:          db,
		regionRepo:  regionRepo,
		detailsRepo: detailsRepo,
	}
}

// BookRideRequest contains the parameters for booking a ride.
type BookRideRequest struct {
	RiderID       string
	RegionCode    string
	FromCell      string // raw H3 index of the pickup point
	ToCell        string // raw H3 index of the drop-off point
	EstimatedFare float64
	ETASeconds    int
}

// BookRideResponse contains the result of booking a ride.
type BookRideResponse struct {
	Ride    *domain.Ride
	Details *domain.RideDetails
}

// BookRide creates a ride in BOOKED state. The ride row, its rider-facing
// detail row with a fresh OTP, and the first audit entry are written in
// one transaction; the pickup cell is coarsened to the dispatch grid so
// matching never has to re-derive it.
func (s *BookingService) BookRide(ctx context.Context, req BookRideRequest) (resp *BookRideResponse, err error) {
	if req.RiderID == "" {
		return nil, ErrInvalidRiderID
	}

	fromCell, err := geo.CellOf(req.FromCell, geo.DispatchResolution)
	if err != nil {
		return nil, ErrInvalidCellIndex
	}
	toCell, err := geo.CellOf(req.ToCell, geo.DispatchResolution)
	if err != nil {
		return nil, ErrInvalidCellIndex
	}

	region, err := s.regionRepo.GetByCode(ctx, req.RegionCode)
	if err != nil {
		return nil, err
	}
	if !region.ServiceActive {
		return nil, ErrRegionNotServiceable
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ride := &domain.Ride{
		ID:           uuid.New().String(),
		RegionCode:   region.Code,
		CurrencyCode: region.CurrencyCode,
		Timezone:     region.Timezone,
		ETASeconds:   req.ETASeconds,
		UpdatedAt:    now,
	}
	details := &domain.RideDetails{
		RideID:    ride.ID,
		RiderID:   req.RiderID,
		OTP:       otp,
		FromCell:  fromCell,
		ToCell:    toCell,
		Fare:      req.EstimatedFare,
		Status:    domain.RideStatusBooked,
		Verified:  false,
		CreatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	txRideRepo := postgres.NewRideRepositoryWithTx(tx)
	txDetailsRepo := postgres.NewRideDetailsRepositoryWithTx(tx)
	txEventRepo := postgres.NewEventLogRepositoryWithTx(tx)

	if err = txRideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}
	if err = txDetailsRepo.Create(ctx, details); err != nil {
		return nil, err
	}
	if err = txEventRepo.Append(ctx, &domain.EventLog{
		EventID:   uuid.New().String(),
		RideID:    ride.ID,
		Status:    domain.RideStatusBooked,
		EventTime: now,
	}); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &BookRideResponse{Ride: ride, Details: details}, nil
}

// ListPreviousRides returns a rider's rides, newest first.
func (s *BookingService) ListPreviousRides(ctx context.Context, riderID string) ([]*domain.RideDetails, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	return s.detailsRepo.ListByRider(ctx, riderID)
}

// generateOTP draws a uniform six-digit code from crypto/rand.
func generateOTP() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + 100000, nil
}
