package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
	"dispatch/internal/repository/postgres"
)

// RideLockTTL bounds how long a crashed accept or cancel can keep a ride
// locked.
const RideLockTTL = 10 * time.Second

// DispatchService handles the contended ride mutations: accept, reject
// and cancel. Accept and cancel share one serialization discipline, a
// Redis keyed lock on the ride plus a row lock on the detail row inside
// the transaction.
type DispatchService struct {
	db          *sql.DB
	detailsRepo repository.RideDetailsRepository
	driverRepo  repository.DriverRepository
	rejectRepo  repository.RejectionRepository
	lockStore   redis.LockStoreInterface
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(
	db *sql.DB,
	detailsRepo repository.RideDetailsRepository,
	driverRepo repository.DriverRepository,
	rejectRepo repository.RejectionRepository,
	lockStore redis.LockStoreInterface,
) *DispatchService {
	return &DispatchService{
		db:          db,
		detailsRepo: detailsRepo,
		driverRepo:  driverRepo,
		rejectRepo:  rejectRepo,
		lockStore:   lockStore,
	}
}

// AcceptRideRequest contains the parameters for a driver accepting a ride.
type AcceptRideRequest struct {
	RideID   string
	DriverID string
	OTP      int
}

// AcceptRideResponse contains the result of a successful accept.
type AcceptRideResponse struct {
	Details   *domain.RideDetails
	VehicleID string // empty when the driver has no active vehicle assignment
}

// AcceptRide atomically assigns the ride to the driver. Exactly one
// concurrent accept can win: the checks and writes all happen against a
// row-locked detail row, in order status, verification, OTP, so losers
// get the most specific conflict error their timing allows.
func (s *DispatchService) AcceptRide(ctx context.Context, req AcceptRideRequest) (resp *AcceptRideResponse, err error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	if _, err = s.driverRepo.GetByID(ctx, req.DriverID); err != nil {
		return nil, err
	}

	acquired, err := s.lockStore.AcquireRideLock(ctx, req.RideID, RideLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrDispatchContention
	}
	defer func() {
		_ = s.lockStore.ReleaseRideLock(ctx, req.RideID)
	}()

	// Lock the driver too, so one driver cannot win two rides at once.
	// Always taken after the ride lock.
	acquired, err = s.lockStore.AcquireDriverLock(ctx, req.DriverID, RideLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrDispatchContention
	}
	defer func() {
		_ = s.lockStore.ReleaseDriverLock(ctx, req.DriverID)
	}()

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
	txDriverRepo := postgres.NewDriverRepositoryWithTx(tx)
	txEventRepo := postgres.NewEventLogRepositoryWithTx(tx)

	details, err := txDetailsRepo.GetByRideIDForUpdate(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	if details.Status != domain.RideStatusBooked {
		err = ErrRideAlreadyAssigned
		return nil, err
	}
	if details.Verified {
		err = ErrOTPAlreadyVerified
		return nil, err
	}
	if details.OTP != req.OTP {
		err = ErrInvalidOTP
		return nil, err
	}

	now := time.Now()

	if err = txDetailsRepo.MarkVerified(ctx, req.RideID, domain.RideStatusDriverAssigned); err != nil {
		return nil, err
	}

	assignment, err := txDriverRepo.ActiveVehicleAssignment(ctx, req.DriverID, now)
	if err != nil {
		return nil, err
	}
	vehicleID := ""
	if assignment != nil {
		vehicleID = assignment.VehicleID
	}

	if err = txRideRepo.AssignDriver(ctx, req.RideID, req.DriverID, vehicleID); err != nil {
		return nil, err
	}
	if err = txDriverRepo.UpdateStatus(ctx, req.DriverID, domain.DriverStatusOnRide); err != nil {
		return nil, err
	}
	if err = txEventRepo.Append(ctx, &domain.EventLog{
		EventID:   uuid.New().String(),
		RideID:    req.RideID,
		Status:    domain.RideStatusDriverAssigned,
		EventTime: now,
	}); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	details.Status = domain.RideStatusDriverAssigned
	details.Verified = true

	return &AcceptRideResponse{Details: details, VehicleID: vehicleID}, nil
}

// RejectRide records that the driver declined the ride, permanently
// excluding the pair from matching. Duplicate rejects are accepted and
// collapse at query time.
func (s *DispatchService) RejectRide(ctx context.Context, rideID, driverID string) error {
	if rideID == "" {
		return ErrInvalidRideID
	}
	if driverID == "" {
		return ErrInvalidDriverID
	}

	// Rejecting a ride that has moved on is harmless but a missing ride
	// is a caller error.
	if _, err := s.detailsRepo.GetByRideID(ctx, rideID); err != nil {
		return err
	}

	return s.rejectRepo.Append(ctx, &domain.DriverRideRejection{
		RejectionID: uuid.New().String(),
		RideID:      rideID,
		DriverID:    driverID,
		RejectedAt:  time.Now(),
	})
}

// CancelRideRequest contains the parameters for cancelling a ride.
// Exactly one of RiderID and DriverID must be set.
type CancelRideRequest struct {
	RideID   string
	RiderID  string
	DriverID string
	Reason   string
}

// CancelRide moves the ride to CANCELLED under the same lock discipline
// as AcceptRide, so a cancel and an accept racing on one ride serialize
// instead of interleaving.
func (s *DispatchService) CancelRide(ctx context.Context, req CancelRideRequest) (err error) {
	if req.RideID == "" {
		return ErrInvalidRideID
	}
	if (req.RiderID == "") == (req.DriverID == "") {
		return ErrCancelActorRequired
	}

	acquired, err := s.lockStore.AcquireRideLock(ctx, req.RideID, RideLockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrDispatchContention
	}
	defer func() {
		_ = s.lockStore.ReleaseRideLock(ctx, req.RideID)
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	txDetailsRepo := postgres.NewRideDetailsRepositoryWithTx(tx)
	txEventRepo := postgres.NewEventLogRepositoryWithTx(tx)
	txCancelRepo := postgres.NewCancellationLogRepositoryWithTx(tx)
	txDriverRepo := postgres.NewDriverRepositoryWithTx(tx)

	details, err := txDetailsRepo.GetByRideIDForUpdate(ctx, req.RideID)
	if err != nil {
		return err
	}

	if !details.Status.CanTransitionTo(domain.RideStatusCancelled) {
		err = ErrInvalidTransition
		return err
	}

	now := time.Now()

	if err = txDetailsRepo.UpdateStatus(ctx, req.RideID, domain.RideStatusCancelled); err != nil {
		return err
	}
	if err = txEventRepo.Append(ctx, &domain.EventLog{
		EventID:   uuid.New().String(),
		RideID:    req.RideID,
		Status:    domain.RideStatusCancelled,
		EventTime: now,
	}); err != nil {
		return err
	}
	if err = txCancelRepo.Append(ctx, &domain.RideCancellationLog{
		CancellationID: uuid.New().String(),
		RideID:         req.RideID,
		CancelledBy:    req.RiderID,
		CancelledByDrv: req.DriverID,
		Reason:         req.Reason,
		CancelledAt:    now,
	}); err != nil {
		return err
	}

	// A driver who cancels an assigned ride goes back to the pool.
	if req.DriverID != "" && details.Status != domain.RideStatusBooked {
		if err = txDriverRepo.UpdateStatus(ctx, req.DriverID, domain.DriverStatusOnline); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpdateRideStatus advances the ride through DRIVER_ASSIGNED -> ONGOING ->
// COMPLETED, stamping start and end times on the way. Cancellation goes
// through CancelRide, never here.
func (s *DispatchService) UpdateRideStatus(ctx context.Context, rideID string, next domain.RideStatus) (err error) {
	if rideID == "" {
		return ErrInvalidRideID
	}
	if next == domain.RideStatusCancelled {
		return ErrInvalidTransition
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
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
	txDriverRepo := postgres.NewDriverRepositoryWithTx(tx)

	details, err := txDetailsRepo.GetByRideIDForUpdate(ctx, rideID)
	if err != nil {
		return err
	}

	if !details.Status.CanTransitionTo(next) {
		err = ErrInvalidTransition
		return err
	}

	now := time.Now()

	if err = txDetailsRepo.UpdateStatus(ctx, rideID, next); err != nil {
		return err
	}

	switch next {
	case domain.RideStatusOngoing:
		if err = txRideRepo.SetStartedAt(ctx, rideID, now); err != nil {
			return err
		}
	case domain.RideStatusCompleted:
		if err = txRideRepo.SetEndedAt(ctx, rideID, now); err != nil {
			return err
		}
		ride, rideErr := txRideRepo.GetByID(ctx, rideID)
		if rideErr != nil {
			err = rideErr
			return err
		}
		if ride.DriverID != "" {
			if err = txDriverRepo.UpdateStatus(ctx, ride.DriverID, domain.DriverStatusOnline); err != nil {
				return err
			}
		}
	}

	if err = txEventRepo.Append(ctx, &domain.EventLog{
		EventID:   uuid.New().String(),
		RideID:    rideID,
		Status:    next,
		EventTime: now,
	}); err != nil {
		return err
	}

	return tx.Commit()
}
