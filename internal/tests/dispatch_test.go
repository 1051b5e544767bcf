package tests

import (
	"context"
	"database/sql/driver"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// acceptEngine replays the accept discipline against the mocks: keyed
// lock, row read, the status / verification / OTP checks in that order,
// then the assignment writes. It exists so the single-winner and
// check-order behaviour can be exercised without a database.
type acceptEngine struct {
	detailsRepo *MockRideDetailsRepository
	rideRepo    *MockRideRepository
	driverRepo  *MockDriverRepository
	eventRepo   *MockEventLogRepository
	lockStore   *MockLockStore
}

func newAcceptEngine() *acceptEngine {
	return &acceptEngine{
		detailsRepo: NewMockRideDetailsRepository(),
		rideRepo:    NewMockRideRepository(),
		driverRepo:  NewMockDriverRepository(),
		eventRepo:   NewMockEventLogRepository(),
		lockStore:   NewMockLockStore(),
	}
}

func (e *acceptEngine) accept(ctx context.Context, rideID, driverID string, otp int) error {
	acquired, err := e.lockStore.AcquireRideLock(ctx, rideID, service.RideLockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return service.ErrDispatchContention
	}
	defer func() {
		_ = e.lockStore.ReleaseRideLock(ctx, rideID)
	}()

	acquired, err = e.lockStore.AcquireDriverLock(ctx, driverID, service.RideLockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return service.ErrDispatchContention
	}
	defer func() {
		_ = e.lockStore.ReleaseDriverLock(ctx, driverID)
	}()

	details, err := e.detailsRepo.GetByRideIDForUpdate(ctx, rideID)
	if err != nil {
		return err
	}

	if details.Status != domain.RideStatusBooked {
		return service.ErrRideAlreadyAssigned
	}
	if details.Verified {
		return service.ErrOTPAlreadyVerified
	}
	if details.OTP != otp {
		return service.ErrInvalidOTP
	}

	now := time.Now()
	if err := e.detailsRepo.MarkVerified(ctx, rideID, domain.RideStatusDriverAssigned); err != nil {
		return err
	}
	if err := e.rideRepo.AssignDriver(ctx, rideID, driverID, ""); err != nil {
		return err
	}
	if err := e.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusOnRide); err != nil {
		return err
	}
	return e.eventRepo.Append(ctx, &domain.EventLog{
		RideID:    rideID,
		Status:    domain.RideStatusDriverAssigned,
		EventTime: now,
	})
}

func (e *acceptEngine) seedBookedRide(rideID string, otp int) {
	e.rideRepo.AddRide(&domain.Ride{ID: rideID})
	e.detailsRepo.AddDetails(&domain.RideDetails{
		RideID:    rideID,
		RiderID:   "rider-1",
		OTP:       otp,
		Status:    domain.RideStatusBooked,
		CreatedAt: time.Now(),
	})
}

func TestAccept_SingleWinnerUnderContention(t *testing.T) {
	ctx := context.Background()
	engine := newAcceptEngine()
	engine.seedBookedRide("ride-1", 482913)
	for i := 0; i < 10; i++ {
		engine.driverRepo.AddDriver(&domain.Driver{
			ID:     "driver-" + string(rune('a'+i)),
			Status: domain.DriverStatusOnline,
		})
	}

	var wins, losses int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(driverID string) {
			defer wg.Done()
			err := engine.accept(ctx, "ride-1", driverID, 482913)
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, service.ErrDispatchContention),
				errors.Is(err, service.ErrRideAlreadyAssigned):
				atomic.AddInt32(&losses, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}("driver-" + string(rune('a'+i)))
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly 1 winner, got %d", wins)
	}
	if losses != 9 {
		t.Errorf("expected 9 losers, got %d", losses)
	}

	details := engine.detailsRepo.GetDetails("ride-1")
	if details.Status != domain.RideStatusDriverAssigned || !details.Verified {
		t.Errorf("expected an assigned, verified ride, got %+v", details)
	}
	if got := engine.rideRepo.GetRide("ride-1").DriverID; got == "" {
		t.Error("expected the winning driver on the ride")
	}
	if entries := engine.eventRepo.EntriesForRide("ride-1"); len(entries) != 1 {
		t.Errorf("expected exactly 1 audit entry, got %d", len(entries))
	}
}

func TestAccept_WrongOTPLeavesRideUntouched(t *testing.T) {
	ctx := context.Background()
	engine := newAcceptEngine()
	engine.seedBookedRide("ride-1", 482913)
	engine.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnline})

	err := engine.accept(ctx, "ride-1", "driver-1", 111111)
	if !errors.Is(err, service.ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}

	details := engine.detailsRepo.GetDetails("ride-1")
	if details.Status != domain.RideStatusBooked || details.Verified {
		t.Errorf("expected an untouched booked ride, got %+v", details)
	}
	if engine.rideRepo.GetRide("ride-1").DriverID != "" {
		t.Error("expected no driver assignment after a failed OTP")
	}
	if len(engine.eventRepo.EntriesForRide("ride-1")) != 0 {
		t.Error("expected no audit entries after a failed OTP")
	}

	// The failed attempt must not leave the ride locked.
	if engine.lockStore.IsRideLocked("ride-1") {
		t.Error("expected the ride lock to be released")
	}

	// A correct retry then succeeds.
	if err := engine.accept(ctx, "ride-1", "driver-1", 482913); err != nil {
		t.Errorf("expected the retry to succeed, got %v", err)
	}
}

func TestAccept_ChecksRunInOrder(t *testing.T) {
	ctx := context.Background()

	// A ride past BOOKED reports the assignment conflict even when the
	// OTP is also wrong.
	engine := newAcceptEngine()
	engine.rideRepo.AddRide(&domain.Ride{ID: "ride-1"})
	engine.detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-1", OTP: 482913, Verified: true,
		Status: domain.RideStatusDriverAssigned,
	})
	err := engine.accept(ctx, "ride-1", "driver-1", 111111)
	if !errors.Is(err, service.ErrRideAlreadyAssigned) {
		t.Errorf("expected ErrRideAlreadyAssigned, got %v", err)
	}

	// A verified but still-booked ride reports the verification conflict.
	engine = newAcceptEngine()
	engine.rideRepo.AddRide(&domain.Ride{ID: "ride-2"})
	engine.detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-2", OTP: 482913, Verified: true,
		Status: domain.RideStatusBooked,
	})
	err = engine.accept(ctx, "ride-2", "driver-1", 111111)
	if !errors.Is(err, service.ErrOTPAlreadyVerified) {
		t.Errorf("expected ErrOTPAlreadyVerified, got %v", err)
	}
}

func TestAccept_BusyDriverCannotTakeSecondRide(t *testing.T) {
	ctx := context.Background()
	engine := newAcceptEngine()
	engine.seedBookedRide("ride-1", 482913)
	engine.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnline})

	// Another accept for the same driver is in flight.
	if ok, _ := engine.lockStore.AcquireDriverLock(ctx, "driver-1", service.RideLockTTL); !ok {
		t.Fatal("failed to pre-acquire the driver lock")
	}

	err := engine.accept(ctx, "ride-1", "driver-1", 482913)
	if !errors.Is(err, service.ErrDispatchContention) {
		t.Fatalf("expected ErrDispatchContention, got %v", err)
	}
	if got := engine.detailsRepo.GetDetails("ride-1").Status; got != domain.RideStatusBooked {
		t.Errorf("expected the ride to stay BOOKED, got %s", got)
	}

	// Once the other accept finishes, this driver can take the ride.
	_ = engine.lockStore.ReleaseDriverLock(ctx, "driver-1")
	if err := engine.accept(ctx, "ride-1", "driver-1", 482913); err != nil {
		t.Errorf("expected the accept to succeed, got %v", err)
	}
}

func TestAcceptRide_ValidatesBeforeLocking(t *testing.T) {
	ctx := context.Background()

	driverRepo := NewMockDriverRepository()
	lockStore := NewMockLockStore()
	svc := service.NewDispatchService(nil, NewMockRideDetailsRepository(), driverRepo, NewMockRejectionRepository(), lockStore)

	if _, err := svc.AcceptRide(ctx, service.AcceptRideRequest{DriverID: "driver-1"}); !errors.Is(err, service.ErrInvalidRideID) {
		t.Errorf("expected ErrInvalidRideID, got %v", err)
	}
	if _, err := svc.AcceptRide(ctx, service.AcceptRideRequest{RideID: "ride-1"}); !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}

	// Unknown driver fails before any lock is taken.
	if _, err := svc.AcceptRide(ctx, service.AcceptRideRequest{RideID: "ride-1", DriverID: "ghost"}); err == nil {
		t.Error("expected an error for an unknown driver")
	}
	if lockStore.AcquireCallCount != 0 {
		t.Errorf("expected no lock attempts, got %d", lockStore.AcquireCallCount)
	}
}

func TestAcceptRide_ContentionWhenLockHeld(t *testing.T) {
	ctx := context.Background()

	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnline})

	lockStore := NewMockLockStore()
	lockStore.ForceAcquireFailure = true

	svc := service.NewDispatchService(nil, NewMockRideDetailsRepository(), driverRepo, NewMockRejectionRepository(), lockStore)

	_, err := svc.AcceptRide(ctx, service.AcceptRideRequest{RideID: "ride-1", DriverID: "driver-1", OTP: 482913})
	if !errors.Is(err, service.ErrDispatchContention) {
		t.Errorf("expected ErrDispatchContention, got %v", err)
	}
}

func TestRejectRide_AppendsAndCollapsesDuplicates(t *testing.T) {
	ctx := context.Background()

	detailsRepo := NewMockRideDetailsRepository()
	detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-1", Status: domain.RideStatusBooked,
	})
	rejectRepo := NewMockRejectionRepository()

	svc := service.NewDispatchService(nil, detailsRepo, NewMockDriverRepository(), rejectRepo, NewMockLockStore())

	if err := svc.RejectRide(ctx, "ride-1", "driver-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RejectRide(ctx, "ride-1", "driver-1"); err != nil {
		t.Fatalf("expected a duplicate reject to be accepted, got %v", err)
	}

	// Both rows are stored; the query-time view collapses them.
	if got := rejectRepo.CountRejections(); got != 2 {
		t.Errorf("expected 2 stored rows, got %d", got)
	}
	ids, err := rejectRepo.ListRideIDsByDriver(ctx, "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "ride-1" {
		t.Errorf("expected one distinct ride id, got %v", ids)
	}
}

func TestRejectRide_UnknownRide(t *testing.T) {
	ctx := context.Background()

	svc := service.NewDispatchService(nil, NewMockRideDetailsRepository(), NewMockDriverRepository(), NewMockRejectionRepository(), NewMockLockStore())

	if err := svc.RejectRide(ctx, "ghost", "driver-1"); err == nil {
		t.Error("expected an error for an unknown ride")
	}
}

func TestCancelRide_RequiresExactlyOneActor(t *testing.T) {
	ctx := context.Background()

	svc := service.NewDispatchService(nil, NewMockRideDetailsRepository(), NewMockDriverRepository(), NewMockRejectionRepository(), NewMockLockStore())

	err := svc.CancelRide(ctx, service.CancelRideRequest{RideID: "ride-1"})
	if !errors.Is(err, service.ErrCancelActorRequired) {
		t.Errorf("expected ErrCancelActorRequired with no actor, got %v", err)
	}

	err = svc.CancelRide(ctx, service.CancelRideRequest{
		RideID: "ride-1", RiderID: "rider-1", DriverID: "driver-1",
	})
	if !errors.Is(err, service.ErrCancelActorRequired) {
		t.Errorf("expected ErrCancelActorRequired with both actors, got %v", err)
	}
}

func TestCancelRide_ContentionWhenLockHeld(t *testing.T) {
	ctx := context.Background()

	lockStore := NewMockLockStore()
	lockStore.ForceAcquireFailure = true

	svc := service.NewDispatchService(nil, NewMockRideDetailsRepository(), NewMockDriverRepository(), NewMockRejectionRepository(), lockStore)

	err := svc.CancelRide(ctx, service.CancelRideRequest{RideID: "ride-1", RiderID: "rider-1"})
	if !errors.Is(err, service.ErrDispatchContention) {
		t.Errorf("expected ErrDispatchContention, got %v", err)
	}
}

func TestUpdateRideStatus_RejectsCancellation(t *testing.T) {
	ctx := context.Background()

	svc := service.NewDispatchService(nil, NewMockRideDetailsRepository(), NewMockDriverRepository(), NewMockRejectionRepository(), NewMockLockStore())

	err := svc.UpdateRideStatus(ctx, "ride-1", domain.RideStatusCancelled)
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

// The column set served by the stub for detail-row selects, matching the
// repository's scan order.
var stubDetailsColumns = []string{
	"ride_id", "rider_id", "otp", "from_location", "to_location",
	"ride_fare", "ride_status", "verification_status", "created_at",
}

func stubDetailsRow(d *domain.RideDetails) []driver.Value {
	return []driver.Value{
		d.RideID, d.RiderID, int64(d.OTP), d.FromCell, d.ToCell,
		d.Fare, int64(d.Status.Code()), d.Verified, d.CreatedAt,
	}
}

// The full accept discipline through the real service: keyed locks, then
// one transaction reading the row under FOR UPDATE, the writes in order,
// and a final commit.
func TestAcceptRide_FullDiscipline(t *testing.T) {
	ctx := context.Background()

	stub := NewStubDB()
	stub.AddRowSet("FOR UPDATE", stubDetailsColumns, stubDetailsRow(&domain.RideDetails{
		RideID: "ride-1", RiderID: "rider-1", OTP: 482913,
		Status: domain.RideStatusBooked, CreatedAt: time.Now(),
	}))
	db := stub.Open()
	defer db.Close()

	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnline})
	lockStore := NewMockLockStore()

	svc := service.NewDispatchService(db, NewMockRideDetailsRepository(), driverRepo, NewMockRejectionRepository(), lockStore)

	resp, err := svc.AcceptRide(ctx, service.AcceptRideRequest{
		RideID: "ride-1", DriverID: "driver-1", OTP: 482913,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Details.Status != domain.RideStatusDriverAssigned || !resp.Details.Verified {
		t.Errorf("unexpected details: %+v", resp.Details)
	}
	if resp.VehicleID != "" {
		t.Errorf("expected no vehicle without an active assignment, got %s", resp.VehicleID)
	}

	// Both locks taken and released.
	if lockStore.AcquireCallCount != 2 || lockStore.ReleaseCallCount != 2 {
		t.Errorf("lock calls = %d/%d, want 2/2", lockStore.AcquireCallCount, lockStore.ReleaseCallCount)
	}
	if lockStore.IsRideLocked("ride-1") {
		t.Error("expected the ride lock to be released")
	}

	// The statements ran in the transactional order.
	order := []string{
		"BEGIN",
		"FOR UPDATE",
		"verification_status = TRUE",
		"vehicle_driver_assignments",
		"UPDATE rides SET driver_id",
		"driver_online_status",
		"INSERT INTO event_log",
		"COMMIT",
	}
	last := -1
	for _, substr := range order {
		idx := stub.LogIndex(substr)
		if idx < 0 {
			t.Fatalf("statement %q missing from the log: %v", substr, stub.Log())
		}
		if idx <= last {
			t.Errorf("statement %q ran out of order: %v", substr, stub.Log())
		}
		last = idx
	}
}

func TestAcceptRide_WrongOTPWritesNothing(t *testing.T) {
	ctx := context.Background()

	stub := NewStubDB()
	stub.AddRowSet("FOR UPDATE", stubDetailsColumns, stubDetailsRow(&domain.RideDetails{
		RideID: "ride-1", RiderID: "rider-1", OTP: 482913,
		Status: domain.RideStatusBooked, CreatedAt: time.Now(),
	}))
	db := stub.Open()
	defer db.Close()

	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnline})
	lockStore := NewMockLockStore()

	svc := service.NewDispatchService(db, NewMockRideDetailsRepository(), driverRepo, NewMockRejectionRepository(), lockStore)

	_, err := svc.AcceptRide(ctx, service.AcceptRideRequest{
		RideID: "ride-1", DriverID: "driver-1", OTP: 111111,
	})
	if !errors.Is(err, service.ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}

	// The failed attempt rolled back without a single write.
	if n := stub.CountLogged("SET"); n != 0 {
		t.Errorf("expected no updates, got %d: %v", n, stub.Log())
	}
	if n := stub.CountLogged("INSERT"); n != 0 {
		t.Errorf("expected no inserts, got %d: %v", n, stub.Log())
	}
	if stub.LogIndex("ROLLBACK") < 0 {
		t.Errorf("expected a rollback: %v", stub.Log())
	}
	if stub.LogIndex("COMMIT") >= 0 {
		t.Errorf("expected no commit: %v", stub.Log())
	}
	if lockStore.IsRideLocked("ride-1") {
		t.Error("expected the ride lock to be released")
	}
}

func TestAcceptRide_ConflictChecksComeFirst(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		details *domain.RideDetails
		want    error
	}{
		{
			name: "not booked",
			details: &domain.RideDetails{
				RideID: "ride-1", RiderID: "rider-1", OTP: 482913, Verified: true,
				Status: domain.RideStatusDriverAssigned, CreatedAt: time.Now(),
			},
			want: service.ErrRideAlreadyAssigned,
		},
		{
			name: "already verified",
			details: &domain.RideDetails{
				RideID: "ride-1", RiderID: "rider-1", OTP: 482913, Verified: true,
				Status: domain.RideStatusBooked, CreatedAt: time.Now(),
			},
			want: service.ErrOTPAlreadyVerified,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			stub := NewStubDB()
			stub.AddRowSet("FOR UPDATE", stubDetailsColumns, stubDetailsRow(c.details))
			db := stub.Open()
			defer db.Close()

			driverRepo := NewMockDriverRepository()
			driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnline})

			svc := service.NewDispatchService(db, NewMockRideDetailsRepository(), driverRepo, NewMockRejectionRepository(), NewMockLockStore())

			// The OTP is wrong too; the state conflict must win.
			_, err := svc.AcceptRide(ctx, service.AcceptRideRequest{
				RideID: "ride-1", DriverID: "driver-1", OTP: 111111,
			})
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
			if n := stub.CountLogged("SET") + stub.CountLogged("INSERT"); n != 0 {
				t.Errorf("expected no writes, got %d: %v", n, stub.Log())
			}
		})
	}
}

func TestCancelRide_FullDiscipline(t *testing.T) {
	ctx := context.Background()

	stub := NewStubDB()
	stub.AddRowSet("FOR UPDATE", stubDetailsColumns, stubDetailsRow(&domain.RideDetails{
		RideID: "ride-1", RiderID: "rider-1", OTP: 482913,
		Status: domain.RideStatusBooked, CreatedAt: time.Now(),
	}))
	db := stub.Open()
	defer db.Close()

	lockStore := NewMockLockStore()
	svc := service.NewDispatchService(db, NewMockRideDetailsRepository(), NewMockDriverRepository(), NewMockRejectionRepository(), lockStore)

	err := svc.CancelRide(ctx, service.CancelRideRequest{
		RideID: "ride-1", RiderID: "rider-1", Reason: "changed plans",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := []string{
		"BEGIN",
		"FOR UPDATE",
		"UPDATE ride_details_for_riders SET ride_status",
		"INSERT INTO event_log",
		"INSERT INTO ride_cancellation_log",
		"COMMIT",
	}
	last := -1
	for _, substr := range order {
		idx := stub.LogIndex(substr)
		if idx < 0 {
			t.Fatalf("statement %q missing from the log: %v", substr, stub.Log())
		}
		if idx <= last {
			t.Errorf("statement %q ran out of order: %v", substr, stub.Log())
		}
		last = idx
	}

	// A rider cancelling a BOOKED ride never touches driver status.
	if stub.LogIndex("driver_online_status") >= 0 {
		t.Errorf("expected no driver status update: %v", stub.Log())
	}
	if lockStore.IsRideLocked("ride-1") {
		t.Error("expected the ride lock to be released")
	}
}
