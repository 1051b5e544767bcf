package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// advance replays the forward status walk against the mocks: validate the
// transition, write the new status, stamp the ride, append the audit entry.
func (e *acceptEngine) advance(ctx context.Context, rideID string, next domain.RideStatus) error {
	if next == domain.RideStatusCancelled {
		return service.ErrInvalidTransition
	}

	details, err := e.detailsRepo.GetByRideIDForUpdate(ctx, rideID)
	if err != nil {
		return err
	}
	if !details.Status.CanTransitionTo(next) {
		return service.ErrInvalidTransition
	}

	now := time.Now()
	if err := e.detailsRepo.UpdateStatus(ctx, rideID, next); err != nil {
		return err
	}
	switch next {
	case domain.RideStatusOngoing:
		if err := e.rideRepo.SetStartedAt(ctx, rideID, now); err != nil {
			return err
		}
	case domain.RideStatusCompleted:
		if err := e.rideRepo.SetEndedAt(ctx, rideID, now); err != nil {
			return err
		}
		ride, err := e.rideRepo.GetByID(ctx, rideID)
		if err != nil {
			return err
		}
		if ride.DriverID != "" {
			if err := e.driverRepo.UpdateStatus(ctx, ride.DriverID, domain.DriverStatusOnline); err != nil {
				return err
			}
		}
	}
	return e.eventRepo.Append(ctx, &domain.EventLog{
		RideID:    rideID,
		Status:    next,
		EventTime: now,
	})
}

// cancel replays the cancellation path: same keyed lock as accept, then
// the terminal-state check and the paired audit write.
func (e *acceptEngine) cancel(ctx context.Context, rideID string) error {
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

	details, err := e.detailsRepo.GetByRideIDForUpdate(ctx, rideID)
	if err != nil {
		return err
	}
	if !details.Status.CanTransitionTo(domain.RideStatusCancelled) {
		return service.ErrInvalidTransition
	}
	if err := e.detailsRepo.UpdateStatus(ctx, rideID, domain.RideStatusCancelled); err != nil {
		return err
	}
	return e.eventRepo.Append(ctx, &domain.EventLog{
		RideID:    rideID,
		Status:    domain.RideStatusCancelled,
		EventTime: time.Now(),
	})
}

// The happy path: a booked ride gets accepted, started and completed, with
// one audit entry per transition and the driver cycling ONLINE -> ON_RIDE
// -> ONLINE.
func TestScenario_BookToCompletion(t *testing.T) {
	ctx := context.Background()
	engine := newAcceptEngine()
	engine.seedBookedRide("ride-1", 734201)
	engine.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnline})

	if err := engine.accept(ctx, "ride-1", "driver-1", 734201); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if got := engine.driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusOnRide {
		t.Errorf("driver status after accept = %s, want ON_RIDE", got)
	}

	if err := engine.advance(ctx, "ride-1", domain.RideStatusOngoing); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if engine.rideRepo.GetRide("ride-1").StartedAt.IsZero() {
		t.Error("expected started_at to be stamped")
	}

	if err := engine.advance(ctx, "ride-1", domain.RideStatusCompleted); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	ride := engine.rideRepo.GetRide("ride-1")
	if ride.EndedAt.IsZero() {
		t.Error("expected ended_at to be stamped")
	}
	if got := engine.driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusOnline {
		t.Errorf("driver status after completion = %s, want ONLINE", got)
	}

	entries := engine.eventRepo.EntriesForRide("ride-1")
	if len(entries) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(entries))
	}
	want := []domain.RideStatus{
		domain.RideStatusDriverAssigned,
		domain.RideStatusOngoing,
		domain.RideStatusCompleted,
	}
	for i, status := range want {
		if entries[i].Status != status {
			t.Errorf("entry %d = %s, want %s", i, entries[i].Status, status)
		}
	}

	// The completed ride is finished for good.
	if err := engine.advance(ctx, "ride-1", domain.RideStatusOngoing); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition out of COMPLETED, got %v", err)
	}
	if err := engine.cancel(ctx, "ride-1"); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition cancelling a completed ride, got %v", err)
	}
}

// The cancellation path: a cancelled booking can never be accepted, and the
// accept attempt leaves no trace.
func TestScenario_CancelBeatsAccept(t *testing.T) {
	ctx := context.Background()
	engine := newAcceptEngine()
	engine.seedBookedRide("ride-1", 734201)
	engine.driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnline})

	if err := engine.cancel(ctx, "ride-1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := engine.detailsRepo.GetDetails("ride-1").Status; got != domain.RideStatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", got)
	}

	err := engine.accept(ctx, "ride-1", "driver-1", 734201)
	if !errors.Is(err, service.ErrRideAlreadyAssigned) {
		t.Fatalf("expected the accept to lose with a conflict, got %v", err)
	}
	if engine.rideRepo.GetRide("ride-1").DriverID != "" {
		t.Error("expected no driver on the cancelled ride")
	}
	if got := engine.driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusOnline {
		t.Errorf("driver status = %s, want ONLINE", got)
	}

	entries := engine.eventRepo.EntriesForRide("ride-1")
	if len(entries) != 1 || entries[0].Status != domain.RideStatusCancelled {
		t.Errorf("expected a single CANCELLED audit entry, got %v", entries)
	}
}

func TestScenario_NoSkippingStates(t *testing.T) {
	ctx := context.Background()
	engine := newAcceptEngine()
	engine.seedBookedRide("ride-1", 734201)

	// BOOKED cannot jump straight to ONGOING or COMPLETED.
	for _, next := range []domain.RideStatus{domain.RideStatusOngoing, domain.RideStatusCompleted} {
		if err := engine.advance(ctx, "ride-1", next); !errors.Is(err, service.ErrInvalidTransition) {
			t.Errorf("BOOKED -> %s: expected ErrInvalidTransition, got %v", next, err)
		}
	}
	if got := engine.detailsRepo.GetDetails("ride-1").Status; got != domain.RideStatusBooked {
		t.Errorf("expected the ride to stay BOOKED, got %s", got)
	}
	if len(engine.eventRepo.EntriesForRide("ride-1")) != 0 {
		t.Error("expected no audit entries for failed transitions")
	}
}
