package tests

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/geo"
	"dispatch/internal/service"
)

// A valid resolution-10 H3 index used as the raw driver ping.
const driverRawCell = "8a2a1072b59ffff"

// A valid cell far outside the driver's search ring.
const farAwayCell = "85283473fffffff"

func dispatchCell(t *testing.T, raw string) string {
	t.Helper()
	cell, err := geo.CellOf(raw, geo.DispatchResolution)
	if err != nil {
		t.Fatalf("failed to coarsen cell: %v", err)
	}
	return cell
}

func TestCandidates_FindsBookedRideInDriverCell(t *testing.T) {
	ctx := context.Background()

	detailsRepo := NewMockRideDetailsRepository()
	driverRepo := NewMockDriverRepository()

	driverRepo.AddDriver(&domain.Driver{
		ID:          "driver-1",
		Status:      domain.DriverStatusOnline,
		CurrentCell: driverRawCell,
	})

	pickup := dispatchCell(t, driverRawCell)
	detailsRepo.AddDetails(&domain.RideDetails{
		RideID:    "ride-1",
		RiderID:   "rider-1",
		FromCell:  pickup,
		Status:    domain.RideStatusBooked,
		CreatedAt: time.Now(),
	})

	svc := service.NewMatchingService(detailsRepo, driverRepo)

	candidates, err := svc.Candidates(ctx, service.CandidatesRequest{DriverID: "driver-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].RideID != "ride-1" {
		t.Errorf("expected ride-1, got %s", candidates[0].RideID)
	}
}

func TestCandidates_ExcludesRejectedRides(t *testing.T) {
	ctx := context.Background()

	detailsRepo := NewMockRideDetailsRepository()
	driverRepo := NewMockDriverRepository()

	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", CurrentCell: driverRawCell})

	pickup := dispatchCell(t, driverRawCell)
	detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-rejected", FromCell: pickup,
		Status: domain.RideStatusBooked, CreatedAt: time.Now(),
	})
	detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-open", FromCell: pickup,
		Status: domain.RideStatusBooked, CreatedAt: time.Now(),
	})
	detailsRepo.RejectRide("driver-1", "ride-rejected")

	svc := service.NewMatchingService(detailsRepo, driverRepo)

	candidates, err := svc.Candidates(ctx, service.CandidatesRequest{DriverID: "driver-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].RideID != "ride-open" {
		t.Errorf("expected ride-open, got %s", candidates[0].RideID)
	}

	// The exclusion is per driver: another driver still sees both.
	driverRepo.AddDriver(&domain.Driver{ID: "driver-2", CurrentCell: driverRawCell})
	candidates, err = svc.Candidates(ctx, service.CandidatesRequest{DriverID: "driver-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 2 {
		t.Errorf("expected 2 candidates for an unrelated driver, got %d", len(candidates))
	}
}

func TestCandidates_SkipsNonBookedAndOutOfRange(t *testing.T) {
	ctx := context.Background()

	detailsRepo := NewMockRideDetailsRepository()
	driverRepo := NewMockDriverRepository()

	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", CurrentCell: driverRawCell})

	pickup := dispatchCell(t, driverRawCell)
	detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-assigned", FromCell: pickup,
		Status: domain.RideStatusDriverAssigned, CreatedAt: time.Now(),
	})
	detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-far", FromCell: farAwayCell,
		Status: domain.RideStatusBooked, CreatedAt: time.Now(),
	})

	svc := service.NewMatchingService(detailsRepo, driverRepo)

	candidates, err := svc.Candidates(ctx, service.CandidatesRequest{DriverID: "driver-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(candidates))
	}
}

func TestCandidates_OldestBookingFirst(t *testing.T) {
	ctx := context.Background()

	detailsRepo := NewMockRideDetailsRepository()
	driverRepo := NewMockDriverRepository()

	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", CurrentCell: driverRawCell})

	pickup := dispatchCell(t, driverRawCell)
	base := time.Now()
	detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-new", FromCell: pickup,
		Status: domain.RideStatusBooked, CreatedAt: base.Add(time.Minute),
	})
	detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-old", FromCell: pickup,
		Status: domain.RideStatusBooked, CreatedAt: base,
	})

	svc := service.NewMatchingService(detailsRepo, driverRepo)

	candidates, err := svc.Candidates(ctx, service.CandidatesRequest{DriverID: "driver-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].RideID != "ride-old" {
		t.Errorf("expected the oldest booking first, got %s", candidates[0].RideID)
	}
}

func TestCandidates_DriverWithoutLocation(t *testing.T) {
	ctx := context.Background()

	detailsRepo := NewMockRideDetailsRepository()
	driverRepo := NewMockDriverRepository()

	driverRepo.AddDriver(&domain.Driver{ID: "driver-fresh"})

	svc := service.NewMatchingService(detailsRepo, driverRepo)

	candidates, err := svc.Candidates(ctx, service.CandidatesRequest{DriverID: "driver-fresh"})
	if err != nil {
		t.Fatalf("expected no error for a driver without a location, got %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(candidates))
	}
}

func TestCandidates_UnknownDriver(t *testing.T) {
	ctx := context.Background()

	svc := service.NewMatchingService(NewMockRideDetailsRepository(), NewMockDriverRepository())

	if _, err := svc.Candidates(ctx, service.CandidatesRequest{DriverID: "ghost"}); err == nil {
		t.Error("expected an error for an unknown driver")
	}
}

func TestCandidates_RadiusIsClamped(t *testing.T) {
	ctx := context.Background()

	detailsRepo := NewMockRideDetailsRepository()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", CurrentCell: driverRawCell})

	svc := service.NewMatchingService(detailsRepo, driverRepo)

	// An absurd radius must not error; it is clamped to the maximum.
	if _, err := svc.Candidates(ctx, service.CandidatesRequest{DriverID: "driver-1", RingRadius: 50}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
