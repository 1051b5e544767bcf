package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func TestBookRide_ValidatesBeforeWriting(t *testing.T) {
	ctx := context.Background()

	regionRepo := NewMockRegionRepository()
	regionRepo.AddRegion(&domain.Region{
		Code: "BLR", CurrencyCode: "INR", ServiceActive: true,
	})
	regionRepo.AddRegion(&domain.Region{
		Code: "DORMANT", CurrencyCode: "INR", ServiceActive: false,
	})

	svc := service.NewBookingService(nil, regionRepo, NewMockRideDetailsRepository())

	_, err := svc.BookRide(ctx, service.BookRideRequest{
		RegionCode: "BLR", FromCell: driverRawCell, ToCell: driverRawCell,
	})
	if !errors.Is(err, service.ErrInvalidRiderID) {
		t.Errorf("expected ErrInvalidRiderID, got %v", err)
	}

	_, err = svc.BookRide(ctx, service.BookRideRequest{
		RiderID: "rider-1", RegionCode: "BLR",
		FromCell: "not-a-cell", ToCell: driverRawCell,
	})
	if !errors.Is(err, service.ErrInvalidCellIndex) {
		t.Errorf("expected ErrInvalidCellIndex for the pickup, got %v", err)
	}

	_, err = svc.BookRide(ctx, service.BookRideRequest{
		RiderID: "rider-1", RegionCode: "BLR",
		FromCell: driverRawCell, ToCell: "not-a-cell",
	})
	if !errors.Is(err, service.ErrInvalidCellIndex) {
		t.Errorf("expected ErrInvalidCellIndex for the drop-off, got %v", err)
	}

	_, err = svc.BookRide(ctx, service.BookRideRequest{
		RiderID: "rider-1", RegionCode: "NOWHERE",
		FromCell: driverRawCell, ToCell: driverRawCell,
	})
	if err == nil {
		t.Error("expected an error for an unknown region")
	}

	_, err = svc.BookRide(ctx, service.BookRideRequest{
		RiderID: "rider-1", RegionCode: "DORMANT",
		FromCell: driverRawCell, ToCell: driverRawCell,
	})
	if !errors.Is(err, service.ErrRegionNotServiceable) {
		t.Errorf("expected ErrRegionNotServiceable, got %v", err)
	}
}

func TestListPreviousRides_NewestFirst(t *testing.T) {
	ctx := context.Background()

	detailsRepo := NewMockRideDetailsRepository()
	base := time.Now()
	detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-old", RiderID: "rider-1",
		Status: domain.RideStatusCompleted, CreatedAt: base,
	})
	detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-new", RiderID: "rider-1",
		Status: domain.RideStatusBooked, CreatedAt: base.Add(time.Hour),
	})
	detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-other", RiderID: "rider-2",
		Status: domain.RideStatusBooked, CreatedAt: base,
	})

	svc := service.NewBookingService(nil, NewMockRegionRepository(), detailsRepo)

	rides, err := svc.ListPreviousRides(ctx, "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rides) != 2 {
		t.Fatalf("expected 2 rides, got %d", len(rides))
	}
	if rides[0].RideID != "ride-new" || rides[1].RideID != "ride-old" {
		t.Errorf("expected newest first, got %s then %s", rides[0].RideID, rides[1].RideID)
	}

	if _, err := svc.ListPreviousRides(ctx, ""); !errors.Is(err, service.ErrInvalidRiderID) {
		t.Errorf("expected ErrInvalidRiderID, got %v", err)
	}
}

func TestUpdateDriverLocation(t *testing.T) {
	ctx := context.Background()

	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1"})

	svc := service.NewLocationService(driverRepo, NewMockLocationLogRepository())

	if err := svc.UpdateDriverLocation(ctx, "driver-1", driverRawCell); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The raw index is stored as reported, not coarsened.
	if got := driverRepo.GetDriver("driver-1").CurrentCell; got != driverRawCell {
		t.Errorf("stored cell = %s, want the raw index %s", got, driverRawCell)
	}

	if err := svc.UpdateDriverLocation(ctx, "driver-1", "not-a-cell"); !errors.Is(err, service.ErrInvalidCellIndex) {
		t.Errorf("expected ErrInvalidCellIndex, got %v", err)
	}
	if err := svc.UpdateDriverLocation(ctx, "", driverRawCell); !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}
}

func TestLogRidePing(t *testing.T) {
	ctx := context.Background()

	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1"})
	logRepo := NewMockLocationLogRepository()
	svc := service.NewLocationService(driverRepo, logRepo)

	err := svc.LogRidePing(ctx, service.LogRidePingRequest{
		RideID: "ride-1", DriverID: "driver-1",
		Latitude: 12.97, Longitude: 77.59, SpeedKmh: 42,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pings := logRepo.PingsForRide("ride-1")
	if len(pings) != 1 {
		t.Fatalf("expected 1 ping, got %d", len(pings))
	}
	if pings[0].LogID == "" {
		t.Error("expected a generated log id")
	}
	if pings[0].DriverID != "driver-1" || pings[0].SpeedKmh != 42 {
		t.Errorf("unexpected ping: %+v", pings[0])
	}
	// No cell on the ping, so the driver's cell is untouched.
	if got := driverRepo.GetDriver("driver-1").CurrentCell; got != "" {
		t.Errorf("expected no cell update, got %s", got)
	}

	// A ping carrying a cell refreshes the driver's location too.
	err = svc.LogRidePing(ctx, service.LogRidePingRequest{
		RideID: "ride-1", DriverID: "driver-1", CellIndex: driverRawCell,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := driverRepo.GetDriver("driver-1").CurrentCell; got != driverRawCell {
		t.Errorf("expected the driver's cell to refresh, got %s", got)
	}

	if err := svc.LogRidePing(ctx, service.LogRidePingRequest{DriverID: "driver-1"}); !errors.Is(err, service.ErrInvalidRideID) {
		t.Errorf("expected ErrInvalidRideID, got %v", err)
	}
	if err := svc.LogRidePing(ctx, service.LogRidePingRequest{RideID: "ride-1"}); !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}
}

func TestGetRide_PairsRideAndDetails(t *testing.T) {
	ctx := context.Background()

	rideRepo := NewMockRideRepository()
	detailsRepo := NewMockRideDetailsRepository()
	eventRepo := NewMockEventLogRepository()

	rideRepo.AddRide(&domain.Ride{ID: "ride-1", RegionCode: "BLR", CurrencyCode: "INR"})
	detailsRepo.AddDetails(&domain.RideDetails{
		RideID: "ride-1", RiderID: "rider-1", Status: domain.RideStatusBooked,
	})

	svc := service.NewRideService(rideRepo, detailsRepo, eventRepo)

	view, err := svc.GetRide(ctx, "ride-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Ride.CurrencyCode != "INR" || view.Details.RiderID != "rider-1" {
		t.Errorf("unexpected view: %+v / %+v", view.Ride, view.Details)
	}

	if _, err := svc.GetRide(ctx, "ghost"); err == nil {
		t.Error("expected an error for an unknown ride")
	}
}

func TestRideEvents_RequiresExistingRide(t *testing.T) {
	ctx := context.Background()

	detailsRepo := NewMockRideDetailsRepository()
	eventRepo := NewMockEventLogRepository()
	detailsRepo.AddDetails(&domain.RideDetails{RideID: "ride-1", Status: domain.RideStatusBooked})
	_ = eventRepo.Append(ctx, &domain.EventLog{RideID: "ride-1", Status: domain.RideStatusBooked})
	_ = eventRepo.Append(ctx, &domain.EventLog{RideID: "ride-1", Status: domain.RideStatusDriverAssigned})

	svc := service.NewRideService(NewMockRideRepository(), detailsRepo, eventRepo)

	events, err := svc.RideEvents(ctx, "ride-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}

	if _, err := svc.RideEvents(ctx, "ghost"); err == nil {
		t.Error("expected an error for an unknown ride")
	}
}
