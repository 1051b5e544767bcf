package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusBooked         RideStatus = "BOOKED"
	RideStatusDriverAssigned RideStatus = "DRIVER_ASSIGNED"
	RideStatusOngoing        RideStatus = "ONGOING"
	RideStatusCompleted      RideStatus = "COMPLETED"
	RideStatusCancelled      RideStatus = "CANCELLED"
)

// Numeric codes persisted in the ride_status column. CANCELLED is 7 to stay
// compatible with the seeded lookup table; new statuses get new codes here,
// codes are never reused.
var rideStatusCodes = map[RideStatus]int16{
	RideStatusBooked:         1,
	RideStatusDriverAssigned: 2,
	RideStatusOngoing:        3,
	RideStatusCompleted:      4,
	RideStatusCancelled:      7,
}

// Code returns the persisted numeric code for the status, or 0 for an
// unknown status.
func (s RideStatus) Code() int16 {
	return rideStatusCodes[s]
}

// RideStatusFromCode maps a persisted numeric code back to the enum.
func RideStatusFromCode(code int16) (RideStatus, bool) {
	for status, c := range rideStatusCodes {
		if c == code {
			return status, true
		}
	}
	return "", false
}

// ParseRideStatus validates a raw status string against the closed enum.
func ParseRideStatus(raw string) (RideStatus, bool) {
	s := RideStatus(raw)
	_, ok := rideStatusCodes[s]
	return s, ok
}

// IsTerminal reports whether no further transition is allowed.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle transition. The lifecycle is monotonic forward
// (BOOKED -> DRIVER_ASSIGNED -> ONGOING -> COMPLETED); CANCELLED is
// reachable from any non-terminal state.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == RideStatusCancelled {
		return true
	}
	switch s {
	case RideStatusBooked:
		return next == RideStatusDriverAssigned
	case RideStatusDriverAssigned:
		return next == RideStatusOngoing
	case RideStatusOngoing:
		return next == RideStatusCompleted
	default:
		return false
	}
}

// Ride is the platform-owned ride record. Driver and vehicle stay empty
// until a driver wins the ride; currency and timezone are copied from the
// region at booking and never change afterwards.
type Ride struct {
	ID           string
	DriverID     string // empty until matched
	VehicleID    string // empty until matched
	RegionCode   string
	CurrencyCode string
	Timezone     string
	ETASeconds   int
	StartedAt    time.Time
	EndedAt      time.Time
	UpdatedAt    time.Time
}

// RideDetails is the rider-facing 1:1 extension of Ride: rider identity,
// pickup/drop-off cells, the booking OTP and the lifecycle status.
// Verified flips false->true exactly once, and only while Status is BOOKED.
type RideDetails struct {
	RideID    string
	RiderID   string
	OTP       int
	FromCell  string
	ToCell    string
	Fare      float64
	Status    RideStatus
	Verified  bool
	CreatedAt time.Time
}

// EventLog is one append-only audit entry per ride status transition.
type EventLog struct {
	EventID   string
	RideID    string
	Status    RideStatus
	Latitude  float64
	Longitude float64
	HasCoords bool
	EventTime time.Time
}

// CancelRole identifies who cancelled a ride.
type CancelRole string

const (
	CancelRoleRider  CancelRole = "user"
	CancelRoleDriver CancelRole = "driver"
)

// RideCancellationLog records who cancelled a ride (rider xor driver) and
// why. Append-only.
type RideCancellationLog struct {
	CancellationID string
	RideID         string
	CancelledBy    string // rider user id, empty when a driver cancelled
	CancelledByDrv string // driver id, empty when the rider cancelled
	Reason         string
	CancelledAt    time.Time
}

// DriverRideRejection permanently excludes a (ride, driver) pair from
// matching. Append-only; duplicate rejects are harmless.
type DriverRideRejection struct {
	RejectionID string
	RideID      string
	DriverID    string
	RejectedAt  time.Time
}

// RideLocationLog is an append-only driver ping recorded during a ride.
type RideLocationLog struct {
	LogID          string
	RideID         string
	DriverID       string
	Latitude       float64
	Longitude      float64
	HeadingTowards string
	CellIndex      string
	SpeedKmh       float64
	UpdatedAt      time.Time
}
