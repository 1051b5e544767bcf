package service

import "errors"

var (
	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidWalletID is returned when wallet ID is empty.
	ErrInvalidWalletID = errors.New("invalid wallet id")

	// ErrInvalidCellIndex is returned when a location cell index is empty or
	// does not parse.
	ErrInvalidCellIndex = errors.New("invalid cell index")

	// ErrRegionNotServiceable is returned when booking into a region whose
	// service flag is off.
	ErrRegionNotServiceable = errors.New("region not serviceable")

	// ErrRideAlreadyAssigned is returned when accepting a ride that has left
	// the BOOKED state.
	ErrRideAlreadyAssigned = errors.New("ride already assigned")

	// ErrOTPAlreadyVerified is returned when accepting a ride whose OTP was
	// already consumed.
	ErrOTPAlreadyVerified = errors.New("otp already verified")

	// ErrInvalidOTP is returned when the presented OTP does not match.
	ErrInvalidOTP = errors.New("invalid otp")

	// ErrInvalidTransition is returned for a status change the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCancelActorRequired is returned when a cancellation names neither a
	// rider nor a driver, or both.
	ErrCancelActorRequired = errors.New("cancellation requires exactly one actor")

	// ErrDispatchContention is returned when the ride lock is held by a
	// concurrent accept or cancel.
	ErrDispatchContention = errors.New("ride is being processed by another request")

	// ErrPricingNotFound is returned when no pricing row exists for the
	// requested region and vehicle type. Fare computation never falls back
	// to defaults.
	ErrPricingNotFound = errors.New("pricing not configured for region")

	// ErrInvalidAmount is returned for zero or negative wallet amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance is returned when a debit exceeds the wallet
	// balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidSurgeWindow is returned when a surge window is malformed.
	ErrInvalidSurgeWindow = errors.New("invalid surge window")
)
