package services

import "fmt"

// Errors shared across the booking, trip, wallet and payment services.
// Handlers map these to HTTP status codes at the boundary.
var (
	// ErrRideNotFound indicates the ride does not exist
	ErrRideNotFound = fmt.Errorf("ride not found")

	// ErrBookingNotFound indicates the booking does not exist
	ErrBookingNotFound = fmt.Errorf("booking not found")

	// ErrWalletNotFound indicates the driver has no wallet yet
	ErrWalletNotFound = fmt.Errorf("wallet not found")

	// ErrPaymentNotFound indicates no matching payment order exists
	ErrPaymentNotFound = fmt.Errorf("payment not found")

	// ErrUnauthorized indicates the actor does not own the resource
	ErrUnauthorized = fmt.Errorf("not authorized for this resource")

	// ErrInvalidStateTransition indicates the entity is not in a status
	// from which the requested operation is allowed
	ErrInvalidStateTransition = fmt.Errorf("invalid state transition")

	// ErrInsufficientSeats indicates the ride cannot cover the requested seats
	ErrInsufficientSeats = fmt.Errorf("not enough available seats")

	// ErrInvalidOTP indicates no matching unused OTP exists
	ErrInvalidOTP = fmt.Errorf("invalid OTP code")

	// ErrOTPExpired indicates the OTP passed its expiry
	ErrOTPExpired = fmt.Errorf("OTP has expired")

	// ErrAlreadyOnboarded indicates the booking already passed onboarding
	ErrAlreadyOnboarded = fmt.Errorf("passenger already onboarded")

	// ErrInsufficientLockedBalance indicates the escrow cannot cover an unlock
	ErrInsufficientLockedBalance = fmt.Errorf("insufficient locked balance")

	// ErrInsufficientAvailableBalance indicates the wallet cannot cover a withdrawal
	ErrInsufficientAvailableBalance = fmt.Errorf("insufficient available balance")

	// ErrInvalidAmount indicates a non-positive money amount
	ErrInvalidAmount = fmt.Errorf("amount must be positive")

	// ErrOutsideStartWindow indicates a passenger self-start outside the
	// allowed window around the scheduled departure
	ErrOutsideStartWindow = fmt.Errorf("outside the allowed trip start window")

	// ErrFinalPriceNotSet indicates a payment order was requested before
	// the final price was computed
	ErrFinalPriceNotSet = fmt.Errorf("final price has not been computed yet")

	// ErrReviewNotFound indicates the booking has no review
	ErrReviewNotFound = fmt.Errorf("review not found")

	// ErrAlreadyReviewed indicates the booking has already been reviewed
	ErrAlreadyReviewed = fmt.Errorf("booking has already been reviewed")
)
