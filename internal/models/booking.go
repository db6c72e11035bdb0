package models

import (
	"errors"
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusTentative      BookingStatus = "TENTATIVE"
	BookingStatusPaymentPending BookingStatus = "PAYMENT_PENDING"
	BookingStatusConfirmed      BookingStatus = "CONFIRMED"
	BookingStatusCancelled      BookingStatus = "CANCELLED"
	BookingStatusOnboarded      BookingStatus = "ONBOARDED"
	BookingStatusDeboarded      BookingStatus = "DEBOARDED"
	BookingStatusCompleted      BookingStatus = "COMPLETED"
)

// Booking represents a passenger's seat reservation on a ride
type Booking struct {
	ID                 string        `json:"id" db:"id"`
	RideID             string        `json:"ride_id" db:"ride_id"`
	PassengerID        string        `json:"passenger_id" db:"passenger_id"`
	SeatsBooked        int           `json:"seats_booked" db:"seats_booked"`
	PickupLocation     string        `json:"pickup_location" db:"pickup_location"`
	DropLocation       string        `json:"drop_location" db:"drop_location"`
	PickupLat          float64       `json:"pickup_lat" db:"pickup_lat"`
	PickupLng          float64       `json:"pickup_lng" db:"pickup_lng"`
	DropLat            float64       `json:"drop_lat" db:"drop_lat"`
	DropLng            float64       `json:"drop_lng" db:"drop_lng"`
	SegmentDistanceKm  float64       `json:"segment_distance_km" db:"segment_distance_km"`
	TotalTripCost      float64       `json:"total_trip_cost" db:"total_trip_cost"`
	MaximumPrice       float64       `json:"maximum_price" db:"maximum_price"`
	FinalPrice         *float64      `json:"final_price,omitempty" db:"final_price"`
	Status             BookingStatus `json:"status" db:"status"`
	BookedAt           time.Time     `json:"booked_at" db:"booked_at"`
	UpdatedAt          *time.Time    `json:"updated_at,omitempty" db:"updated_at"`
	PaymentDueAt       time.Time     `json:"payment_due_at" db:"payment_due_at"`
	PaidAt             *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	OnboardedAt        *time.Time    `json:"onboarded_at,omitempty" db:"onboarded_at"`
	DeboardedAt        *time.Time    `json:"deboarded_at,omitempty" db:"deboarded_at"`
	RideStartedAt      *time.Time    `json:"ride_started_at,omitempty" db:"ride_started_at"`
	RideEndedAt        *time.Time    `json:"ride_ended_at,omitempty" db:"ride_ended_at"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason *string       `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	DriverStartedRide  bool          `json:"driver_started_ride" db:"driver_started_ride"`
	PassengerStarted   bool          `json:"passenger_started_ride" db:"passenger_started_ride"`
	InitialNoticeSent  bool          `json:"initial_notice_sent" db:"initial_notice_sent"`
	PaymentRequestSent bool          `json:"payment_request_sent" db:"payment_request_sent"`
}

// ActiveBookingStatuses are the statuses that count toward seat-rate sharing
// and receive forced refunds on a driver cancellation.
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusTentative,
	BookingStatusPaymentPending,
	BookingStatusConfirmed,
}

// IsActive reports whether the booking still occupies seats pre-trip
func (b *Booking) IsActive() bool {
	switch b.Status {
	case BookingStatusTentative, BookingStatusPaymentPending, BookingStatusConfirmed:
		return true
	}
	return false
}

// ChargeableAmount returns the amount locked or refunded for this booking,
// the final price when computed and the maximum price otherwise.
func (b *Booking) ChargeableAmount() float64 {
	if b.FinalPrice != nil {
		return *b.FinalPrice
	}
	return b.MaximumPrice
}

// CreateBookingRequest represents the request to reserve seats on a ride
type CreateBookingRequest struct {
	RideID         string  `json:"ride_id" binding:"required"`
	SeatsBooked    int     `json:"seats_booked" binding:"required,min=1"`
	PickupLocation string  `json:"pickup_location" binding:"required"`
	DropLocation   string  `json:"drop_location" binding:"required"`
	PickupLat      float64 `json:"pickup_lat" binding:"required"`
	PickupLng      float64 `json:"pickup_lng" binding:"required"`
	DropLat        float64 `json:"drop_lat" binding:"required"`
	DropLng        float64 `json:"drop_lng" binding:"required"`
}

// Validate validates the create booking request
func (r *CreateBookingRequest) Validate() error {
	if r.SeatsBooked <= 0 {
		return errors.New("seats_booked must be at least 1")
	}
	if r.RideID == "" {
		return errors.New("ride_id is required")
	}
	return nil
}

// CancelBookingRequest represents the request to cancel a booking
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// CancelRideRequest represents a driver's request to cancel a whole ride
type CancelRideRequest struct {
	Reason string `json:"reason" binding:"required"`
}
