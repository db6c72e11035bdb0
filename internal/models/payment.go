package models

import "time"

// PaymentStatus represents the status of a gateway payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Payment represents a gateway payment order for a booking.
// Amount is in rupees; the gateway boundary converts to paise.
type Payment struct {
	ID               string        `json:"id" db:"id"`
	BookingID        string        `json:"booking_id" db:"booking_id"`
	PassengerID      string        `json:"passenger_id" db:"passenger_id"`
	DriverID         string        `json:"driver_id" db:"driver_id"`
	GatewayOrderID   string        `json:"gateway_order_id" db:"gateway_order_id"`
	GatewayPaymentID *string       `json:"gateway_payment_id,omitempty" db:"gateway_payment_id"`
	GatewaySignature *string       `json:"-" db:"gateway_signature"`
	Amount           float64       `json:"amount" db:"amount"`
	FinalSeatRate    float64       `json:"final_seat_rate" db:"final_seat_rate"`
	TotalBookedSeats int           `json:"total_booked_seats" db:"total_booked_seats"`
	Status           PaymentStatus `json:"status" db:"status"`
	FailureReason    *string       `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	PaidAt           *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
}

// VerifyPaymentRequest carries the gateway callback fields for verification
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	GatewaySignature string `json:"gateway_signature" binding:"required"`
}
