package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridehub/ridehub-backend/internal/models"
)

// PaymentRepository handles database operations for the payments table
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment order row
func (r *PaymentRepository) Create(payment *models.Payment) error {
	query := `
		INSERT INTO payments (
			id, booking_id, passenger_id, driver_id, gateway_order_id,
			amount, final_seat_rate, total_booked_seats, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}

	return r.db.QueryRow(
		query,
		payment.ID, payment.BookingID, payment.PassengerID, payment.DriverID,
		payment.GatewayOrderID, payment.Amount, payment.FinalSeatRate,
		payment.TotalBookedSeats, payment.Status,
	).Scan(&payment.CreatedAt)
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(paymentID string) (*models.Payment, error) {
	query := selectPaymentColumns + ` WHERE id = $1`
	return r.scanPayment(r.db.QueryRow(query, paymentID))
}

// GetByGatewayOrderID retrieves a payment by its gateway order reference
func (r *PaymentRepository) GetByGatewayOrderID(orderID string) (*models.Payment, error) {
	query := selectPaymentColumns + ` WHERE gateway_order_id = $1`
	return r.scanPayment(r.db.QueryRow(query, orderID))
}

// GetPendingByBookingID retrieves an open payment order for a booking, if
// one exists. Order creation is idempotent off this lookup.
func (r *PaymentRepository) GetPendingByBookingID(bookingID string) (*models.Payment, error) {
	query := selectPaymentColumns + ` WHERE booking_id = $1 AND status = 'PENDING'`
	return r.scanPayment(r.db.QueryRow(query, bookingID))
}

// GetCompletedByBookingID retrieves the settled payment for a booking
func (r *PaymentRepository) GetCompletedByBookingID(bookingID string) (*models.Payment, error) {
	query := selectPaymentColumns + ` WHERE booking_id = $1 AND status = 'COMPLETED'`
	return r.scanPayment(r.db.QueryRow(query, bookingID))
}

// MarkCompleted records a verified gateway payment
func (r *PaymentRepository) MarkCompleted(paymentID, gatewayPaymentID, gatewaySignature string, paidAt time.Time) error {
	query := `
		UPDATE payments
		SET status = 'COMPLETED',
			gateway_payment_id = $2,
			gateway_signature = $3,
			paid_at = $4
		WHERE id = $1
		  AND status = 'PENDING'
	`

	result, err := r.db.Exec(query, paymentID, gatewayPaymentID, gatewaySignature, paidAt)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("payment not found or not pending")
	}

	return nil
}

// MarkFailed records a failed verification attempt
func (r *PaymentRepository) MarkFailed(paymentID, reason string) error {
	query := `
		UPDATE payments
		SET status = 'FAILED', failure_reason = $2
		WHERE id = $1
	`

	_, err := r.db.Exec(query, paymentID, reason)
	return err
}

// MarkRefunded records that the gateway refunded this payment
func (r *PaymentRepository) MarkRefunded(paymentID string) error {
	query := `
		UPDATE payments
		SET status = 'REFUNDED'
		WHERE id = $1
	`

	result, err := r.db.Exec(query, paymentID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("payment not found")
	}

	return nil
}

const selectPaymentColumns = `
	SELECT id, booking_id, passenger_id, driver_id,
		   gateway_order_id, gateway_payment_id, gateway_signature,
		   amount, final_seat_rate, total_booked_seats,
		   status, failure_reason, created_at, paid_at
	FROM payments`

func (r *PaymentRepository) scanPayment(row scanner) (*models.Payment, error) {
	payment := &models.Payment{}
	var gatewayPaymentID sql.NullString
	var gatewaySignature sql.NullString
	var failureReason sql.NullString
	var paidAt sql.NullTime

	err := row.Scan(
		&payment.ID, &payment.BookingID, &payment.PassengerID, &payment.DriverID,
		&payment.GatewayOrderID, &gatewayPaymentID, &gatewaySignature,
		&payment.Amount, &payment.FinalSeatRate, &payment.TotalBookedSeats,
		&payment.Status, &failureReason, &payment.CreatedAt, &paidAt,
	)
	if err != nil {
		return nil, err
	}

	if gatewayPaymentID.Valid {
		payment.GatewayPaymentID = &gatewayPaymentID.String
	}
	if gatewaySignature.Valid {
		payment.GatewaySignature = &gatewaySignature.String
	}
	if failureReason.Valid {
		payment.FailureReason = &failureReason.String
	}
	if paidAt.Valid {
		payment.PaidAt = &paidAt.Time
	}

	return payment, nil
}
