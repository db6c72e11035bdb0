package services

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/pkg/clock"
	"github.com/sirupsen/logrus"
)

// PaymentService creates gateway payment orders for priced bookings and
// verifies the gateway's callback. A verified payment confirms the booking
// and locks the fare in the driver's escrow.
type PaymentService struct {
	payments PaymentStore
	bookings BookingStore
	rides    RideStore
	gateway  PaymentGateway
	booking  *BookingService
	wallet   *WalletService
	currency string
	clock    clock.Clock
	logger   *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	payments PaymentStore,
	bookings BookingStore,
	rides RideStore,
	gateway PaymentGateway,
	bookingSvc *BookingService,
	wallet *WalletService,
	currency string,
	clk clock.Clock,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		bookings: bookings,
		rides:    rides,
		gateway:  gateway,
		booking:  bookingSvc,
		wallet:   wallet,
		currency: currency,
		clock:    clk,
		logger:   logger,
	}
}

// CreateOrder creates a gateway payment order for a priced booking.
// Idempotent: an existing open order for the booking is returned instead of
// creating a second one.
func (s *PaymentService) CreateOrder(bookingID, passengerID string) (*models.Payment, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	if booking.PassengerID != passengerID {
		return nil, ErrUnauthorized
	}
	if booking.Status != models.BookingStatusPaymentPending {
		return nil, ErrInvalidStateTransition
	}
	if booking.FinalPrice == nil {
		return nil, ErrFinalPriceNotSet
	}

	// Reuse an open order if one exists
	existing, err := s.payments.GetPendingByBookingID(bookingID)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing orders: %w", err)
	}

	ride, err := s.rides.GetByID(booking.RideID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}

	amount := *booking.FinalPrice
	amountPaise := int64(math.Round(amount * 100))
	notes := map[string]string{
		"booking_id":   booking.ID,
		"ride_id":      booking.RideID,
		"passenger_id": passengerID,
	}

	orderID, err := s.gateway.CreateOrder(amountPaise, s.currency, booking.ID, notes)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	payment := &models.Payment{
		BookingID:        booking.ID,
		PassengerID:      passengerID,
		DriverID:         ride.DriverID,
		GatewayOrderID:   orderID,
		Amount:           amount,
		FinalSeatRate:    amount / float64(booking.SeatsBooked),
		TotalBookedSeats: booking.SeatsBooked,
		Status:           models.PaymentStatusPending,
	}
	if err := s.payments.Create(payment); err != nil {
		return nil, fmt.Errorf("failed to store payment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"booking_id": booking.ID,
		"order_id":   orderID,
		"amount":     amount,
	}).Info("Payment order created")

	return payment, nil
}

// VerifyAndComplete checks the gateway callback signature and settles the
// payment. On success the booking confirms and the fare locks in the
// driver's escrow; a bad signature fails the payment and surfaces an error.
// Retry-safe: a COMPLETED payment re-runs the confirm and escrow steps,
// both of which are idempotent, so a crash between the commit points
// cannot strand a verified payment without its escrow credit.
func (s *PaymentService) VerifyAndComplete(req *models.VerifyPaymentRequest) (*models.Payment, error) {
	payment, err := s.payments.GetByGatewayOrderID(req.GatewayOrderID)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	switch payment.Status {
	case models.PaymentStatusPending, models.PaymentStatusCompleted:
	default:
		return nil, ErrInvalidStateTransition
	}

	if payment.Status == models.PaymentStatusPending {
		if !s.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature) {
			if err := s.payments.MarkFailed(payment.ID, "signature verification failed"); err != nil {
				s.logger.WithError(err).WithField("payment_id", payment.ID).Error("Failed to mark payment failed")
			}
			s.logger.WithField("payment_id", payment.ID).Warn("Payment signature verification failed")
			return nil, fmt.Errorf("payment signature verification failed")
		}

		now := s.clock.Now()
		if err := s.payments.MarkCompleted(payment.ID, req.GatewayPaymentID, req.GatewaySignature, now); err != nil {
			return nil, fmt.Errorf("failed to settle payment: %w", err)
		}
		payment.Status = models.PaymentStatusCompleted
		payment.GatewayPaymentID = &req.GatewayPaymentID
		payment.PaidAt = &now
	}

	booking, err := s.bookings.GetByID(payment.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	switch booking.Status {
	case models.BookingStatusPaymentPending:
		if err := s.booking.ConfirmPayment(booking); err != nil {
			return nil, err
		}
	case models.BookingStatusCancelled:
		return nil, ErrInvalidStateTransition
	}

	if err := s.wallet.CreditLocked(payment.DriverID, payment.Amount, payment.ID, payment.BookingID); err != nil {
		return nil, fmt.Errorf("failed to lock funds in escrow: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"booking_id": payment.BookingID,
		"amount":     payment.Amount,
	}).Info("Payment verified and settled")

	return payment, nil
}
