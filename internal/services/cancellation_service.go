package services

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/pkg/clock"
	"github.com/sirupsen/logrus"
)

// CancellationService handles passenger booking cancellations and driver
// ride cancellations, applying the time-tiered refund policy and restoring
// seats.
type CancellationService struct {
	bookings BookingStore
	rides    RideStore
	payments PaymentStore
	warnings WarningStore
	policy   *RefundPolicy
	gateway  PaymentGateway
	notifier Notifier
	clock    clock.Clock
	logger   *logrus.Logger
}

// NewCancellationService creates a new CancellationService
func NewCancellationService(
	bookings BookingStore,
	rides RideStore,
	payments PaymentStore,
	warnings WarningStore,
	policy *RefundPolicy,
	gateway PaymentGateway,
	notifier Notifier,
	clk clock.Clock,
	logger *logrus.Logger,
) *CancellationService {
	return &CancellationService{
		bookings: bookings,
		rides:    rides,
		payments: payments,
		warnings: warnings,
		policy:   policy,
		gateway:  gateway,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// CancelByPassenger cancels a single booking at the passenger's request.
// Refund eligibility follows the policy tiers measured against the ride's
// scheduled departure. Gateway refund failures surface to the caller; the
// booking is only cancelled after the refund (if any) succeeds, and the
// cancel commits together with the seat restore so a failure leaves the
// booking cancellable for a retry.
func (s *CancellationService) CancelByPassenger(bookingID, passengerID, reason string) (*RefundCalculation, error) {
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
	if booking.Status == models.BookingStatusCancelled || booking.Status == models.BookingStatusCompleted {
		return nil, ErrInvalidStateTransition
	}

	ride, err := s.rides.GetByID(booking.RideID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}

	now := s.clock.Now()
	calc := s.policy.Calculate(ride.RideDateTime, now, booking.ChargeableAmount())

	// Refund only what was actually paid
	if booking.Status == models.BookingStatusConfirmed && calc.RefundAmount > 0 {
		if err := s.refundPayment(booking, calc.RefundAmount, calc.Reason); err != nil {
			return nil, err
		}
	}

	if err := s.bookings.CancelRestoringSeats(booking.ID, booking.RideID, booking.SeatsBooked, reason, now); err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"refund":     calc.RefundAmount,
		"penalty":    calc.PenaltyAmount,
		"reason":     calc.Reason,
	}).Info("Booking cancelled by passenger")

	s.notifier.Send(NotificationEvent{
		UserID:    passengerID,
		BookingID: booking.ID,
		RideID:    booking.RideID,
		Kind:      NotifyBookingCancelled,
		Message:   fmt.Sprintf("Booking cancelled. Refund: %.2f (%s)", calc.RefundAmount, calc.Reason),
	})

	return &calc, nil
}

// CancelByDriver cancels a whole ride. Every active booking gets a full
// refund regardless of timing; the driver takes a disciplinary warning when
// cancelling inside 48 hours. Per-booking refund failures are logged and
// skipped so one bad payment cannot strand the other passengers.
func (s *CancellationService) CancelByDriver(rideID, driverID, reason string) error {
	ride, err := s.rides.GetByID(rideID)
	if err == sql.ErrNoRows {
		return ErrRideNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load ride: %w", err)
	}

	if ride.DriverID != driverID {
		return ErrUnauthorized
	}
	if ride.IsTerminal() {
		return ErrInvalidStateTransition
	}

	active, err := s.bookings.GetActiveByRideID(rideID)
	if err != nil {
		return fmt.Errorf("failed to load active bookings: %w", err)
	}

	now := s.clock.Now()
	hoursUntil := ride.RideDateTime.Sub(now).Hours()

	for _, booking := range active {
		if booking.Status == models.BookingStatusConfirmed {
			amount := booking.ChargeableAmount()
			if err := s.refundPayment(&booking, amount, "Ride cancelled by driver"); err != nil {
				s.logger.WithError(err).WithField("booking_id", booking.ID).
					Error("Refund failed for booking during ride cancellation")
				continue
			}
		}

		if err := s.bookings.Cancel(booking.ID, "Ride cancelled by driver: "+reason, now); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).
				Error("Failed to cancel booking during ride cancellation")
			continue
		}

		s.notifier.Send(NotificationEvent{
			UserID:    booking.PassengerID,
			BookingID: booking.ID,
			RideID:    rideID,
			Kind:      NotifyRideCancelled,
			Message:   "The driver cancelled this ride. Any payment will be refunded in full.",
		})
	}

	if err := s.rides.UpdateStatus(rideID, models.RideStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel ride: %w", err)
	}
	if err := s.rides.UpdateTripStatus(rideID, models.TripStatusCancelled, nil, nil); err != nil {
		return fmt.Errorf("failed to cancel trip status: %w", err)
	}

	if hoursUntil < 48 {
		warningType := models.WarningLateCancellation
		if hoursUntil < 1 {
			warningType = models.WarningLastMinuteCancellation
		}

		warning := &models.DriverWarning{
			DriverID: driverID,
			RideID:   &rideID,
			Type:     warningType,
			Reason:   fmt.Sprintf("Cancelled ride with %d hours notice. Reason: %s", int(math.Max(hoursUntil, 0)), reason),
		}
		if err := s.warnings.Create(warning); err != nil {
			s.logger.WithError(err).WithField("driver_id", driverID).
				Error("Failed to record driver warning")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"ride_id":           rideID,
		"driver_id":         driverID,
		"bookings_refunded": len(active),
		"hours_until_trip":  hoursUntil,
	}).Info("Ride cancelled by driver")

	return nil
}

// refundPayment issues a gateway refund for the booking's settled payment
// and marks the payment refunded.
func (s *CancellationService) refundPayment(booking *models.Booking, amount float64, reason string) error {
	payment, err := s.payments.GetCompletedByBookingID(booking.ID)
	if err == sql.ErrNoRows {
		// Confirmed without a settled payment row: nothing to refund
		s.logger.WithField("booking_id", booking.ID).Warn("No settled payment found for refund")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load payment: %w", err)
	}

	amountPaise := int64(math.Round(amount * 100))
	notes := map[string]string{
		"booking_id": booking.ID,
		"reason":     reason,
	}

	if payment.GatewayPaymentID == nil {
		return fmt.Errorf("payment %s has no gateway payment reference", payment.ID)
	}

	if _, err := s.gateway.Refund(*payment.GatewayPaymentID, amountPaise, notes); err != nil {
		return fmt.Errorf("gateway refund failed: %w", err)
	}

	if err := s.payments.MarkRefunded(payment.ID); err != nil {
		return fmt.Errorf("failed to mark payment refunded: %w", err)
	}

	return nil
}
