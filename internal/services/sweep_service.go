package services

import (
	"time"

	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/pkg/clock"
	"github.com/sirupsen/logrus"
)

const (
	// pastRideGrace is how long after the scheduled departure a ride may
	// linger before the completion sweep force-closes it
	pastRideGrace = 2 * time.Hour

	// warningWindow is the width of the one-hour-warning scan window.
	// Rides departing in [60, 70) minutes get warned; the sent flag
	// keeps reruns from re-firing.
	warningWindow = 10 * time.Minute
)

// SweepService holds the periodic reconciliation jobs. Each sweep is a
// plain method so tests drive it directly; scheduling lives in
// SchedulerService. Sweeps tolerate per-item failures: one bad row is
// logged and skipped, the rest of the batch proceeds, and the next run
// retries whatever still matches.
type SweepService struct {
	bookings BookingStore
	rides    RideStore
	booking  *BookingService
	wallet   *WalletService
	notifier Notifier
	clock    clock.Clock
	logger   *logrus.Logger
}

// NewSweepService creates a new SweepService
func NewSweepService(
	bookings BookingStore,
	rides RideStore,
	bookingSvc *BookingService,
	wallet *WalletService,
	notifier Notifier,
	clk clock.Clock,
	logger *logrus.Logger,
) *SweepService {
	return &SweepService{
		bookings: bookings,
		rides:    rides,
		booking:  bookingSvc,
		wallet:   wallet,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// ProcessPaymentRequests prices every tentative booking whose payment due
// time has arrived and asks the passenger to pay.
func (s *SweepService) ProcessPaymentRequests() (int, error) {
	now := s.clock.Now()
	due, err := s.bookings.FindNeedingPaymentRequest(now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range due {
		if _, err := s.booking.ComputeFinalPrice(&due[i]); err != nil {
			s.logger.WithError(err).WithField("booking_id", due[i].ID).
				Error("Failed to compute final price")
			continue
		}
		processed++
	}

	if processed > 0 {
		s.logger.WithField("count", processed).Info("Payment requests processed")
	}

	return processed, nil
}

// CompletePastRides force-closes rides whose departure plus grace period
// passed without the normal completion flow, and completes their still
// confirmed bookings so funds can release.
func (s *SweepService) CompletePastRides() (int, error) {
	now := s.clock.Now()
	cutoff := now.Add(-pastRideGrace)

	stale, err := s.rides.FindPastUncompleted(cutoff)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, ride := range stale {
		if err := s.rides.UpdateStatus(ride.ID, models.RideStatusCompleted); err != nil {
			s.logger.WithError(err).WithField("ride_id", ride.ID).Error("Failed to complete stale ride")
			continue
		}
		if err := s.rides.UpdateTripStatus(ride.ID, models.TripStatusCompleted, nil, &now); err != nil {
			s.logger.WithError(err).WithField("ride_id", ride.ID).Error("Failed to complete stale trip")
			continue
		}

		confirmed, err := s.bookings.GetByRideIDAndStatus(ride.ID, models.BookingStatusConfirmed)
		if err != nil {
			s.logger.WithError(err).WithField("ride_id", ride.ID).Error("Failed to load confirmed bookings")
			continue
		}
		for _, booking := range confirmed {
			if err := s.bookings.TransitionStatus(booking.ID, models.BookingStatusConfirmed, models.BookingStatusCompleted, now); err != nil {
				s.logger.WithError(err).WithField("booking_id", booking.ID).
					Error("Failed to complete booking on stale ride")
			}
		}

		completed++
	}

	if completed > 0 {
		s.logger.WithField("count", completed).Info("Stale rides completed")
	}

	return completed, nil
}

// SendOneHourWarnings warns drivers and passengers of rides departing
// within the hour. Each ride warns at most once.
func (s *SweepService) SendOneHourWarnings() (int, error) {
	now := s.clock.Now()
	from := now.Add(time.Hour)
	to := from.Add(warningWindow)

	upcoming, err := s.rides.FindStartingBetween(from, to)
	if err != nil {
		return 0, err
	}

	warned := 0
	for _, ride := range upcoming {
		confirmed, err := s.bookings.GetByRideIDAndStatus(ride.ID, models.BookingStatusConfirmed)
		if err != nil {
			s.logger.WithError(err).WithField("ride_id", ride.ID).Error("Failed to load confirmed bookings")
			continue
		}
		if len(confirmed) == 0 {
			continue
		}

		s.notifier.Send(NotificationEvent{
			UserID:  ride.DriverID,
			RideID:  ride.ID,
			Kind:    NotifyOneHourWarning,
			Message: "Your ride departs in about an hour",
		})
		for _, booking := range confirmed {
			s.notifier.Send(NotificationEvent{
				UserID:    booking.PassengerID,
				BookingID: booking.ID,
				RideID:    ride.ID,
				Kind:      NotifyOneHourWarning,
				Message:   "Your ride departs in about an hour. Be ready at your pickup point.",
			})
		}

		if err := s.rides.MarkOneHourWarningSent(ride.ID); err != nil {
			s.logger.WithError(err).WithField("ride_id", ride.ID).Error("Failed to flag one-hour warning")
			continue
		}
		warned++
	}

	if warned > 0 {
		s.logger.WithField("count", warned).Info("One-hour warnings sent")
	}

	return warned, nil
}

// ReleaseCompletedFunds is the safety net behind the normal completion
// flow: any ended booking whose escrow was never settled gets its funds
// released. Settlement idempotence makes overlap with the trip flow safe.
func (s *SweepService) ReleaseCompletedFunds() (int, error) {
	pending, err := s.bookings.FindEndedWithLockedFunds()
	if err != nil {
		return 0, err
	}

	released := 0
	for i := range pending {
		booking := &pending[i]

		ride, err := s.rides.GetByID(booking.RideID)
		if err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to load ride for fund release")
			continue
		}

		if err := s.wallet.ReleaseFunds(booking, ride.DriverID); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to release funds")
			continue
		}

		s.notifier.Send(NotificationEvent{
			UserID:    ride.DriverID,
			BookingID: booking.ID,
			RideID:    ride.ID,
			Kind:      NotifyFundsReleased,
			Message:   "Your trip earnings are now available for withdrawal",
		})
		released++
	}

	if released > 0 {
		s.logger.WithField("count", released).Info("Locked funds released")
	}

	return released, nil
}
