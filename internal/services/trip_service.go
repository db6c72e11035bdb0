package services

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/pkg/clock"
	"github.com/sirupsen/logrus"
)

const (
	// otpLength is the number of digits in a boarding OTP
	otpLength = 6

	// otpExpiry is how long a boarding OTP stays valid
	otpExpiry = 15 * time.Minute

	// selfStartBefore and selfStartAfter bound the window around the
	// scheduled departure in which a passenger may start the trip
	// without the driver's OTP flow.
	selfStartBefore = time.Hour
	selfStartAfter  = 2 * time.Hour
)

// TripService manages the physical journey: starting the trip, verifying
// passenger boarding and deboarding with one-time codes, and completing the
// ride once everyone has left the vehicle.
type TripService struct {
	rides    RideStore
	bookings BookingStore
	boarding BoardingStore
	wallet   *WalletService
	notifier Notifier
	clock    clock.Clock
	logger   *logrus.Logger
}

// NewTripService creates a new TripService
func NewTripService(
	rides RideStore,
	bookings BookingStore,
	boarding BoardingStore,
	wallet *WalletService,
	notifier Notifier,
	clk clock.Clock,
	logger *logrus.Logger,
) *TripService {
	return &TripService{
		rides:    rides,
		bookings: bookings,
		boarding: boarding,
		wallet:   wallet,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// StartJourney moves a ride from SCHEDULED to PICKING_UP and tells the
// confirmed passengers the driver is on the way.
func (s *TripService) StartJourney(rideID, driverID string) error {
	ride, err := s.loadDriverRide(rideID, driverID)
	if err != nil {
		return err
	}

	if ride.TripStatus != models.TripStatusScheduled {
		return ErrInvalidStateTransition
	}

	now := s.clock.Now()
	if err := s.rides.UpdateTripStatus(rideID, models.TripStatusPickingUp, &now, nil); err != nil {
		return fmt.Errorf("failed to start journey: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"ride_id":   rideID,
		"driver_id": driverID,
	}).Info("Journey started, picking up passengers")

	confirmed, err := s.bookings.GetByRideIDAndStatus(rideID, models.BookingStatusConfirmed)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load confirmed bookings for start notifications")
		return nil
	}
	for _, booking := range confirmed {
		s.notifier.Send(NotificationEvent{
			UserID:    booking.PassengerID,
			BookingID: booking.ID,
			RideID:    rideID,
			Kind:      NotifyTripStarted,
			Message:   "Your driver has started the trip and is on the way",
		})
	}

	return nil
}

// GenerateOnboardingOTP issues a one-time code the passenger reads back to
// the driver at pickup. Only valid once the driver is picking up and while
// the booking is CONFIRMED.
func (s *TripService) GenerateOnboardingOTP(bookingID, driverID string) (*models.BoardingRecord, error) {
	booking, ride, err := s.loadBookingForDriver(bookingID, driverID)
	if err != nil {
		return nil, err
	}

	if ride.TripStatus != models.TripStatusPickingUp && ride.TripStatus != models.TripStatusInProgress {
		return nil, ErrInvalidStateTransition
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, ErrInvalidStateTransition
	}

	onboarded, err := s.boarding.HasValidated(bookingID, models.BoardingTypeOnboarding)
	if err != nil {
		return nil, fmt.Errorf("failed to check onboarding state: %w", err)
	}
	if onboarded {
		return nil, ErrAlreadyOnboarded
	}

	return s.issueOTP(booking, models.BoardingTypeOnboarding)
}

// ValidateOnboardingOTP spends an onboarding code. On success the booking
// moves to ONBOARDED; once every active booking is aboard the ride moves to
// IN_PROGRESS.
func (s *TripService) ValidateOnboardingOTP(bookingID, driverID, code string) error {
	_, ride, err := s.loadBookingForDriver(bookingID, driverID)
	if err != nil {
		return err
	}

	if err := s.spendOTP(bookingID, code, models.BoardingTypeOnboarding); err != nil {
		return err
	}

	now := s.clock.Now()
	if err := s.bookings.TransitionStatus(bookingID, models.BookingStatusConfirmed, models.BookingStatusOnboarded, now); err != nil {
		return ErrInvalidStateTransition
	}
	if err := s.bookings.MarkDriverStarted(bookingID, now); err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID).Warn("Failed to flag driver-started ride")
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"ride_id":    ride.ID,
	}).Info("Passenger onboarded")

	// All aboard: the pickup phase is over
	if ride.TripStatus == models.TripStatusPickingUp {
		allAboard, err := s.allActiveVerified(ride.ID, models.BoardingTypeOnboarding)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to check onboarding completion")
			return nil
		}
		if allAboard {
			if err := s.rides.UpdateTripStatus(ride.ID, models.TripStatusInProgress, nil, nil); err != nil {
				s.logger.WithError(err).WithField("ride_id", ride.ID).Error("Failed to move ride in progress")
			}
		}
	}

	return nil
}

// GenerateDeboardingOTP issues the drop-off verification code. Only valid
// for bookings that are currently ONBOARDED.
func (s *TripService) GenerateDeboardingOTP(bookingID, driverID string) (*models.BoardingRecord, error) {
	booking, _, err := s.loadBookingForDriver(bookingID, driverID)
	if err != nil {
		return nil, err
	}

	if booking.Status != models.BookingStatusOnboarded {
		return nil, ErrInvalidStateTransition
	}

	return s.issueOTP(booking, models.BoardingTypeDeboarding)
}

// ValidateDeboardingOTP spends a deboarding code. On success the booking
// moves to DEBOARDED; once every onboarded passenger has left, the ride
// completes and each booking's escrow unlocks.
func (s *TripService) ValidateDeboardingOTP(bookingID, driverID, code string) error {
	_, ride, err := s.loadBookingForDriver(bookingID, driverID)
	if err != nil {
		return err
	}

	if err := s.spendOTP(bookingID, code, models.BoardingTypeDeboarding); err != nil {
		return err
	}

	now := s.clock.Now()
	if err := s.bookings.TransitionStatus(bookingID, models.BookingStatusOnboarded, models.BookingStatusDeboarded, now); err != nil {
		return ErrInvalidStateTransition
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"ride_id":    ride.ID,
	}).Info("Passenger deboarded")

	return s.completeTripIfAllDeboarded(ride)
}

// PassengerStartRide lets a passenger start their own trip inside the
// window around the scheduled departure, skipping the driver OTP flow.
// Whichever of the two paths transitions the booking first wins.
func (s *TripService) PassengerStartRide(bookingID, passengerID string) error {
	booking, err := s.loadPassengerBooking(bookingID, passengerID)
	if err != nil {
		return err
	}

	if booking.Status != models.BookingStatusConfirmed {
		return ErrInvalidStateTransition
	}

	ride, err := s.rides.GetByID(booking.RideID)
	if err != nil {
		return fmt.Errorf("failed to load ride: %w", err)
	}

	now := s.clock.Now()
	windowOpen := ride.RideDateTime.Add(-selfStartBefore)
	windowClose := ride.RideDateTime.Add(selfStartAfter)
	if now.Before(windowOpen) || now.After(windowClose) {
		return ErrOutsideStartWindow
	}

	if err := s.bookings.TransitionStatus(bookingID, models.BookingStatusConfirmed, models.BookingStatusOnboarded, now); err != nil {
		return ErrInvalidStateTransition
	}
	if err := s.bookings.MarkPassengerStarted(bookingID, now); err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID).Warn("Failed to flag passenger-started ride")
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   bookingID,
		"passenger_id": passengerID,
	}).Info("Passenger started ride via self-service")

	return nil
}

// PassengerEndRide lets a passenger confirm their own drop-off. Runs the
// same completion check as the driver's deboarding flow.
func (s *TripService) PassengerEndRide(bookingID, passengerID string) error {
	booking, err := s.loadPassengerBooking(bookingID, passengerID)
	if err != nil {
		return err
	}

	if booking.Status != models.BookingStatusOnboarded {
		return ErrInvalidStateTransition
	}

	now := s.clock.Now()
	if err := s.bookings.TransitionStatus(bookingID, models.BookingStatusOnboarded, models.BookingStatusDeboarded, now); err != nil {
		return ErrInvalidStateTransition
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   bookingID,
		"passenger_id": passengerID,
	}).Info("Passenger ended ride via self-service")

	ride, err := s.rides.GetByID(booking.RideID)
	if err != nil {
		return fmt.Errorf("failed to load ride: %w", err)
	}

	return s.completeTripIfAllDeboarded(ride)
}

// completeTripIfAllDeboarded completes the ride once no booking remains
// aboard: both ride statuses go COMPLETED, every deboarded booking becomes
// COMPLETED, and each booking's escrow unlocks. Unlocking is idempotent so
// overlap with the fund-release sweep is harmless.
func (s *TripService) completeTripIfAllDeboarded(ride *models.Ride) error {
	all, err := s.bookings.GetByRideID(ride.ID)
	if err != nil {
		return fmt.Errorf("failed to load bookings: %w", err)
	}

	aboard := 0
	deboarded := []models.Booking{}
	for _, b := range all {
		switch b.Status {
		case models.BookingStatusOnboarded, models.BookingStatusConfirmed,
			models.BookingStatusTentative, models.BookingStatusPaymentPending:
			aboard++
		case models.BookingStatusDeboarded:
			deboarded = append(deboarded, b)
		}
	}

	if aboard > 0 || len(deboarded) == 0 {
		return nil
	}

	now := s.clock.Now()
	if err := s.rides.UpdateTripStatus(ride.ID, models.TripStatusCompleted, nil, &now); err != nil {
		return fmt.Errorf("failed to complete trip: %w", err)
	}
	if err := s.rides.UpdateStatus(ride.ID, models.RideStatusCompleted); err != nil {
		return fmt.Errorf("failed to complete ride: %w", err)
	}

	for _, booking := range deboarded {
		if err := s.bookings.TransitionStatus(booking.ID, models.BookingStatusDeboarded, models.BookingStatusCompleted, now); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to complete booking")
			continue
		}

		if err := s.wallet.UnlockFunds(&booking, ride.DriverID); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to unlock escrow")
			continue
		}

		s.notifier.Send(NotificationEvent{
			UserID:    booking.PassengerID,
			BookingID: booking.ID,
			RideID:    ride.ID,
			Kind:      NotifyTripCompleted,
			Message:   "Trip completed. Thanks for riding with us!",
		})
	}

	s.logger.WithFields(logrus.Fields{
		"ride_id":  ride.ID,
		"bookings": len(deboarded),
	}).Info("Trip completed, all passengers deboarded")

	return nil
}

// issueOTP creates and delivers a fresh boarding code for a booking
func (s *TripService) issueOTP(booking *models.Booking, boardingType models.BoardingType) (*models.BoardingRecord, error) {
	code, err := generateRandomOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	now := s.clock.Now()
	record := &models.BoardingRecord{
		BookingID:   booking.ID,
		RideID:      booking.RideID,
		PassengerID: booking.PassengerID,
		OTPCode:     code,
		Type:        boardingType,
		GeneratedAt: now,
		ExpiresAt:   now.Add(otpExpiry),
	}

	if err := s.boarding.Create(record); err != nil {
		return nil, fmt.Errorf("failed to store boarding record: %w", err)
	}

	s.notifier.Send(NotificationEvent{
		UserID:    booking.PassengerID,
		BookingID: booking.ID,
		RideID:    booking.RideID,
		Kind:      NotifyBoardingOTP,
		Message:   fmt.Sprintf("Your %s code is %s. It expires in 15 minutes.", boardingType, code),
		Data:      map[string]string{"otp_code": code},
	})

	return record, nil
}

// spendOTP validates and consumes a one-time code for a booking. A code
// matches at most once: validated records are excluded from the lookup.
func (s *TripService) spendOTP(bookingID, code string, boardingType models.BoardingType) error {
	record, err := s.boarding.FindUnvalidatedByCode(code, boardingType)
	if err == sql.ErrNoRows {
		return ErrInvalidOTP
	}
	if err != nil {
		return fmt.Errorf("failed to look up OTP: %w", err)
	}

	if record.BookingID != bookingID {
		return ErrInvalidOTP
	}
	if record.IsExpired(s.clock.Now()) {
		return ErrOTPExpired
	}

	if err := s.boarding.MarkValidated(record.ID, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to consume OTP: %w", err)
	}

	return nil
}

// allActiveVerified reports whether every seat-holding booking on the ride
// has passed the given boarding verification. Self-started bookings carry
// no OTP record and are excluded from the required count.
func (s *TripService) allActiveVerified(rideID string, boardingType models.BoardingType) (bool, error) {
	all, err := s.bookings.GetByRideID(rideID)
	if err != nil {
		return false, err
	}

	required := 0
	for _, b := range all {
		switch b.Status {
		case models.BookingStatusConfirmed, models.BookingStatusOnboarded:
			if !b.PassengerStarted {
				required++
			}
		}
	}

	verified, err := s.boarding.CountValidatedByRide(rideID, boardingType)
	if err != nil {
		return false, err
	}

	return verified >= required, nil
}

// loadDriverRide loads a ride and checks driver ownership
func (s *TripService) loadDriverRide(rideID, driverID string) (*models.Ride, error) {
	ride, err := s.rides.GetByID(rideID)
	if err == sql.ErrNoRows {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}
	if ride.DriverID != driverID {
		return nil, ErrUnauthorized
	}
	return ride, nil
}

// loadBookingForDriver loads a booking plus its ride and checks the actor
// drives that ride.
func (s *TripService) loadBookingForDriver(bookingID, driverID string) (*models.Booking, *models.Ride, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err == sql.ErrNoRows {
		return nil, nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load booking: %w", err)
	}

	ride, err := s.loadDriverRide(booking.RideID, driverID)
	if err != nil {
		return nil, nil, err
	}

	return booking, ride, nil
}

// loadPassengerBooking loads a booking and checks passenger ownership
func (s *TripService) loadPassengerBooking(bookingID, passengerID string) (*models.Booking, error) {
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
	return booking, nil
}

// generateRandomOTP generates a cryptographically random numeric code
func generateRandomOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpLength, n.Int64()), nil
}
