package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ridehub/ridehub-backend/internal/database"
	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/pkg/clock"
	"github.com/sirupsen/logrus"
)

// paymentDueBefore is how long before departure payment falls due
const paymentDueBefore = 24 * time.Hour

// BookingService manages the booking lifecycle from reservation through
// pricing. Cancellations live in CancellationService, boarding transitions
// in TripService.
type BookingService struct {
	bookings BookingStore
	rides    RideStore
	geo      *GeoService
	notifier Notifier
	clock    clock.Clock
	logger   *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookings BookingStore,
	rides RideStore,
	geo *GeoService,
	notifier Notifier,
	clk clock.Clock,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		rides:    rides,
		geo:      geo,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// CreateBooking reserves seats on a ride for a passenger. The booking
// starts TENTATIVE; payment is requested 24 hours before departure.
func (s *BookingService) CreateBooking(passengerID string, req *models.CreateBookingRequest) (*models.Booking, error) {
	// 1. Load the ride and check it is open for booking
	ride, err := s.rides.GetByID(req.RideID)
	if err == sql.ErrNoRows {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}

	if ride.Status != models.RideStatusAvailable || ride.TripStatus != models.TripStatusScheduled {
		return nil, ErrInvalidStateTransition
	}
	if ride.AvailableSeats < req.SeatsBooked {
		return nil, ErrInsufficientSeats
	}

	// 2. Price the booking off the full route cost
	segmentDistance := s.geo.DistanceKm(req.PickupLat, req.PickupLng, req.DropLat, req.DropLng)
	totalTripCost := s.geo.Fare(ride.DistanceKm, ride.FarePerKm)
	maximumPrice := roundMoney(totalTripCost * float64(req.SeatsBooked))

	booking := &models.Booking{
		RideID:            ride.ID,
		PassengerID:       passengerID,
		SeatsBooked:       req.SeatsBooked,
		PickupLocation:    req.PickupLocation,
		DropLocation:      req.DropLocation,
		PickupLat:         req.PickupLat,
		PickupLng:         req.PickupLng,
		DropLat:           req.DropLat,
		DropLng:           req.DropLng,
		SegmentDistanceKm: segmentDistance,
		TotalTripCost:     totalTripCost,
		MaximumPrice:      maximumPrice,
		Status:            models.BookingStatusTentative,
		PaymentDueAt:      ride.RideDateTime.Add(-paymentDueBefore),
	}

	// 3. Take the seats atomically, then persist the booking
	if err := s.rides.ReserveSeats(ride.ID, req.SeatsBooked); err != nil {
		if err == database.ErrNoSeats {
			return nil, ErrInsufficientSeats
		}
		return nil, fmt.Errorf("failed to reserve seats: %w", err)
	}

	if err := s.bookings.Create(booking); err != nil {
		// Return the seats we just took
		if restoreErr := s.rides.RestoreSeats(ride.ID, req.SeatsBooked); restoreErr != nil {
			s.logger.WithError(restoreErr).WithField("ride_id", ride.ID).
				Error("Failed to restore seats after booking insert failure")
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"ride_id":      ride.ID,
		"passenger_id": passengerID,
		"seats":        req.SeatsBooked,
	}).Info("Booking created")

	s.notifier.Send(NotificationEvent{
		UserID:    passengerID,
		BookingID: booking.ID,
		RideID:    ride.ID,
		Kind:      NotifyBookingCreated,
		Message:   fmt.Sprintf("Booking confirmed tentatively for %s to %s", booking.PickupLocation, booking.DropLocation),
	})

	return booking, nil
}

// GetBookingByID retrieves a booking. Only the booking's passenger or the
// ride's driver may read it.
func (s *BookingService) GetBookingByID(bookingID, actorID string) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	if booking.PassengerID != actorID {
		ride, err := s.rides.GetByID(booking.RideID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ride: %w", err)
		}
		if ride.DriverID != actorID {
			return nil, ErrUnauthorized
		}
	}

	return booking, nil
}

// GetMyBookings retrieves all bookings made by a passenger
func (s *BookingService) GetMyBookings(passengerID string) ([]models.Booking, error) {
	return s.bookings.GetByPassengerID(passengerID)
}

// GetRideBookings retrieves all bookings on a ride for its driver
func (s *BookingService) GetRideBookings(rideID, driverID string) ([]models.Booking, error) {
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

	return s.bookings.GetByRideID(rideID)
}

// ComputeFinalPrice splits the ride's total trip cost over all seats held
// by active bookings and fixes this booking's share. The price is a
// snapshot: later joins or cancellations do not recompute it. The booking
// moves to PAYMENT_PENDING and the passenger is asked to pay.
func (s *BookingService) ComputeFinalPrice(booking *models.Booking) (float64, error) {
	active, err := s.bookings.GetActiveByRideID(booking.RideID)
	if err != nil {
		return 0, fmt.Errorf("failed to load active bookings: %w", err)
	}

	totalActiveSeats := 0
	for _, b := range active {
		totalActiveSeats += b.SeatsBooked
	}
	if totalActiveSeats == 0 {
		return 0, fmt.Errorf("no active seats on ride %s", booking.RideID)
	}

	finalSeatRate := booking.TotalTripCost / float64(totalActiveSeats)
	finalPrice := roundMoney(finalSeatRate * float64(booking.SeatsBooked))

	if err := s.bookings.SetFinalPrice(booking.ID, finalPrice); err != nil {
		return 0, fmt.Errorf("failed to set final price: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"final_price":  finalPrice,
		"active_seats": totalActiveSeats,
	}).Info("Final price computed, payment requested")

	s.notifier.Send(NotificationEvent{
		UserID:    booking.PassengerID,
		BookingID: booking.ID,
		RideID:    booking.RideID,
		Kind:      NotifyPaymentRequested,
		Message:   fmt.Sprintf("Your fare is ready: pay %.2f to confirm your seat", finalPrice),
	})

	return finalPrice, nil
}

// ConfirmPayment moves a booking to CONFIRMED after its payment settled
func (s *BookingService) ConfirmPayment(booking *models.Booking) error {
	now := s.clock.Now()
	if err := s.bookings.TransitionStatus(booking.ID, models.BookingStatusPaymentPending, models.BookingStatusConfirmed, now); err != nil {
		return ErrInvalidStateTransition
	}

	s.logger.WithField("booking_id", booking.ID).Info("Booking confirmed")

	s.notifier.Send(NotificationEvent{
		UserID:    booking.PassengerID,
		BookingID: booking.ID,
		RideID:    booking.RideID,
		Kind:      NotifyBookingConfirmed,
		Message:   "Payment received, your seat is confirmed",
	})

	return nil
}
