package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/pkg/clock"
)

var testNow = time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testRide() *models.Ride {
	return &models.Ride{
		ID:             "ride-1",
		DriverID:       "driver-1",
		Source:         "Koramangala",
		Destination:    "Whitefield",
		SourceLat:      0,
		SourceLng:      0,
		DestinationLat: 0,
		DestinationLng: 1,
		RideDateTime:   testNow.Add(72 * time.Hour),
		TotalSeats:     3,
		AvailableSeats: 3,
		FarePerKm:      5,
		DistanceKm:     100,
		Status:         models.RideStatusAvailable,
		TripStatus:     models.TripStatusScheduled,
	}
}

func newBookingServiceForTest(rides *fakeRideStore, bookings *fakeBookingStore, notifier *fakeNotifier) *BookingService {
	return NewBookingService(bookings, rides, NewGeoService(), notifier, clock.Fixed{Time: testNow}, quietLogger())
}

func TestCreateBooking(t *testing.T) {
	ride := testRide()
	rides := newFakeRideStore(ride)
	bookings := newFakeBookingStore()
	notifier := &fakeNotifier{}
	service := newBookingServiceForTest(rides, bookings, notifier)

	req := &models.CreateBookingRequest{
		RideID:         "ride-1",
		SeatsBooked:    2,
		PickupLocation: "Koramangala",
		DropLocation:   "Marathahalli",
		PickupLat:      0,
		PickupLng:      0.1,
		DropLat:        0,
		DropLng:        0.8,
	}

	booking, err := service.CreateBooking("passenger-1", req)
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusTentative, booking.Status)
	assert.Equal(t, 500.0, booking.TotalTripCost)
	assert.Equal(t, 1000.0, booking.MaximumPrice)
	assert.Nil(t, booking.FinalPrice)
	assert.Equal(t, ride.RideDateTime.Add(-24*time.Hour), booking.PaymentDueAt)
	assert.Greater(t, booking.SegmentDistanceKm, 0.0)

	assert.Equal(t, 1, ride.AvailableSeats)
	assert.Equal(t, []string{NotifyBookingCreated}, notifier.kinds())
}

func TestCreateBooking_LastSeatFillsRide(t *testing.T) {
	ride := testRide()
	rides := newFakeRideStore(ride)
	service := newBookingServiceForTest(rides, newFakeBookingStore(), &fakeNotifier{})

	req := &models.CreateBookingRequest{
		RideID: "ride-1", SeatsBooked: 3,
		PickupLocation: "A", DropLocation: "B",
		PickupLat: 0, PickupLng: 0.1, DropLat: 0, DropLng: 0.8,
	}

	_, err := service.CreateBooking("passenger-1", req)
	require.NoError(t, err)
	assert.Equal(t, 0, ride.AvailableSeats)
	assert.Equal(t, models.RideStatusFull, ride.Status)
}

func TestCreateBooking_InsufficientSeats(t *testing.T) {
	ride := testRide()
	ride.AvailableSeats = 1
	service := newBookingServiceForTest(newFakeRideStore(ride), newFakeBookingStore(), &fakeNotifier{})

	req := &models.CreateBookingRequest{
		RideID: "ride-1", SeatsBooked: 2,
		PickupLocation: "A", DropLocation: "B",
		PickupLat: 0, PickupLng: 0.1, DropLat: 0, DropLng: 0.8,
	}

	_, err := service.CreateBooking("passenger-1", req)
	assert.Equal(t, ErrInsufficientSeats, err)
}

func TestCreateBooking_ReserveFailureIsNotSeatShortage(t *testing.T) {
	rides := newFakeRideStore(testRide())
	rides.reserveErr = fmt.Errorf("driver: bad connection")
	service := newBookingServiceForTest(rides, newFakeBookingStore(), &fakeNotifier{})

	req := &models.CreateBookingRequest{
		RideID: "ride-1", SeatsBooked: 2,
		PickupLocation: "A", DropLocation: "B",
		PickupLat: 0, PickupLng: 0.1, DropLat: 0, DropLng: 0.8,
	}

	_, err := service.CreateBooking("passenger-1", req)
	require.Error(t, err)
	assert.NotEqual(t, ErrInsufficientSeats, err)
	assert.Contains(t, err.Error(), "failed to reserve seats")
}

func TestCreateBooking_RideNotOpen(t *testing.T) {
	ride := testRide()
	ride.Status = models.RideStatusCancelled
	service := newBookingServiceForTest(newFakeRideStore(ride), newFakeBookingStore(), &fakeNotifier{})

	req := &models.CreateBookingRequest{
		RideID: "ride-1", SeatsBooked: 1,
		PickupLocation: "A", DropLocation: "B",
		PickupLat: 0, PickupLng: 0.1, DropLat: 0, DropLng: 0.8,
	}

	_, err := service.CreateBooking("passenger-1", req)
	assert.Equal(t, ErrInvalidStateTransition, err)
}

func TestCreateBooking_RideNotFound(t *testing.T) {
	service := newBookingServiceForTest(newFakeRideStore(), newFakeBookingStore(), &fakeNotifier{})

	req := &models.CreateBookingRequest{
		RideID: "ride-missing", SeatsBooked: 1,
		PickupLocation: "A", DropLocation: "B",
		PickupLat: 0, PickupLng: 0.1, DropLat: 0, DropLng: 0.8,
	}

	_, err := service.CreateBooking("passenger-1", req)
	assert.Equal(t, ErrRideNotFound, err)
}

func TestCreateBooking_RestoresSeatsOnInsertFailure(t *testing.T) {
	ride := testRide()
	bookings := newFakeBookingStore()
	bookings.createErr = fmt.Errorf("insert failed")
	service := newBookingServiceForTest(newFakeRideStore(ride), bookings, &fakeNotifier{})

	req := &models.CreateBookingRequest{
		RideID: "ride-1", SeatsBooked: 2,
		PickupLocation: "A", DropLocation: "B",
		PickupLat: 0, PickupLng: 0.1, DropLat: 0, DropLng: 0.8,
	}

	_, err := service.CreateBooking("passenger-1", req)
	require.Error(t, err)
	assert.Equal(t, 3, ride.AvailableSeats)
}

func TestComputeFinalPrice(t *testing.T) {
	ride := testRide()
	target := &models.Booking{
		ID: "booking-1", RideID: "ride-1", PassengerID: "passenger-1",
		SeatsBooked: 2, TotalTripCost: 500,
		Status: models.BookingStatusTentative,
	}
	other := &models.Booking{
		ID: "booking-2", RideID: "ride-1", PassengerID: "passenger-2",
		SeatsBooked: 1, TotalTripCost: 500,
		Status: models.BookingStatusConfirmed,
	}
	bookings := newFakeBookingStore(target, other)
	notifier := &fakeNotifier{}
	service := newBookingServiceForTest(newFakeRideStore(ride), bookings, notifier)

	finalPrice, err := service.ComputeFinalPrice(target)
	require.NoError(t, err)

	// 500 split over 3 active seats, times 2 seats booked
	assert.Equal(t, 333.33, finalPrice)
	assert.Equal(t, models.BookingStatusPaymentPending, target.Status)
	require.NotNil(t, target.FinalPrice)
	assert.Equal(t, 333.33, *target.FinalPrice)
	assert.Equal(t, []string{NotifyPaymentRequested}, notifier.kinds())
}

func TestComputeFinalPrice_SoleBookingPaysFullCost(t *testing.T) {
	target := &models.Booking{
		ID: "booking-1", RideID: "ride-1", PassengerID: "passenger-1",
		SeatsBooked: 2, TotalTripCost: 500,
		Status: models.BookingStatusTentative,
	}
	service := newBookingServiceForTest(newFakeRideStore(testRide()), newFakeBookingStore(target), &fakeNotifier{})

	finalPrice, err := service.ComputeFinalPrice(target)
	require.NoError(t, err)
	assert.Equal(t, 500.0, finalPrice)
	assert.True(t, target.PaymentRequestSent)
}

func TestConfirmPayment(t *testing.T) {
	booking := &models.Booking{
		ID: "booking-1", RideID: "ride-1", PassengerID: "passenger-1",
		Status: models.BookingStatusPaymentPending,
	}
	notifier := &fakeNotifier{}
	service := newBookingServiceForTest(newFakeRideStore(), newFakeBookingStore(booking), notifier)

	require.NoError(t, service.ConfirmPayment(booking))
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, []string{NotifyBookingConfirmed}, notifier.kinds())
}

func TestConfirmPayment_WrongState(t *testing.T) {
	booking := &models.Booking{
		ID: "booking-1", RideID: "ride-1", PassengerID: "passenger-1",
		Status: models.BookingStatusTentative,
	}
	service := newBookingServiceForTest(newFakeRideStore(), newFakeBookingStore(booking), &fakeNotifier{})

	err := service.ConfirmPayment(booking)
	assert.Equal(t, ErrInvalidStateTransition, err)
	assert.Equal(t, models.BookingStatusTentative, booking.Status)
}

func TestGetBookingByID_Authorization(t *testing.T) {
	ride := testRide()
	booking := &models.Booking{
		ID: "booking-1", RideID: "ride-1", PassengerID: "passenger-1",
		Status: models.BookingStatusConfirmed,
	}
	service := newBookingServiceForTest(newFakeRideStore(ride), newFakeBookingStore(booking), &fakeNotifier{})

	t.Run("passenger can read", func(t *testing.T) {
		got, err := service.GetBookingByID("booking-1", "passenger-1")
		require.NoError(t, err)
		assert.Equal(t, "booking-1", got.ID)
	})

	t.Run("ride driver can read", func(t *testing.T) {
		_, err := service.GetBookingByID("booking-1", "driver-1")
		assert.NoError(t, err)
	})

	t.Run("stranger cannot read", func(t *testing.T) {
		_, err := service.GetBookingByID("booking-1", "someone-else")
		assert.Equal(t, ErrUnauthorized, err)
	})
}
