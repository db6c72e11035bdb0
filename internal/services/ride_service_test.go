package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/pkg/clock"
)

func newRideServiceForTest(rides *fakeRideStore) *RideService {
	return NewRideService(rides, NewGeoService(), clock.Fixed{Time: testNow}, quietLogger())
}

func TestCreateRide(t *testing.T) {
	rides := newFakeRideStore()
	service := newRideServiceForTest(rides)

	req := &models.CreateRideRequest{
		Source:         "Koramangala",
		Destination:    "Whitefield",
		SourceLat:      0,
		SourceLng:      0,
		DestinationLat: 0,
		DestinationLng: 1,
		RideDateTime:   testNow.Add(48 * time.Hour),
		TotalSeats:     3,
		FarePerKm:      5,
	}

	ride, err := service.CreateRide("driver-1", req)
	require.NoError(t, err)

	assert.Equal(t, models.RideStatusAvailable, ride.Status)
	assert.Equal(t, models.TripStatusScheduled, ride.TripStatus)
	assert.Equal(t, 3, ride.AvailableSeats)
	// One degree of longitude at the equator is about 111.2 km
	assert.InDelta(t, 111.2, ride.DistanceKm, 0.5)
	assert.NotEmpty(t, ride.ID)
}

func TestGetRide_NotFound(t *testing.T) {
	service := newRideServiceForTest(newFakeRideStore())

	_, err := service.GetRide("ride-missing")
	assert.Equal(t, ErrRideNotFound, err)
}

func TestSearchRides_FiltersByRoute(t *testing.T) {
	onRoute := testRide() // equator route from lng 0 to lng 1
	onRoute.DestinationLng = 10

	offRoute := testRide()
	offRoute.ID = "ride-2"
	offRoute.SourceLat = 20
	offRoute.SourceLng = 20
	offRoute.DestinationLat = 30
	offRoute.DestinationLng = 30

	rides := newFakeRideStore(onRoute, offRoute)
	rides.bookable = []models.Ride{*onRoute, *offRoute}
	service := newRideServiceForTest(rides)

	matches, err := service.SearchRides(&models.SearchRidesRequest{
		PickupLat: 0.01, PickupLng: 2,
		DropLat: -0.01, DropLng: 7,
		Seats: 1,
	})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "ride-1", matches[0].ID)
}

func TestSearchRides_RejectsReverseDirection(t *testing.T) {
	ride := testRide()
	ride.DestinationLng = 10
	rides := newFakeRideStore(ride)
	rides.bookable = []models.Ride{*ride}
	service := newRideServiceForTest(rides)

	// Pickup after drop along the route: the passenger travels against
	// the ride's direction.
	matches, err := service.SearchRides(&models.SearchRidesRequest{
		PickupLat: 0, PickupLng: 7,
		DropLat: 0, DropLng: 2,
		Seats: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestGetDriverRides(t *testing.T) {
	mine := testRide()
	other := testRide()
	other.ID = "ride-2"
	other.DriverID = "driver-2"
	service := newRideServiceForTest(newFakeRideStore(mine, other))

	rides, err := service.GetDriverRides("driver-1")
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, "ride-1", rides[0].ID)
}
