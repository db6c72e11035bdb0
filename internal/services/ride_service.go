package services

import (
	"database/sql"
	"fmt"

	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/pkg/clock"
	"github.com/sirupsen/logrus"
)

// RideService manages ride publication and route-matched search
type RideService struct {
	rides  RideStore
	geo    *GeoService
	clock  clock.Clock
	logger *logrus.Logger
}

// NewRideService creates a new RideService
func NewRideService(rides RideStore, geo *GeoService, clk clock.Clock, logger *logrus.Logger) *RideService {
	return &RideService{
		rides:  rides,
		geo:    geo,
		clock:  clk,
		logger: logger,
	}
}

// CreateRide publishes a ride offer. The route distance is computed from
// the endpoints; all seats start available.
func (s *RideService) CreateRide(driverID string, req *models.CreateRideRequest) (*models.Ride, error) {
	distance := s.geo.DistanceKm(req.SourceLat, req.SourceLng, req.DestinationLat, req.DestinationLng)

	ride := &models.Ride{
		DriverID:       driverID,
		Source:         req.Source,
		Destination:    req.Destination,
		SourceLat:      req.SourceLat,
		SourceLng:      req.SourceLng,
		DestinationLat: req.DestinationLat,
		DestinationLng: req.DestinationLng,
		RideDateTime:   req.RideDateTime,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
		FarePerKm:      req.FarePerKm,
		DistanceKm:     distance,
		Status:         models.RideStatusAvailable,
		TripStatus:     models.TripStatusScheduled,
	}

	if err := s.rides.Create(ride); err != nil {
		return nil, fmt.Errorf("failed to create ride: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"ride_id":   ride.ID,
		"driver_id": driverID,
		"distance":  distance,
	}).Info("Ride published")

	return ride, nil
}

// GetRide retrieves a ride by ID
func (s *RideService) GetRide(rideID string) (*models.Ride, error) {
	ride, err := s.rides.GetByID(rideID)
	if err == sql.ErrNoRows {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}
	return ride, nil
}

// GetDriverRides retrieves all rides published by a driver
func (s *RideService) GetDriverRides(driverID string) ([]models.Ride, error) {
	return s.rides.GetByDriverID(driverID)
}

// SearchRides finds bookable rides whose route covers the passenger's
// pickup and drop points in travel order, within the route tolerance.
func (s *RideService) SearchRides(req *models.SearchRidesRequest) ([]models.Ride, error) {
	seats := req.Seats
	if seats <= 0 {
		seats = 1
	}

	candidates, err := s.rides.FindBookable(s.clock.Now(), seats)
	if err != nil {
		return nil, fmt.Errorf("failed to search rides: %w", err)
	}

	matches := []models.Ride{}
	for _, ride := range candidates {
		if s.geo.RouteMatches(
			req.PickupLat, req.PickupLng,
			req.DropLat, req.DropLng,
			ride.SourceLat, ride.SourceLng,
			ride.DestinationLat, ride.DestinationLng,
		) {
			matches = append(matches, ride)
		}
	}

	return matches, nil
}
