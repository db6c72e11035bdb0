package models

import (
	"errors"
	"time"
)

// RideStatus represents the seat availability status of a ride
type RideStatus string

const (
	RideStatusAvailable RideStatus = "AVAILABLE"
	RideStatusFull      RideStatus = "FULL"
	RideStatusCompleted RideStatus = "COMPLETED"
	RideStatusCancelled RideStatus = "CANCELLED"
)

// TripStatus represents the physical journey status of a ride
type TripStatus string

const (
	TripStatusScheduled  TripStatus = "SCHEDULED"
	TripStatusPickingUp  TripStatus = "PICKING_UP"
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
)

// Ride represents a driver's published trip offer
type Ride struct {
	ID                 string     `json:"id" db:"id"`
	DriverID           string     `json:"driver_id" db:"driver_id"`
	Source             string     `json:"source" db:"source"`
	Destination        string     `json:"destination" db:"destination"`
	SourceLat          float64    `json:"source_lat" db:"source_lat"`
	SourceLng          float64    `json:"source_lng" db:"source_lng"`
	DestinationLat     float64    `json:"destination_lat" db:"destination_lat"`
	DestinationLng     float64    `json:"destination_lng" db:"destination_lng"`
	RideDateTime       time.Time  `json:"ride_date_time" db:"ride_date_time"`
	TotalSeats         int        `json:"total_seats" db:"total_seats"`
	AvailableSeats     int        `json:"available_seats" db:"available_seats"`
	FarePerKm          float64    `json:"fare_per_km" db:"fare_per_km"`
	DistanceKm         float64    `json:"distance_km" db:"distance_km"`
	Status             RideStatus `json:"status" db:"status"`
	TripStatus         TripStatus `json:"trip_status" db:"trip_status"`
	TripStartedAt      *time.Time `json:"trip_started_at,omitempty" db:"trip_started_at"`
	TripCompletedAt    *time.Time `json:"trip_completed_at,omitempty" db:"trip_completed_at"`
	OneHourWarningSent bool       `json:"one_hour_warning_sent" db:"one_hour_warning_sent"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// TotalTripCost returns the full cost of the ride over its whole route
func (r *Ride) TotalTripCost() float64 {
	return r.DistanceKm * r.FarePerKm
}

// IsTerminal reports whether the ride can no longer accept bookings
func (r *Ride) IsTerminal() bool {
	return r.Status == RideStatusCompleted || r.Status == RideStatusCancelled
}

// CreateRideRequest represents the request to publish a ride
type CreateRideRequest struct {
	Source         string    `json:"source" binding:"required"`
	Destination    string    `json:"destination" binding:"required"`
	SourceLat      float64   `json:"source_lat" binding:"required"`
	SourceLng      float64   `json:"source_lng" binding:"required"`
	DestinationLat float64   `json:"destination_lat" binding:"required"`
	DestinationLng float64   `json:"destination_lng" binding:"required"`
	RideDateTime   time.Time `json:"ride_date_time" binding:"required"`
	TotalSeats     int       `json:"total_seats" binding:"required,min=1"`
	FarePerKm      float64   `json:"fare_per_km" binding:"required,gt=0"`
}

// Validate validates the create ride request
func (r *CreateRideRequest) Validate() error {
	if r.TotalSeats <= 0 {
		return errors.New("total_seats must be at least 1")
	}
	if r.FarePerKm <= 0 {
		return errors.New("fare_per_km must be positive")
	}
	if r.RideDateTime.Before(time.Now()) {
		return errors.New("ride_date_time must be in the future")
	}
	return nil
}

// SearchRidesRequest represents a route-matched ride search
type SearchRidesRequest struct {
	PickupLat float64 `form:"pickup_lat" binding:"required"`
	PickupLng float64 `form:"pickup_lng" binding:"required"`
	DropLat   float64 `form:"drop_lat" binding:"required"`
	DropLng   float64 `form:"drop_lng" binding:"required"`
	Seats     int     `form:"seats"`
	Date      string  `form:"date"`
}
