package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridehub/ridehub-backend/internal/models"
)

// ErrNoSeats is returned when a guarded seat decrement matches no row
var ErrNoSeats = fmt.Errorf("not enough available seats")

// RideRepository handles database operations for the rides table
type RideRepository struct {
	db DB
}

// NewRideRepository creates a new RideRepository
func NewRideRepository(db DB) *RideRepository {
	return &RideRepository{db: db}
}

// Create creates a new ride
func (r *RideRepository) Create(ride *models.Ride) error {
	query := `
		INSERT INTO rides (
			id, driver_id, source, destination,
			source_lat, source_lng, destination_lat, destination_lng,
			ride_date_time, total_seats, available_seats,
			fare_per_km, distance_km, status, trip_status, one_hour_warning_sent
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
		RETURNING created_at
	`

	if ride.ID == "" {
		ride.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		ride.ID, ride.DriverID, ride.Source, ride.Destination,
		ride.SourceLat, ride.SourceLng, ride.DestinationLat, ride.DestinationLng,
		ride.RideDateTime, ride.TotalSeats, ride.AvailableSeats,
		ride.FarePerKm, ride.DistanceKm, ride.Status, ride.TripStatus, ride.OneHourWarningSent,
	).Scan(&ride.CreatedAt)

	return err
}

// GetByID retrieves a ride by ID
func (r *RideRepository) GetByID(rideID string) (*models.Ride, error) {
	query := selectRideColumns + ` WHERE id = $1`
	return r.scanRide(r.db.QueryRow(query, rideID))
}

// GetByDriverID retrieves all rides published by a driver
func (r *RideRepository) GetByDriverID(driverID string) ([]models.Ride, error) {
	query := selectRideColumns + ` WHERE driver_id = $1 ORDER BY ride_date_time DESC`

	rows, err := r.db.Query(query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRides(rows)
}

// FindBookable retrieves upcoming rides that still hold at least the
// requested number of seats. Route matching happens in the service layer.
func (r *RideRepository) FindBookable(after time.Time, seats int) ([]models.Ride, error) {
	query := selectRideColumns + `
		WHERE status = 'AVAILABLE'
		  AND trip_status = 'SCHEDULED'
		  AND ride_date_time > $1
		  AND available_seats >= $2
		ORDER BY ride_date_time
	`

	rows, err := r.db.Query(query, after, seats)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRides(rows)
}

// FindPastUncompleted retrieves rides whose departure plus grace period has
// passed but which were never marked completed or cancelled.
func (r *RideRepository) FindPastUncompleted(cutoff time.Time) ([]models.Ride, error) {
	query := selectRideColumns + `
		WHERE ride_date_time < $1
		  AND status NOT IN ('COMPLETED', 'CANCELLED')
		ORDER BY ride_date_time
	`

	rows, err := r.db.Query(query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRides(rows)
}

// FindStartingBetween retrieves unwarned rides departing inside the window
func (r *RideRepository) FindStartingBetween(from, to time.Time) ([]models.Ride, error) {
	query := selectRideColumns + `
		WHERE ride_date_time >= $1
		  AND ride_date_time < $2
		  AND one_hour_warning_sent = false
		  AND status NOT IN ('COMPLETED', 'CANCELLED')
		ORDER BY ride_date_time
	`

	rows, err := r.db.Query(query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRides(rows)
}

// ReserveSeats atomically decrements available seats, flipping the ride to
// FULL when the last seat goes. Returns ErrNoSeats when the guard fails.
func (r *RideRepository) ReserveSeats(rideID string, seats int) error {
	query := `
		UPDATE rides
		SET available_seats = available_seats - $2,
			status = CASE WHEN available_seats - $2 = 0 THEN 'FULL' ELSE status END,
			updated_at = NOW()
		WHERE id = $1
		  AND status = 'AVAILABLE'
		  AND available_seats >= $2
	`

	result, err := r.db.Exec(query, rideID, seats)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNoSeats
	}

	return nil
}

// RestoreSeats atomically returns seats to a ride after a cancellation,
// flipping FULL back to AVAILABLE.
func (r *RideRepository) RestoreSeats(rideID string, seats int) error {
	query := `
		UPDATE rides
		SET available_seats = available_seats + $2,
			status = CASE WHEN status = 'FULL' THEN 'AVAILABLE' ELSE status END,
			updated_at = NOW()
		WHERE id = $1
		  AND status IN ('AVAILABLE', 'FULL')
	`

	result, err := r.db.Exec(query, rideID, seats)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("ride not found or not open")
	}

	return nil
}

// UpdateTripStatus updates the journey status of a ride
func (r *RideRepository) UpdateTripStatus(rideID string, status models.TripStatus, startedAt, completedAt *time.Time) error {
	query := `
		UPDATE rides
		SET trip_status = $2,
			trip_started_at = COALESCE($3, trip_started_at),
			trip_completed_at = COALESCE($4, trip_completed_at),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, rideID, status, startedAt, completedAt)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("ride not found")
	}

	return nil
}

// UpdateStatus updates the availability status of a ride
func (r *RideRepository) UpdateStatus(rideID string, status models.RideStatus) error {
	query := `
		UPDATE rides
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, rideID, status)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("ride not found")
	}

	return nil
}

// MarkOneHourWarningSent flags a ride so the warning never re-fires
func (r *RideRepository) MarkOneHourWarningSent(rideID string) error {
	query := `
		UPDATE rides
		SET one_hour_warning_sent = true, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(query, rideID)
	return err
}

const selectRideColumns = `
	SELECT id, driver_id, source, destination,
		   source_lat, source_lng, destination_lat, destination_lng,
		   ride_date_time, total_seats, available_seats,
		   fare_per_km, distance_km, status, trip_status,
		   trip_started_at, trip_completed_at, one_hour_warning_sent,
		   created_at, updated_at
	FROM rides`

// scanRide scans a single ride
func (r *RideRepository) scanRide(row scanner) (*models.Ride, error) {
	ride := &models.Ride{}
	var tripStartedAt sql.NullTime
	var tripCompletedAt sql.NullTime
	var updatedAt sql.NullTime

	err := row.Scan(
		&ride.ID, &ride.DriverID, &ride.Source, &ride.Destination,
		&ride.SourceLat, &ride.SourceLng, &ride.DestinationLat, &ride.DestinationLng,
		&ride.RideDateTime, &ride.TotalSeats, &ride.AvailableSeats,
		&ride.FarePerKm, &ride.DistanceKm, &ride.Status, &ride.TripStatus,
		&tripStartedAt, &tripCompletedAt, &ride.OneHourWarningSent,
		&ride.CreatedAt, &updatedAt,
	)

	if err != nil {
		return nil, err
	}

	if tripStartedAt.Valid {
		ride.TripStartedAt = &tripStartedAt.Time
	}
	if tripCompletedAt.Valid {
		ride.TripCompletedAt = &tripCompletedAt.Time
	}
	if updatedAt.Valid {
		ride.UpdatedAt = &updatedAt.Time
	}

	return ride, nil
}

// scanRides scans multiple rides from rows
func (r *RideRepository) scanRides(rows *sql.Rows) ([]models.Ride, error) {
	rides := []models.Ride{}

	for rows.Next() {
		ride, err := r.scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, *ride)
	}

	return rides, rows.Err()
}
