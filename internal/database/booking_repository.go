package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridehub/ridehub-backend/internal/models"
)

// BookingRepository handles database operations for the bookings table
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create creates a new booking
func (r *BookingRepository) Create(booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, ride_id, passenger_id, seats_booked,
			pickup_location, drop_location,
			pickup_lat, pickup_lng, drop_lat, drop_lng,
			segment_distance_km, total_trip_cost, maximum_price,
			status, payment_due_at,
			driver_started_ride, passenger_started_ride,
			initial_notice_sent, payment_request_sent
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19
		)
		RETURNING booked_at
	`

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		booking.ID, booking.RideID, booking.PassengerID, booking.SeatsBooked,
		booking.PickupLocation, booking.DropLocation,
		booking.PickupLat, booking.PickupLng, booking.DropLat, booking.DropLng,
		booking.SegmentDistanceKm, booking.TotalTripCost, booking.MaximumPrice,
		booking.Status, booking.PaymentDueAt,
		booking.DriverStartedRide, booking.PassengerStarted,
		booking.InitialNoticeSent, booking.PaymentRequestSent,
	).Scan(&booking.BookedAt)

	return err
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	query := selectBookingColumns + ` WHERE id = $1`
	return r.scanBooking(r.db.QueryRow(query, bookingID))
}

// GetByPassengerID retrieves all bookings made by a passenger
func (r *BookingRepository) GetByPassengerID(passengerID string) ([]models.Booking, error) {
	query := selectBookingColumns + ` WHERE passenger_id = $1 ORDER BY booked_at DESC`

	rows, err := r.db.Query(query, passengerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetByRideID retrieves all bookings on a ride
func (r *BookingRepository) GetByRideID(rideID string) ([]models.Booking, error) {
	query := selectBookingColumns + ` WHERE ride_id = $1 ORDER BY booked_at`

	rows, err := r.db.Query(query, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetActiveByRideID retrieves bookings that still occupy seats on a ride
func (r *BookingRepository) GetActiveByRideID(rideID string) ([]models.Booking, error) {
	query := selectBookingColumns + `
		WHERE ride_id = $1
		  AND status IN ('TENTATIVE', 'PAYMENT_PENDING', 'CONFIRMED')
		ORDER BY booked_at
	`

	rows, err := r.db.Query(query, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetByRideIDAndStatus retrieves bookings on a ride in a given status
func (r *BookingRepository) GetByRideIDAndStatus(rideID string, status models.BookingStatus) ([]models.Booking, error) {
	query := selectBookingColumns + ` WHERE ride_id = $1 AND status = $2 ORDER BY booked_at`

	rows, err := r.db.Query(query, rideID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// FindNeedingPaymentRequest retrieves tentative bookings whose payment due
// time has passed and that were never asked to pay.
func (r *BookingRepository) FindNeedingPaymentRequest(now time.Time) ([]models.Booking, error) {
	query := selectBookingColumns + `
		WHERE payment_due_at <= $1
		  AND status = 'TENTATIVE'
		  AND payment_request_sent = false
		ORDER BY payment_due_at
	`

	rows, err := r.db.Query(query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// FindEndedWithLockedFunds retrieves bookings whose trip has ended but for
// which no unlock or release ledger entry exists yet.
func (r *BookingRepository) FindEndedWithLockedFunds() ([]models.Booking, error) {
	query := selectBookingColumns + ` b
		WHERE b.status IN ('COMPLETED', 'DEBOARDED')
		  AND b.ride_ended_at IS NOT NULL
		  AND NOT EXISTS (
			SELECT 1 FROM wallet_transactions wt
			WHERE wt.booking_id = b.id
			  AND wt.type IN ('UNLOCK_TO_AVAILABLE', 'RELEASE')
		  )
		ORDER BY b.ride_ended_at
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// SetFinalPrice records the computed final price and moves the booking to
// PAYMENT_PENDING. Guarded on TENTATIVE so a concurrent sweep cannot
// double-apply.
func (r *BookingRepository) SetFinalPrice(bookingID string, finalPrice float64) error {
	query := `
		UPDATE bookings
		SET final_price = $2,
			status = 'PAYMENT_PENDING',
			payment_request_sent = true,
			updated_at = NOW()
		WHERE id = $1
		  AND status = 'TENTATIVE'
	`

	result, err := r.db.Exec(query, bookingID, finalPrice)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("booking not found or not tentative")
	}

	return nil
}

// TransitionStatus moves a booking from one status to another, stamping the
// matching timestamp column. The guard on the current status makes competing
// transitions first-writer-wins.
func (r *BookingRepository) TransitionStatus(bookingID string, from, to models.BookingStatus, at time.Time) error {
	query := `
		UPDATE bookings
		SET status = $3,
			paid_at = CASE WHEN $3 = 'CONFIRMED' THEN $4 ELSE paid_at END,
			onboarded_at = CASE WHEN $3 = 'ONBOARDED' THEN $4 ELSE onboarded_at END,
			deboarded_at = CASE WHEN $3 = 'DEBOARDED' THEN $4 ELSE deboarded_at END,
			ride_ended_at = CASE WHEN $3 IN ('DEBOARDED', 'COMPLETED') THEN $4 ELSE ride_ended_at END,
			updated_at = NOW()
		WHERE id = $1
		  AND status = $2
	`

	result, err := r.db.Exec(query, bookingID, from, to, at)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("booking %s is not in status %s", bookingID, from)
	}

	return nil
}

// Cancel cancels a booking with a reason. Guarded against cancelling a
// booking that already reached a terminal state.
func (r *BookingRepository) Cancel(bookingID string, reason string, at time.Time) error {
	query := `
		UPDATE bookings
		SET status = 'CANCELLED',
			cancellation_reason = $2,
			cancelled_at = $3,
			updated_at = NOW()
		WHERE id = $1
		  AND status NOT IN ('CANCELLED', 'COMPLETED')
	`

	result, err := r.db.Exec(query, bookingID, reason, at)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("booking not found or already closed")
	}

	return nil
}

// CancelRestoringSeats cancels a booking and returns its seats to the ride
// in a single transaction. A failure on either statement rolls both back,
// so the booking stays cancellable for a retry instead of leaking seats.
func (r *BookingRepository) CancelRestoringSeats(bookingID, rideID string, seats int, reason string, at time.Time) error {
	cancel := `
		UPDATE bookings
		SET status = 'CANCELLED',
			cancellation_reason = $2,
			cancelled_at = $3,
			updated_at = NOW()
		WHERE id = $1
		  AND status NOT IN ('CANCELLED', 'COMPLETED')
	`
	restore := `
		UPDATE rides
		SET available_seats = available_seats + $2,
			status = CASE WHEN status = 'FULL' THEN 'AVAILABLE' ELSE status END,
			updated_at = NOW()
		WHERE id = $1
		  AND status IN ('AVAILABLE', 'FULL')
	`

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(cancel, bookingID, reason, at)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("booking not found or already closed")
	}

	// A ride that already closed keeps no seat accounting, so zero rows
	// here is not an error.
	if _, err := tx.Exec(restore, rideID, seats); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkPassengerStarted records a passenger self-service trip start
func (r *BookingRepository) MarkPassengerStarted(bookingID string, at time.Time) error {
	query := `
		UPDATE bookings
		SET passenger_started_ride = true,
			ride_started_at = $2,
			updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(query, bookingID, at)
	return err
}

// MarkDriverStarted records that the driver verified this passenger aboard
func (r *BookingRepository) MarkDriverStarted(bookingID string, at time.Time) error {
	query := `
		UPDATE bookings
		SET driver_started_ride = true,
			ride_started_at = COALESCE(ride_started_at, $2),
			updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(query, bookingID, at)
	return err
}

const selectBookingColumns = `
	SELECT id, ride_id, passenger_id, seats_booked,
		   pickup_location, drop_location,
		   pickup_lat, pickup_lng, drop_lat, drop_lng,
		   segment_distance_km, total_trip_cost, maximum_price, final_price,
		   status, booked_at, updated_at, payment_due_at, paid_at,
		   onboarded_at, deboarded_at, ride_started_at, ride_ended_at,
		   cancelled_at, cancellation_reason,
		   driver_started_ride, passenger_started_ride,
		   initial_notice_sent, payment_request_sent
	FROM bookings`

// scanBooking scans a single booking
func (r *BookingRepository) scanBooking(row scanner) (*models.Booking, error) {
	booking := &models.Booking{}
	var finalPrice sql.NullFloat64
	var updatedAt sql.NullTime
	var paidAt sql.NullTime
	var onboardedAt sql.NullTime
	var deboardedAt sql.NullTime
	var rideStartedAt sql.NullTime
	var rideEndedAt sql.NullTime
	var cancelledAt sql.NullTime
	var cancellationReason sql.NullString

	err := row.Scan(
		&booking.ID, &booking.RideID, &booking.PassengerID, &booking.SeatsBooked,
		&booking.PickupLocation, &booking.DropLocation,
		&booking.PickupLat, &booking.PickupLng, &booking.DropLat, &booking.DropLng,
		&booking.SegmentDistanceKm, &booking.TotalTripCost, &booking.MaximumPrice, &finalPrice,
		&booking.Status, &booking.BookedAt, &updatedAt, &booking.PaymentDueAt, &paidAt,
		&onboardedAt, &deboardedAt, &rideStartedAt, &rideEndedAt,
		&cancelledAt, &cancellationReason,
		&booking.DriverStartedRide, &booking.PassengerStarted,
		&booking.InitialNoticeSent, &booking.PaymentRequestSent,
	)

	if err != nil {
		return nil, err
	}

	if finalPrice.Valid {
		booking.FinalPrice = &finalPrice.Float64
	}
	if updatedAt.Valid {
		booking.UpdatedAt = &updatedAt.Time
	}
	if paidAt.Valid {
		booking.PaidAt = &paidAt.Time
	}
	if onboardedAt.Valid {
		booking.OnboardedAt = &onboardedAt.Time
	}
	if deboardedAt.Valid {
		booking.DeboardedAt = &deboardedAt.Time
	}
	if rideStartedAt.Valid {
		booking.RideStartedAt = &rideStartedAt.Time
	}
	if rideEndedAt.Valid {
		booking.RideEndedAt = &rideEndedAt.Time
	}
	if cancelledAt.Valid {
		booking.CancelledAt = &cancelledAt.Time
	}
	if cancellationReason.Valid {
		booking.CancellationReason = &cancellationReason.String
	}

	return booking, nil
}

// scanBookings scans multiple bookings from rows
func (r *BookingRepository) scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	bookings := []models.Booking{}

	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}

	return bookings, rows.Err()
}
