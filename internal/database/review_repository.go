package database

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/ridehub/ridehub-backend/internal/models"
)

// ReviewRepository handles database operations for the reviews table
type ReviewRepository struct {
	db DB
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. The booking_id unique constraint rejects a
// second review for the same booking.
func (r *ReviewRepository) Create(review *models.Review) error {
	query := `
		INSERT INTO reviews (
			id, booking_id, ride_id, driver_id, passenger_id,
			rating, comment, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if review.ID == "" {
		review.ID = uuid.New().String()
	}

	_, err := r.db.Exec(
		query,
		review.ID, review.BookingID, review.RideID, review.DriverID,
		review.PassengerID, review.Rating, review.Comment, review.CreatedAt,
	)
	return err
}

// ExistsForBooking reports whether a booking has already been reviewed
func (r *ReviewRepository) ExistsForBooking(bookingID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE booking_id = $1)`

	var exists bool
	if err := r.db.QueryRow(query, bookingID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// GetByBookingID retrieves the review for a booking
func (r *ReviewRepository) GetByBookingID(bookingID string) (*models.Review, error) {
	query := selectReviewColumns + ` WHERE booking_id = $1`
	return r.scanReview(r.db.QueryRow(query, bookingID))
}

// GetByDriverID retrieves all reviews of a driver, newest first
func (r *ReviewRepository) GetByDriverID(driverID string) ([]models.Review, error) {
	query := selectReviewColumns + ` WHERE driver_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReviews(rows)
}

// GetByRideID retrieves all reviews for a ride, newest first
func (r *ReviewRepository) GetByRideID(rideID string) ([]models.Review, error) {
	query := selectReviewColumns + ` WHERE ride_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(query, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReviews(rows)
}

// RatingSummary returns the driver's average rating and review count
func (r *ReviewRepository) RatingSummary(driverID string) (float64, int, error) {
	query := `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE driver_id = $1`

	var average float64
	var total int
	if err := r.db.QueryRow(query, driverID).Scan(&average, &total); err != nil {
		return 0, 0, err
	}
	return average, total, nil
}

// RatingDistribution returns review counts per star value for a driver.
// Star values with no reviews are absent from the result.
func (r *ReviewRepository) RatingDistribution(driverID string) (map[int]int, error) {
	query := `SELECT rating, COUNT(*) FROM reviews WHERE driver_id = $1 GROUP BY rating`

	rows, err := r.db.Query(query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dist := map[int]int{}
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, err
		}
		dist[rating] = count
	}
	return dist, rows.Err()
}

const selectReviewColumns = `
	SELECT id, booking_id, ride_id, driver_id, passenger_id,
		   rating, comment, created_at
	FROM reviews`

func (r *ReviewRepository) scanReview(row scanner) (*models.Review, error) {
	review := &models.Review{}
	var comment sql.NullString

	err := row.Scan(
		&review.ID, &review.BookingID, &review.RideID, &review.DriverID,
		&review.PassengerID, &review.Rating, &comment, &review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if comment.Valid {
		review.Comment = &comment.String
	}

	return review, nil
}

func (r *ReviewRepository) scanReviews(rows *sql.Rows) ([]models.Review, error) {
	var reviews []models.Review
	for rows.Next() {
		review, err := r.scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}
