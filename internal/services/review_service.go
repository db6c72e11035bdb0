package services

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/pkg/clock"
	"github.com/sirupsen/logrus"
)

// ReviewService lets passengers rate finished rides and aggregates the
// ratings per driver.
type ReviewService struct {
	reviews  ReviewStore
	bookings BookingStore
	rides    RideStore
	clock    clock.Clock
	logger   *logrus.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	reviews ReviewStore,
	bookings BookingStore,
	rides RideStore,
	clk clock.Clock,
	logger *logrus.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		bookings: bookings,
		rides:    rides,
		clock:    clk,
		logger:   logger,
	}
}

// SubmitReview records a passenger's rating of their booking. Only the
// booking's own passenger may review it, only once the ride is over, and
// only once.
func (s *ReviewService) SubmitReview(passengerID string, req *models.SubmitReviewRequest) (*models.Review, error) {
	booking, err := s.bookings.GetByID(req.BookingID)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	if booking.PassengerID != passengerID {
		return nil, ErrUnauthorized
	}

	switch booking.Status {
	case models.BookingStatusDeboarded, models.BookingStatusCompleted:
	default:
		return nil, ErrInvalidStateTransition
	}

	exists, err := s.reviews.ExistsForBooking(booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	ride, err := s.rides.GetByID(booking.RideID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}

	review := &models.Review{
		BookingID:   booking.ID,
		RideID:      ride.ID,
		DriverID:    ride.DriverID,
		PassengerID: passengerID,
		Rating:      req.Rating,
		Comment:     req.Comment,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.reviews.Create(review); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"review_id":  review.ID,
		"booking_id": booking.ID,
		"driver_id":  ride.DriverID,
		"rating":     review.Rating,
	}).Info("Review submitted")

	return review, nil
}

// GetBookingReview returns the review for a booking, if one exists
func (s *ReviewService) GetBookingReview(bookingID string) (*models.Review, error) {
	review, err := s.reviews.GetByBookingID(bookingID)
	if err == sql.ErrNoRows {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	return review, nil
}

// HasBookingReview reports whether a booking has been reviewed
func (s *ReviewService) HasBookingReview(bookingID string) (bool, error) {
	return s.reviews.ExistsForBooking(bookingID)
}

// GetDriverReviews returns all reviews of a driver, newest first
func (s *ReviewService) GetDriverReviews(driverID string) ([]models.Review, error) {
	return s.reviews.GetByDriverID(driverID)
}

// GetRideReviews returns all reviews for a ride, newest first
func (s *ReviewService) GetRideReviews(rideID string) ([]models.Review, error) {
	return s.reviews.GetByRideID(rideID)
}

// GetDriverRating aggregates a driver's reviews. The average is rounded to
// one decimal place and the distribution covers every star value from 1 to
// 5 even when unused.
func (s *ReviewService) GetDriverRating(driverID string) (*models.DriverRating, error) {
	average, total, err := s.reviews.RatingSummary(driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	dist, err := s.reviews.RatingDistribution(driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating distribution: %w", err)
	}
	for star := 1; star <= 5; star++ {
		if _, ok := dist[star]; !ok {
			dist[star] = 0
		}
	}

	return &models.DriverRating{
		DriverID:      driverID,
		AverageRating: math.Round(average*10) / 10,
		TotalReviews:  total,
		Distribution:  dist,
	}, nil
}
