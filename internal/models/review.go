package models

import (
	"errors"
	"time"
)

// Review is a passenger's rating of a completed ride. Each booking can be
// reviewed at most once.
type Review struct {
	ID          string    `json:"id" db:"id"`
	BookingID   string    `json:"booking_id" db:"booking_id"`
	RideID      string    `json:"ride_id" db:"ride_id"`
	DriverID    string    `json:"driver_id" db:"driver_id"`
	PassengerID string    `json:"passenger_id" db:"passenger_id"`
	Rating      int       `json:"rating" db:"rating"`
	Comment     *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DriverRating aggregates a driver's reviews. Distribution carries a bucket
// for every star value from 1 to 5, zero-filled when unused.
type DriverRating struct {
	DriverID      string      `json:"driver_id"`
	AverageRating float64     `json:"average_rating"`
	TotalReviews  int         `json:"total_reviews"`
	Distribution  map[int]int `json:"rating_distribution"`
}

// SubmitReviewRequest represents a passenger submitting a review
type SubmitReviewRequest struct {
	BookingID string  `json:"booking_id" binding:"required"`
	Rating    int     `json:"rating" binding:"required,min=1,max=5"`
	Comment   *string `json:"comment,omitempty"`
}

// Validate validates the review request
func (r *SubmitReviewRequest) Validate() error {
	if r.BookingID == "" {
		return errors.New("booking_id is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	if r.Comment != nil && len(*r.Comment) > 1000 {
		return errors.New("comment must be at most 1000 characters")
	}
	return nil
}
