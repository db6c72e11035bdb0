package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridehub/ridehub-backend/internal/models"
)

var reviewColumns = []string{
	"id", "booking_id", "ride_id", "driver_id", "passenger_id",
	"rating", "comment", "created_at",
}

func newReviewRepoForTest(t *testing.T) (*ReviewRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewReviewRepository(&mockDatabase{db: db}), mock
}

func TestReviewCreate(t *testing.T) {
	repo, mock := newReviewRepoForTest(t)

	mock.ExpectExec("INSERT INTO reviews").
		WillReturnResult(sqlmock.NewResult(0, 1))

	review := &models.Review{
		BookingID:   "booking-1",
		RideID:      "ride-1",
		DriverID:    "driver-1",
		PassengerID: "passenger-1",
		Rating:      5,
		CreatedAt:   time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(review))

	assert.NotEmpty(t, review.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewExistsForBooking(t *testing.T) {
	repo, mock := newReviewRepoForTest(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("booking-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForBooking("booking-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReviewGetByDriverID(t *testing.T) {
	repo, mock := newReviewRepoForTest(t)
	createdAt := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs("driver-1").
		WillReturnRows(sqlmock.NewRows(reviewColumns).
			AddRow("review-2", "booking-2", "ride-2", "driver-1", "passenger-2",
				4, nil, createdAt).
			AddRow("review-1", "booking-1", "ride-1", "driver-1", "passenger-1",
				5, "Smooth ride", createdAt.Add(-time.Hour)))

	reviews, err := repo.GetByDriverID("driver-1")
	require.NoError(t, err)

	require.Len(t, reviews, 2)
	assert.Equal(t, "review-2", reviews[0].ID)
	assert.Nil(t, reviews[0].Comment)
	require.NotNil(t, reviews[1].Comment)
	assert.Equal(t, "Smooth ride", *reviews[1].Comment)
}

func TestRatingSummary(t *testing.T) {
	repo, mock := newReviewRepoForTest(t)

	mock.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs("driver-1").
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(4.333333, 3))

	average, total, err := repo.RatingSummary("driver-1")
	require.NoError(t, err)
	assert.InDelta(t, 4.33, average, 0.01)
	assert.Equal(t, 3, total)
}

func TestRatingDistribution(t *testing.T) {
	repo, mock := newReviewRepoForTest(t)

	mock.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs("driver-1").
		WillReturnRows(sqlmock.NewRows([]string{"rating", "count"}).
			AddRow(5, 1).
			AddRow(4, 2))

	dist, err := repo.RatingDistribution("driver-1")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{4: 2, 5: 1}, dist)
}
