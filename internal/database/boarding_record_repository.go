package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridehub/ridehub-backend/internal/models"
)

// BoardingRecordRepository handles database operations for boarding OTPs
type BoardingRecordRepository struct {
	db DB
}

// NewBoardingRecordRepository creates a new BoardingRecordRepository
func NewBoardingRecordRepository(db DB) *BoardingRecordRepository {
	return &BoardingRecordRepository{db: db}
}

// Create creates a new boarding record
func (r *BoardingRecordRepository) Create(record *models.BoardingRecord) error {
	query := `
		INSERT INTO boarding_records (
			id, booking_id, ride_id, passenger_id,
			otp_code, type, generated_at, expires_at, validated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
	`

	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	_, err := r.db.Exec(
		query,
		record.ID, record.BookingID, record.RideID, record.PassengerID,
		record.OTPCode, record.Type, record.GeneratedAt, record.ExpiresAt,
	)
	return err
}

// FindUnvalidatedByCode retrieves an unused OTP record matching a submitted
// code and boarding type. Validated records never match, so a code spends
// exactly once.
func (r *BoardingRecordRepository) FindUnvalidatedByCode(code string, boardingType models.BoardingType) (*models.BoardingRecord, error) {
	query := selectBoardingColumns + `
		WHERE otp_code = $1
		  AND type = $2
		  AND validated = false
		ORDER BY generated_at DESC
		LIMIT 1
	`

	return r.scanRecord(r.db.QueryRow(query, code, boardingType))
}

// HasValidated reports whether the booking already passed the given
// boarding verification.
func (r *BoardingRecordRepository) HasValidated(bookingID string, boardingType models.BoardingType) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM boarding_records
			WHERE booking_id = $1 AND type = $2 AND validated = true
		)
	`

	var exists bool
	if err := r.db.QueryRow(query, bookingID, boardingType).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CountValidatedByRide counts bookings on a ride that passed the given
// boarding verification.
func (r *BoardingRecordRepository) CountValidatedByRide(rideID string, boardingType models.BoardingType) (int, error) {
	query := `
		SELECT COUNT(DISTINCT booking_id)
		FROM boarding_records
		WHERE ride_id = $1 AND type = $2 AND validated = true
	`

	var count int
	if err := r.db.QueryRow(query, rideID, boardingType).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkValidated consumes an OTP record. Guarded so a record validates once.
func (r *BoardingRecordRepository) MarkValidated(recordID string, at time.Time) error {
	query := `
		UPDATE boarding_records
		SET validated = true, validated_at = $2
		WHERE id = $1
		  AND validated = false
	`

	result, err := r.db.Exec(query, recordID, at)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("boarding record not found or already validated")
	}

	return nil
}

const selectBoardingColumns = `
	SELECT id, booking_id, ride_id, passenger_id,
		   otp_code, type, generated_at, expires_at, validated, validated_at
	FROM boarding_records`

func (r *BoardingRecordRepository) scanRecord(row scanner) (*models.BoardingRecord, error) {
	record := &models.BoardingRecord{}
	var validatedAt sql.NullTime

	err := row.Scan(
		&record.ID, &record.BookingID, &record.RideID, &record.PassengerID,
		&record.OTPCode, &record.Type, &record.GeneratedAt, &record.ExpiresAt,
		&record.Validated, &validatedAt,
	)
	if err != nil {
		return nil, err
	}

	if validatedAt.Valid {
		record.ValidatedAt = &validatedAt.Time
	}

	return record, nil
}
