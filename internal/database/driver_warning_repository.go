package database

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/ridehub/ridehub-backend/internal/models"
)

// DriverWarningRepository handles database operations for driver warnings
type DriverWarningRepository struct {
	db DB
}

// NewDriverWarningRepository creates a new DriverWarningRepository
func NewDriverWarningRepository(db DB) *DriverWarningRepository {
	return &DriverWarningRepository{db: db}
}

// Create records a warning against a driver
func (r *DriverWarningRepository) Create(warning *models.DriverWarning) error {
	query := `
		INSERT INTO driver_warnings (id, driver_id, ride_id, type, reason, resolved)
		VALUES ($1, $2, $3, $4, $5, false)
		RETURNING issued_at
	`

	if warning.ID == "" {
		warning.ID = uuid.New().String()
	}

	return r.db.QueryRow(
		query,
		warning.ID, warning.DriverID, warning.RideID, warning.Type, warning.Reason,
	).Scan(&warning.IssuedAt)
}

// GetByDriverID retrieves all warnings for a driver, newest first
func (r *DriverWarningRepository) GetByDriverID(driverID string) ([]models.DriverWarning, error) {
	query := `
		SELECT id, driver_id, ride_id, type, reason, issued_at, resolved, resolved_at
		FROM driver_warnings
		WHERE driver_id = $1
		ORDER BY issued_at DESC
	`

	rows, err := r.db.Query(query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	warnings := []models.DriverWarning{}
	for rows.Next() {
		var warning models.DriverWarning
		var rideID sql.NullString
		var resolvedAt sql.NullTime

		err := rows.Scan(
			&warning.ID, &warning.DriverID, &rideID, &warning.Type,
			&warning.Reason, &warning.IssuedAt, &warning.Resolved, &resolvedAt,
		)
		if err != nil {
			return nil, err
		}

		if rideID.Valid {
			warning.RideID = &rideID.String
		}
		if resolvedAt.Valid {
			warning.ResolvedAt = &resolvedAt.Time
		}

		warnings = append(warnings, warning)
	}

	return warnings, rows.Err()
}
