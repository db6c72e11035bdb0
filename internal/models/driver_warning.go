package models

import "time"

// DriverWarningType classifies disciplinary warnings issued to drivers
type DriverWarningType string

const (
	WarningLateCancellation       DriverWarningType = "LATE_CANCELLATION"
	WarningLastMinuteCancellation DriverWarningType = "LAST_MINUTE_CANCELLATION"
	WarningNoShow                 DriverWarningType = "NO_SHOW"
	WarningPassengerComplaint     DriverWarningType = "PASSENGER_COMPLAINT"
	WarningSafetyViolation        DriverWarningType = "SAFETY_VIOLATION"
)

// DriverWarning records a disciplinary event against a driver
type DriverWarning struct {
	ID         string            `json:"id" db:"id"`
	DriverID   string            `json:"driver_id" db:"driver_id"`
	RideID     *string           `json:"ride_id,omitempty" db:"ride_id"`
	Type       DriverWarningType `json:"type" db:"type"`
	Reason     string            `json:"reason" db:"reason"`
	IssuedAt   time.Time         `json:"issued_at" db:"issued_at"`
	Resolved   bool              `json:"resolved" db:"resolved"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty" db:"resolved_at"`
}
