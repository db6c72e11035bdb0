package models

import "time"

// BoardingType distinguishes onboarding from deboarding verification
type BoardingType string

const (
	BoardingTypeOnboarding BoardingType = "ONBOARDING"
	BoardingTypeDeboarding BoardingType = "DEBOARDING"
)

// BoardingRecord is a one-time OTP issued to verify a boarding event
type BoardingRecord struct {
	ID          string       `json:"id" db:"id"`
	BookingID   string       `json:"booking_id" db:"booking_id"`
	RideID      string       `json:"ride_id" db:"ride_id"`
	PassengerID string       `json:"passenger_id" db:"passenger_id"`
	OTPCode     string       `json:"otp_code" db:"otp_code"`
	Type        BoardingType `json:"type" db:"type"`
	GeneratedAt time.Time    `json:"generated_at" db:"generated_at"`
	ExpiresAt   time.Time    `json:"expires_at" db:"expires_at"`
	Validated   bool         `json:"validated" db:"validated"`
	ValidatedAt *time.Time   `json:"validated_at,omitempty" db:"validated_at"`
}

// IsExpired reports whether the OTP can no longer be validated
func (r *BoardingRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// ValidateOTPRequest carries an OTP code submitted by a passenger
type ValidateOTPRequest struct {
	OTPCode string `json:"otp_code" binding:"required,len=6"`
}
