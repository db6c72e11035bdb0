package models

import "time"

// UserRole represents the role of a user in the marketplace
type UserRole string

const (
	RoleDriver    UserRole = "DRIVER"
	RolePassenger UserRole = "PASSENGER"
)

// User represents a registered driver or passenger
type User struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	Contact   *string    `json:"contact,omitempty" db:"contact"`
	Role      UserRole   `json:"role" db:"role"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// IsDriver reports whether the user holds the driver role
func (u *User) IsDriver() bool {
	return u.Role == RoleDriver
}
