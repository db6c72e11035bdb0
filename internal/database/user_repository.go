package database

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/ridehub/ridehub-backend/internal/models"
)

// UserRepository handles database operations for the users table
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, contact, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	return r.db.QueryRow(
		query,
		user.ID, user.Name, user.Email, user.Contact, user.Role,
	).Scan(&user.CreatedAt)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(userID string) (*models.User, error) {
	query := `
		SELECT id, name, email, contact, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user := &models.User{}
	var contact sql.NullString
	var updatedAt sql.NullTime

	err := r.db.QueryRow(query, userID).Scan(
		&user.ID, &user.Name, &user.Email, &contact, &user.Role,
		&user.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if contact.Valid {
		user.Contact = &contact.String
	}
	if updatedAt.Valid {
		user.UpdatedAt = &updatedAt.Time
	}

	return user, nil
}
