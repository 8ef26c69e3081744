package repositories

import (
	"errors"

	"katalog/internal/models"
)

// ErrNotFound is wrapped by every repository lookup that matches no record.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is wrapped by writes rejected by a unique index.
var ErrDuplicate = errors.New("duplicate key")

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	Update(user *models.User) error
	GetProfileByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByGoogleID(googleID string) (*models.User, error)
	GetAdminByPhone(phone string) (*models.User, error)
}
