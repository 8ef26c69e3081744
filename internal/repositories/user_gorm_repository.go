package repositories

import (
	"errors"
	"fmt"

	"katalog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := r.db.Create(user).Error; err != nil {
		// Needs gorm.Config.TranslateError to see driver constraint errors.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update saves all fields of an existing user.
func (r *GORMUserRepository) Update(user *models.User) error {
	res := r.db.Save(user)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	return nil
}

// GetProfileByID retrieves a user by ID without loading the password hash.
func (r *GORMUserRepository) GetProfileByID(id string) (*models.User, error) {
	return r.first(r.db.Omit("password_hash"), "user with ID "+id, "id = ?", id)
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.first(r.db, "user with email "+email, "email = ?", email)
}

// GetByGoogleID retrieves a user linked to the given Google account.
func (r *GORMUserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	return r.first(r.db, "user with google id "+googleID, "google_id = ?", googleID)
}

// GetAdminByPhone retrieves an admin user by phone number.
func (r *GORMUserRepository) GetAdminByPhone(phone string) (*models.User, error) {
	return r.first(r.db, "admin with phone "+phone, "phone = ? AND role = ?", phone, models.RoleAdmin)
}

func (r *GORMUserRepository) first(db *gorm.DB, what string, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := db.Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return &user, nil
}
