package models

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a customer or an administrator of the store.
// Email and GoogleID are pointers so that absent values are stored as NULL,
// which keeps their unique indexes sparse.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Email        *string   `json:"email,omitempty" gorm:"uniqueIndex;type:varchar(255)"`
	Phone        string    `json:"phone,omitempty" gorm:"index;type:varchar(32)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255)"` // No json tag for security
	Role         string    `json:"role" gorm:"type:varchar(16);not null;default:user"`
	GoogleID     *string   `json:"googleId,omitempty" gorm:"uniqueIndex;type:varchar(255)"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the stored role is admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// EmailValue returns the email or an empty string when none is set.
func (u *User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
