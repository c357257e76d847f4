package model

import (
	"time"
)

// User is an operator account of the SAM admin API. The admin API stays
// unauthenticated until the first User is created.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:128" json:"username"`
	DisplayName  string    `json:"display_name,omitempty"`
	PasswordHash string    `json:"-"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanLogIn reports whether the account may authenticate
func (u User) CanLogIn() bool {
	return !u.Disabled && u.PasswordHash != ""
}

// UsersStore manages admin API accounts. Returned users never carry the
// password hash.
type UsersStore interface {
	Count() (int64, error)
	List() ([]User, error)
	// Get returns a NotFoundError for unknown usernames
	Get(username string) (*User, error)
	// Create hashes password before storing it and returns an
	// AlreadyExistsError if the username is taken
	Create(username, password, displayName string) (*User, error)
	// Update changes the non-nil fields
	Update(username string, displayName, newPassword *string, disabled *bool) (*User, error)
	Delete(username string) error
	// Authenticate returns the user if password matches its stored hash
	Authenticate(username, password string) (*User, error)
}
