package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique). Used for login.
	Email string

	// Username is the public nickname (unique).
	Username string

	FirstName string
	LastName  string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// IsAdmin grants catalog management and editing of any recipe.
	IsAdmin bool

	// IsBlocked accounts cannot obtain tokens.
	IsBlocked bool

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, username, firstName, lastName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Follow is a subscription of User to Author.
type Follow struct {
	UserID    string
	AuthorID  string
	CreatedAt int64
}
