package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrAccountExists      = errors.New("email or username already registered")
	ErrUserBlocked        = errors.New("account is blocked")
)

// UserStorage defines the interface for user persistence operations.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage UserStorage
	admins  map[string]bool
}

// NewPasswordAuthenticator creates a new password-based authenticator.
// Accounts registered with one of adminEmails are created as admins.
func NewPasswordAuthenticator(storage UserStorage, adminEmails ...string) *PasswordAuthenticator {
	admins := make(map[string]bool, len(adminEmails))
	for _, email := range adminEmails {
		admins[normalizeEmail(email)] = true
	}
	return &PasswordAuthenticator{
		storage: storage,
		admins:  admins,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new user account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, reg Registration, credential string) (*models.User, error) {
	// Validate password strength
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	email := normalizeEmail(reg.Email)

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(email, reg.Username, reg.FirstName, reg.LastName, string(hashedPassword))
	user.IsAdmin = a.admins[email]

	// The store enforces uniqueness of email and username.
	if err := a.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the email and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	// Get user by email
	user, err := a.storage.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Compare password hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.IsBlocked {
		return nil, ErrUserBlocked
	}

	return user, nil
}
