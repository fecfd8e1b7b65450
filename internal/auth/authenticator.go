package auth

import (
	"context"

	"github.com/mmynk/foodgram/internal/models"
)

// Registration holds the profile fields of a new account.
type Registration struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
}

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new user account with the given profile and credential.
	Register(ctx context.Context, reg Registration, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	// Blocked accounts fail with ErrUserBlocked.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
