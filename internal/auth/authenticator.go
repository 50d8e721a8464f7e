package auth

import (
	"context"

	"github.com/yurawu27/splittie/internal/models"
)

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
	Phone    string
}

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new account. Fails with USERNAME_TOO_SHORT,
	// PASSWORD_TOO_SHORT or USERNAME_TAKEN.
	Register(ctx context.Context, in RegisterInput) (*models.Account, error)

	// Authenticate verifies the username and credential, returning the account.
	// Fails with USER_NOT_FOUND or PASSWORD_MISMATCH.
	Authenticate(ctx context.Context, username, credential string) (*models.Account, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
