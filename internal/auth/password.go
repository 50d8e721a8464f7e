package auth

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/yurawu27/splittie/internal/apperr"
	"github.com/yurawu27/splittie/internal/models"
	"github.com/yurawu27/splittie/internal/storage"
)

// MinLength is the shortest username or password that is rejected; anything
// longer is accepted.
const MinLength = 8

// AccountStorage defines the account persistence the authenticator needs.
type AccountStorage interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage AccountStorage
	cost    int
}

// NewPasswordAuthenticator creates a new password-based authenticator.
// A cost of 0 uses bcrypt.DefaultCost.
func NewPasswordAuthenticator(storage AccountStorage, cost int) *PasswordAuthenticator {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordAuthenticator{
		storage: storage,
		cost:    cost,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if utf8.RuneCountInString(credential) <= MinLength {
		return apperr.Validation(apperr.CodePasswordTooShort,
			"password must be longer than %d characters", MinLength)
	}
	return nil
}

// ValidateUsername checks the username length.
func ValidateUsername(username string) error {
	if utf8.RuneCountInString(username) <= MinLength {
		return apperr.Validation(apperr.CodeUsernameTooShort,
			"username must be longer than %d characters", MinLength)
	}
	return nil
}

// Register creates a new account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	if err := ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := a.ValidateCredential(in.Password); err != nil {
		return nil, err
	}

	// Check if username already exists
	_, err := a.storage.GetAccountByUsername(ctx, in.Username)
	if err == nil {
		return nil, apperr.Conflict(apperr.CodeUsernameTaken, "username %s already registered", in.Username)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Internal(err, "failed to look up username")
	}

	// bcrypt only reads the first 72 bytes
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.cost)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}

	account := models.NewAccount(in.Username, string(hashed), in.Email, in.Name, in.Phone)

	// A concurrent registration can still win the unique index
	if err := a.storage.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperr.Conflict(apperr.CodeUsernameTaken, "username %s already registered", in.Username)
		}
		return nil, apperr.Internal(err, "failed to create account")
	}

	return account, nil
}

// Authenticate verifies the username and password, returning the account if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, credential string) (*models.Account, error) {
	account, err := a.storage.GetAccountByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Unauthenticated(apperr.CodeUserNotFound, "no account named %s", username)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to look up account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Credential), []byte(credential)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperr.Unauthenticated(apperr.CodePasswordMismatch, "password mismatch for %s", username)
		}
		return nil, apperr.Internal(fmt.Errorf("stored credential for %s: %w", username, err), "failed to verify password")
	}

	return account, nil
}
