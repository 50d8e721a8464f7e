package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Account represents a registered user.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// Username is the login identity. Unique and case-sensitive.
	Username string

	// Credential is the bcrypt hash of the password. Never the raw password.
	Credential string

	// Email is the contact address given at registration.
	Email string

	// Name is the display name.
	Name string

	// Phone is the contact phone number.
	Phone string

	// Bills is the index of bill IDs this account pays for or splits.
	// Maintained by the directory package; the bills table is authoritative.
	Bills []string

	// CreatedAt is the Unix timestamp when the account was registered.
	CreatedAt int64
}

// NewAccount creates an Account with a fresh ID and creation timestamp.
func NewAccount(username, credential, email, name, phone string) *Account {
	return &Account{
		ID:         uuid.New().String(),
		Username:   username,
		Credential: credential,
		Email:      email,
		Name:       name,
		Phone:      phone,
		CreatedAt:  time.Now().Unix(),
	}
}

// HasBill reports whether billID is in the account's bill index.
func (a *Account) HasBill(billID string) bool {
	return slices.Contains(a.Bills, billID)
}
