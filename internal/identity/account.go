// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package identity

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Document is an identity document captured at registration.
// Immutable once created.
type Document struct {
	ID        ulid.ULID
	Number    string
	TypeID    int
	CreatedAt time.Time
}

// Person holds the personal record owning one Document.
type Person struct {
	ID         ulid.ULID
	Name       string
	LastName   string
	Phone      string
	Email      string
	Address    string
	Active     bool
	DocumentID ulid.ULID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Account is the user credential record referencing one Person.
type Account struct {
	ID           ulid.ULID
	Username     string
	PasswordHash string
	PersonID     ulid.ULID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileAssignment binds an account to a profile (role grouping).
type ProfileAssignment struct {
	AccountID ulid.ULID
	ProfileID int
	CreatedAt time.Time
}

// AccountIdentity is the pair produced by successful credential validation.
type AccountIdentity struct {
	AccountID ulid.ULID
	ProfileID int
}

// Credential is the stored material a username resolves to during login.
type Credential struct {
	AccountID    ulid.ULID
	ProfileID    int
	PasswordHash string
}

// AccountSummary is the read model returned by account listings.
type AccountSummary struct {
	AccountID ulid.ULID
	Username  string
	Name      string
	LastName  string
	Email     string
	ProfileID int
}

// ProfileFields are the person attributes updatable after registration.
// Document and credential data are deliberately not included.
type ProfileFields struct {
	Name     string
	LastName string
	Phone    string
	Email    string
	Address  string
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("ACCOUNT_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("ACCOUNT_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("ACCOUNT_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("ACCOUNT_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// AccountRepository provides read/update access to existing account records.
type AccountRepository interface {
	// GetCredential resolves a username (case-insensitive) to its stored
	// credential material. Returns ErrNotFound if the username is unknown.
	GetCredential(ctx context.Context, username string) (*Credential, error)

	// GetIDByEmail resolves an email (case-insensitive) to an account ID.
	// Returns ErrNotFound if no account matches.
	GetIDByEmail(ctx context.Context, email string) (ulid.ULID, error)

	// List returns a summary of all accounts.
	List(ctx context.Context) ([]AccountSummary, error)

	// UpdateProfile updates the person fields for an account.
	// Returns ErrNotFound if the account does not exist.
	UpdateProfile(ctx context.Context, accountID ulid.ULID, fields ProfileFields) error
}
