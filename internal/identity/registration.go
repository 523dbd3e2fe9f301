// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultProfileID is the profile assigned to new accounts when the
// coordinator is not configured otherwise.
const DefaultProfileID = 1

// PersonInput carries the person fields collected at registration.
type PersonInput struct {
	Name     string
	LastName string
	Phone    string
	Email    string
	Address  string
}

// DocumentInput carries the identity document fields collected at registration.
type DocumentInput struct {
	Number string
	TypeID int
}

// Registration is the validated, fully-assembled unit handed to the
// registration store. All four entities are created atomically or not at all.
type Registration struct {
	Document Document
	Person   Person
	Account  Account
	Profile  ProfileAssignment
}

// NewRegistration assembles the four registration entities from validated
// input. The password must already be hashed; plaintext never reaches this
// constructor.
func NewRegistration(username, passwordHash string, person PersonInput, document DocumentInput, profileID int) (*Registration, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("REGISTRATION_INVALID").Errorf("password hash cannot be empty")
	}
	if strings.TrimSpace(person.Name) == "" || strings.TrimSpace(person.LastName) == "" {
		return nil, oops.Code("REGISTRATION_INVALID").Errorf("person name and last name are required")
	}
	if !strings.Contains(person.Email, "@") {
		return nil, oops.Code("REGISTRATION_INVALID").Errorf("person email is invalid")
	}
	if strings.TrimSpace(document.Number) == "" {
		return nil, oops.Code("REGISTRATION_INVALID").Errorf("document number is required")
	}
	if document.TypeID <= 0 {
		return nil, oops.Code("REGISTRATION_INVALID").
			With("type_id", document.TypeID).
			Errorf("document type is invalid")
	}
	if profileID <= 0 {
		profileID = DefaultProfileID
	}

	now := time.Now()
	doc := Document{
		ID:        ulid.Make(),
		Number:    document.Number,
		TypeID:    document.TypeID,
		CreatedAt: now,
	}
	per := Person{
		ID:         ulid.Make(),
		Name:       person.Name,
		LastName:   person.LastName,
		Phone:      person.Phone,
		Email:      person.Email,
		Address:    person.Address,
		Active:     true,
		DocumentID: doc.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	acc := Account{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: passwordHash,
		PersonID:     per.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return &Registration{
		Document: doc,
		Person:   per,
		Account:  acc,
		Profile: ProfileAssignment{
			AccountID: acc.ID,
			ProfileID: profileID,
			CreatedAt: now,
		},
	}, nil
}

// RegistrationStore executes a Registration as one atomic unit against the
// datastore. Implementations must guarantee that no subset of the four
// entities survives a failed attempt, and must return ErrDuplicateAccount
// (wrapped) whether the duplicate is caught by the pre-check or by the
// storage-layer unique constraint.
type RegistrationStore interface {
	CreateAccount(ctx context.Context, reg *Registration) error
}

// RegistrationCoordinator owns the account-creation sequence.
type RegistrationCoordinator struct {
	store     RegistrationStore
	hasher    PasswordHasher
	profileID int
	logger    *slog.Logger
}

// NewRegistrationCoordinator creates a new RegistrationCoordinator.
// profileID is the default profile assigned to new accounts; non-positive
// values fall back to DefaultProfileID.
func NewRegistrationCoordinator(store RegistrationStore, hasher PasswordHasher, profileID int) (*RegistrationCoordinator, error) {
	return NewRegistrationCoordinatorWithLogger(store, hasher, profileID, slog.Default())
}

// NewRegistrationCoordinatorWithLogger creates a RegistrationCoordinator with an explicit logger.
func NewRegistrationCoordinatorWithLogger(store RegistrationStore, hasher PasswordHasher, profileID int, logger *slog.Logger) (*RegistrationCoordinator, error) {
	if store == nil {
		return nil, oops.Errorf("registration store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if profileID <= 0 {
		profileID = DefaultProfileID
	}
	return &RegistrationCoordinator{store: store, hasher: hasher, profileID: profileID, logger: logger}, nil
}

// Register creates the document, person, account, and profile assignment as
// one atomic unit and returns the new account identity.
// A taken username fails with a REGISTRATION_DUPLICATE error wrapping
// ErrDuplicateAccount; anything else from the store surfaces as
// REGISTRATION_FAILED with the cause preserved for diagnostics.
func (c *RegistrationCoordinator) Register(ctx context.Context, username, password string, person PersonInput, document DocumentInput) (*AccountIdentity, error) {
	passwordHash, err := c.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("REGISTRATION_INVALID").
			With("operation", "hash password").
			Wrap(err)
	}

	reg, err := NewRegistration(username, passwordHash, person, document, c.profileID)
	if err != nil {
		return nil, err
	}

	if err := c.store.CreateAccount(ctx, reg); err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			return nil, oops.Code("REGISTRATION_DUPLICATE").Wrap(ErrDuplicateAccount)
		}
		return nil, oops.Code("REGISTRATION_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	c.logger.Info("account registered", "account_id", reg.Account.ID.String())
	return &AccountIdentity{AccountID: reg.Account.ID, ProfileID: reg.Profile.ProfileID}, nil
}
