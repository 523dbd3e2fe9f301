// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

// Package mocks provides testify mocks for the identity interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/veridia/veridia/internal/identity"
)

// MockAccountRepository is a mock of identity.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

// NewMockAccountRepository creates a MockAccountRepository whose expectations
// are asserted on test cleanup.
func NewMockAccountRepository(t *testing.T) *MockAccountRepository {
	t.Helper()
	m := &MockAccountRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAccountRepository) GetCredential(ctx context.Context, username string) (*identity.Credential, error) {
	args := m.Called(ctx, username)
	if cred, ok := args.Get(0).(*identity.Credential); ok {
		return cred, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) GetIDByEmail(ctx context.Context, email string) (ulid.ULID, error) {
	args := m.Called(ctx, email)
	if id, ok := args.Get(0).(ulid.ULID); ok {
		return id, args.Error(1)
	}
	return ulid.ULID{}, args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context) ([]identity.AccountSummary, error) {
	args := m.Called(ctx)
	if summaries, ok := args.Get(0).([]identity.AccountSummary); ok {
		return summaries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) UpdateProfile(ctx context.Context, accountID ulid.ULID, fields identity.ProfileFields) error {
	args := m.Called(ctx, accountID, fields)
	return args.Error(0)
}

// MockRegistrationStore is a mock of identity.RegistrationStore.
type MockRegistrationStore struct {
	mock.Mock
}

// NewMockRegistrationStore creates a MockRegistrationStore whose expectations
// are asserted on test cleanup.
func NewMockRegistrationStore(t *testing.T) *MockRegistrationStore {
	t.Helper()
	m := &MockRegistrationStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRegistrationStore) CreateAccount(ctx context.Context, reg *identity.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

// MockRecoveryTokenRepository is a mock of identity.RecoveryTokenRepository.
type MockRecoveryTokenRepository struct {
	mock.Mock
}

// NewMockRecoveryTokenRepository creates a MockRecoveryTokenRepository whose
// expectations are asserted on test cleanup.
func NewMockRecoveryTokenRepository(t *testing.T) *MockRecoveryTokenRepository {
	t.Helper()
	m := &MockRecoveryTokenRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRecoveryTokenRepository) Create(ctx context.Context, token *identity.RecoveryToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRecoveryTokenRepository) Consume(ctx context.Context, tokenHash, newPasswordHash string) (ulid.ULID, error) {
	args := m.Called(ctx, tokenHash, newPasswordHash)
	if id, ok := args.Get(0).(ulid.ULID); ok {
		return id, args.Error(1)
	}
	return ulid.ULID{}, args.Error(1)
}

func (m *MockRecoveryTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockSessionStore is a mock of identity.SessionStore.
type MockSessionStore struct {
	mock.Mock
}

// NewMockSessionStore creates a MockSessionStore whose expectations are
// asserted on test cleanup.
func NewMockSessionStore(t *testing.T) *MockSessionStore {
	t.Helper()
	m := &MockSessionStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionStore) Put(ctx context.Context, session *identity.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) Get(ctx context.Context, tokenHash string) (*identity.Session, error) {
	args := m.Called(ctx, tokenHash)
	if session, ok := args.Get(0).(*identity.Session); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

// MockPasswordHasher is a mock of identity.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are
// asserted on test cleanup.
func NewMockPasswordHasher(t *testing.T) *MockPasswordHasher {
	t.Helper()
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// MockNotifier is a mock of identity.Notifier.
type MockNotifier struct {
	mock.Mock
}

// NewMockNotifier creates a MockNotifier whose expectations are asserted on
// test cleanup.
func NewMockNotifier(t *testing.T) *MockNotifier {
	t.Helper()
	m := &MockNotifier{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNotifier) SendRecovery(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

// Compile-time interface checks.
var (
	_ identity.AccountRepository       = (*MockAccountRepository)(nil)
	_ identity.RegistrationStore       = (*MockRegistrationStore)(nil)
	_ identity.RecoveryTokenRepository = (*MockRecoveryTokenRepository)(nil)
	_ identity.SessionStore            = (*MockSessionStore)(nil)
	_ identity.PasswordHasher          = (*MockPasswordHasher)(nil)
	_ identity.Notifier                = (*MockNotifier)(nil)
)
