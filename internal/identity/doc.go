// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

// Package identity provides the account, session, and recovery primitives
// for the Veridia identity service.
//
// # Domain Types
//
// Domain types (Document, Person, Account, Session, RecoveryToken) should be
// created using their respective constructors:
//   - NewRegistration - assembles the four registration entities with validated input
//   - NewSession - creates a Session bound to a validated account identity
//   - NewRecoveryToken - creates a RecoveryToken with validated account and expiry
//
// Direct struct initialization bypasses validation and may create invalid state.
// Store implementations receive pre-validated types from these constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - CredentialValidator - username/password verification
//   - SessionManager - session issuance and teardown
//   - RegistrationCoordinator - atomic multi-entity account creation
//   - RecoveryService - single-use password recovery tokens
//   - Directory - account listing and profile updates
//
// Services are created with New* constructors that validate dependencies.
package identity
