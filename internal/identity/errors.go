// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package identity

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateAccount is returned when a username is already taken, whether
// detected by the pre-check or by the storage-layer unique constraint.
var ErrDuplicateAccount = errors.New("duplicate account")
