// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/oops"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusForCode maps service error codes to HTTP statuses. Unknown codes get
// a generic 500 so internal failure detail never leaks to clients.
func statusForCode(code string) int {
	switch code {
	case "AUTH_INVALID_CREDENTIALS":
		return http.StatusUnauthorized
	case "REGISTRATION_DUPLICATE":
		return http.StatusConflict
	case "REGISTRATION_INVALID", "RECOVERY_TOKEN_INVALID", "SESSION_NOT_ACTIVE", "REQUEST_INVALID",
		"ACCOUNT_INVALID_USERNAME", "ACCOUNT_EMPTY_PASSWORD":
		return http.StatusBadRequest
	case "RECOVERY_ACCOUNT_NOT_FOUND", "ACCOUNT_NOT_FOUND":
		return http.StatusNotFound
	case "RECOVERY_DELIVERY_FAILED":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageForCode returns the client-facing message for an error code.
// Responses never carry wrapped error text; causes stay in the logs.
func messageForCode(code string) string {
	switch code {
	case "AUTH_INVALID_CREDENTIALS":
		return "invalid username or password"
	case "REGISTRATION_DUPLICATE":
		return "username is already taken"
	case "REGISTRATION_INVALID":
		return "registration data is invalid"
	case "ACCOUNT_INVALID_USERNAME":
		return "username is invalid"
	case "ACCOUNT_EMPTY_PASSWORD":
		return "password cannot be empty"
	case "RECOVERY_TOKEN_INVALID":
		return "recovery token is invalid or expired"
	case "SESSION_NOT_ACTIVE":
		return "no active session"
	case "RECOVERY_ACCOUNT_NOT_FOUND", "ACCOUNT_NOT_FOUND":
		return "account not found"
	case "RECOVERY_DELIVERY_FAILED":
		return "recovery message could not be delivered"
	case "REQUEST_INVALID":
		return "request body is invalid"
	default:
		return "internal error"
	}
}

// writeError logs the full error and writes the mapped client response.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := "INTERNAL"
	if oopsErr, ok := oops.AsOops(err); ok {
		if c, isString := oopsErr.Code().(string); isString && c != "" {
			code = c
		}
	}

	status := statusForCode(code)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", code,
			"error", err.Error(),
		)
	} else {
		logger.InfoContext(r.Context(), "request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"code", code,
		)
	}

	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    code,
		Message: messageForCode(code),
	}})
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // nothing useful to do if the client went away
	json.NewEncoder(w).Encode(v)
}
