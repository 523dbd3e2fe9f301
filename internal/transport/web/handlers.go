// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

// Package web exposes the identity operations over HTTP.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/veridia/veridia/internal/identity"
	"github.com/veridia/veridia/internal/observability"
)

// CookieConfig controls the session cookie handed to browsers.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Handler carries the identity services behind the HTTP surface.
type Handler struct {
	validator    *identity.CredentialValidator
	sessions     *identity.SessionManager
	registration *identity.RegistrationCoordinator
	recovery     *identity.RecoveryService
	directory    *identity.Directory
	metrics      *observability.Metrics
	cookie       CookieConfig
	logger       *slog.Logger
}

// NewHandler creates a Handler. metrics may be nil when the observability
// server is disabled.
func NewHandler(
	validator *identity.CredentialValidator,
	sessions *identity.SessionManager,
	registration *identity.RegistrationCoordinator,
	recovery *identity.RecoveryService,
	directory *identity.Directory,
	metrics *observability.Metrics,
	cookie CookieConfig,
	logger *slog.Logger,
) (*Handler, error) {
	if validator == nil || sessions == nil || registration == nil || recovery == nil || directory == nil {
		return nil, oops.Errorf("all identity services are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cookie.Name == "" {
		cookie.Name = "veridia_session"
	}
	return &Handler{
		validator:    validator,
		sessions:     sessions,
		registration: registration,
		recovery:     recovery,
		directory:    directory,
		metrics:      metrics,
		cookie:       cookie,
		logger:       logger,
	}, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type identityResponse struct {
	AccountID string `json:"account_id"`
	ProfileID int    `json:"profile_id"`
}

// handleLogin validates credentials and establishes a session. The session
// is persisted before the response is written; a storage failure yields an
// error response and no session (fail-closed).
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, oops.Code("REQUEST_INVALID").Wrap(err))
		return
	}

	ident, err := h.validator.Validate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.countLogin("error")
		writeError(w, r, h.logger, err)
		return
	}
	if ident == nil {
		h.countLogin("rejected")
		writeError(w, r, h.logger, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("credentials do not match"))
		return
	}

	session, token, err := h.sessions.Create(r.Context(), *ident)
	if err != nil {
		h.countLogin("error")
		writeError(w, r, h.logger, err)
		return
	}

	h.setSessionCookie(w, token, session.ExpiresAt)
	h.countLogin("ok")
	if h.metrics != nil {
		h.metrics.SessionsActive.Inc()
	}

	writeJSON(w, http.StatusOK, identityResponse{
		AccountID: session.AccountID.String(),
		ProfileID: session.ProfileID,
	})
}

// handleLogout destroys the session named by the request token. The cookie
// is cleared on every outcome so clients never keep a dead handle; an absent
// session still reports SESSION_NOT_ACTIVE.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := h.requestToken(r)
	h.clearSessionCookie(w)

	if err := h.sessions.Destroy(r.Context(), token); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.SessionsActive.Dec()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Person   struct {
		Name     string `json:"name"`
		LastName string `json:"last_name"`
		Phone    string `json:"phone"`
		Email    string `json:"email"`
		Address  string `json:"address"`
	} `json:"person"`
	Document struct {
		Number string `json:"number"`
		TypeID int    `json:"type_id"`
	} `json:"document"`
}

// handleRegister creates the document, person, account, and profile
// assignment as one atomic unit.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, oops.Code("REQUEST_INVALID").Wrap(err))
		return
	}

	ident, err := h.registration.Register(r.Context(), req.Username, req.Password,
		identity.PersonInput{
			Name:     req.Person.Name,
			LastName: req.Person.LastName,
			Phone:    req.Person.Phone,
			Email:    req.Person.Email,
			Address:  req.Person.Address,
		},
		identity.DocumentInput{
			Number: req.Document.Number,
			TypeID: req.Document.TypeID,
		},
	)
	if err != nil {
		h.countRegistration("rejected")
		writeError(w, r, h.logger, err)
		return
	}

	h.countRegistration("ok")
	writeJSON(w, http.StatusCreated, identityResponse{
		AccountID: ident.AccountID.String(),
		ProfileID: ident.ProfileID,
	})
}

type recoverRequest struct {
	Email string `json:"email"`
}

// handleRecover issues a single-use recovery token and sends it to the
// account's email address.
func (h *Handler) handleRecover(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, oops.Code("REQUEST_INVALID").Wrap(err))
		return
	}

	if err := h.recovery.Request(r.Context(), req.Email); err != nil {
		h.countRecovery("request", "rejected")
		writeError(w, r, h.logger, err)
		return
	}

	h.countRecovery("request", "ok")
	writeJSON(w, http.StatusOK, map[string]string{"status": "recovery message sent"})
}

type resetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// handleReset redeems a recovery token and replaces the account password.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, oops.Code("REQUEST_INVALID").Wrap(err))
		return
	}

	if err := h.recovery.Reset(r.Context(), req.Token, req.NewPassword); err != nil {
		h.countRecovery("reset", "rejected")
		writeError(w, r, h.logger, err)
		return
	}

	h.countRecovery("reset", "ok")
	writeJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

type accountResponse struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	ProfileID int    `json:"profile_id"`
}

// handleListAccounts returns all account summaries.
func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.directory.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]accountResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, accountResponse{
			AccountID: s.AccountID.String(),
			Username:  s.Username,
			Name:      s.Name,
			LastName:  s.LastName,
			Email:     s.Email,
			ProfileID: s.ProfileID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
}

// handleUpdateProfile updates the person fields of an account. Credentials
// and document data are not reachable through this endpoint.
func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	accountID, err := ulid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, r, h.logger, oops.Code("REQUEST_INVALID").Wrap(err))
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, oops.Code("REQUEST_INVALID").Wrap(err))
		return
	}

	err = h.directory.UpdateProfile(r.Context(), accountID, identity.ProfileFields{
		Name:     req.Name,
		LastName: req.LastName,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "profile updated"})
}

// requestToken extracts the session token from the cookie.
func (h *Handler) requestToken(r *http.Request) string {
	cookie, err := r.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) countLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) countRegistration(outcome string) {
	if h.metrics != nil {
		h.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) countRecovery(stage, outcome string) {
	if h.metrics != nil {
		h.metrics.RecoveriesTotal.WithLabelValues(stage, outcome).Inc()
	}
}
