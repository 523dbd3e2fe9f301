// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package web_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veridia/veridia/internal/identity"
	"github.com/veridia/veridia/internal/identity/memory"
	"github.com/veridia/veridia/internal/identity/mocks"
	"github.com/veridia/veridia/internal/transport/web"
)

const testCookieName = "veridia_session"

type testEnv struct {
	router   http.Handler
	accounts *mocks.MockAccountRepository
	regStore *mocks.MockRegistrationStore
	tokens   *mocks.MockRecoveryTokenRepository
	hasher   *mocks.MockPasswordHasher
	notifier *mocks.MockNotifier
	sessions *memory.SessionStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		accounts: mocks.NewMockAccountRepository(t),
		regStore: mocks.NewMockRegistrationStore(t),
		tokens:   mocks.NewMockRecoveryTokenRepository(t),
		hasher:   mocks.NewMockPasswordHasher(t),
		notifier: mocks.NewMockNotifier(t),
		sessions: memory.NewSessionStore(),
	}

	validator, err := identity.NewCredentialValidator(env.accounts, env.hasher)
	require.NoError(t, err)
	sessionManager, err := identity.NewSessionManager(env.sessions, 0)
	require.NoError(t, err)
	registration, err := identity.NewRegistrationCoordinator(env.regStore, env.hasher, 0)
	require.NoError(t, err)
	recovery, err := identity.NewRecoveryService(env.accounts, env.tokens, env.hasher, env.notifier)
	require.NoError(t, err)
	directory, err := identity.NewDirectory(env.accounts)
	require.NoError(t, err)

	handler, err := web.NewHandler(validator, sessionManager, registration, recovery, directory,
		nil, web.CookieConfig{Name: testCookieName}, nil)
	require.NoError(t, err)

	env.router = web.NewRouter(handler)
	return env
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func login(t *testing.T, env *testEnv) *http.Cookie {
	t.Helper()
	accountID := ulid.Make()
	env.accounts.On("GetCredential", mock.Anything, "alice").Return(&identity.Credential{
		AccountID:    accountID,
		ProfileID:    1,
		PasswordHash: "stored-hash",
	}, nil).Once()
	env.hasher.On("Verify", "secret", "stored-hash").Return(true, nil).Once()

	rec := doJSON(t, env.router, http.MethodPost, "/api/auth/login",
		`{"username":"alice","password":"secret"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return sessionCookie(t, rec)
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials establish a session", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := ulid.Make()

		env.accounts.On("GetCredential", mock.Anything, "alice").Return(&identity.Credential{
			AccountID:    accountID,
			ProfileID:    2,
			PasswordHash: "stored-hash",
		}, nil)
		env.hasher.On("Verify", "secret", "stored-hash").Return(true, nil)

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/login",
			`{"username":"alice","password":"secret"}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			AccountID string `json:"account_id"`
			ProfileID int    `json:"profile_id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, accountID.String(), body.AccountID)
		assert.Equal(t, 2, body.ProfileID)

		cookie := sessionCookie(t, rec)
		assert.True(t, cookie.HttpOnly)
		assert.NotEmpty(t, cookie.Value)
		assert.Equal(t, 1, env.sessions.Len())
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		env := newTestEnv(t)

		env.accounts.On("GetCredential", mock.Anything, "alice").Return(&identity.Credential{
			AccountID:    ulid.Make(),
			ProfileID:    1,
			PasswordHash: "stored-hash",
		}, nil)
		env.hasher.On("Verify", "wrong", "stored-hash").Return(false, nil)

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/login",
			`{"username":"alice","password":"wrong"}`, nil)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_INVALID_CREDENTIALS", errorCode(t, rec))
		assert.Equal(t, 0, env.sessions.Len())
	})

	t.Run("unknown username is indistinguishable from wrong password", func(t *testing.T) {
		env := newTestEnv(t)

		env.accounts.On("GetCredential", mock.Anything, "ghost").
			Return(nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(identity.ErrNotFound))
		env.hasher.On("Verify", "pw", mock.AnythingOfType("string")).Return(false, nil)

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/login",
			`{"username":"ghost","password":"pw"}`, nil)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_INVALID_CREDENTIALS", errorCode(t, rec))
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		env := newTestEnv(t)

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/login", `{not json`, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "REQUEST_INVALID", errorCode(t, rec))
	})
}

func TestLogout(t *testing.T) {
	t.Run("destroys the session and clears the cookie", func(t *testing.T) {
		env := newTestEnv(t)
		cookie := login(t, env)

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/logout", ``, cookie)
		require.Equal(t, http.StatusOK, rec.Code)

		cleared := sessionCookie(t, rec)
		assert.Empty(t, cleared.Value)
		assert.Negative(t, cleared.MaxAge)
		assert.Equal(t, 0, env.sessions.Len())
	})

	t.Run("no active session is reported and cookie still cleared", func(t *testing.T) {
		env := newTestEnv(t)

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/logout", ``, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "SESSION_NOT_ACTIVE", errorCode(t, rec))

		cleared := sessionCookie(t, rec)
		assert.Empty(t, cleared.Value)
	})

	t.Run("second logout with same token reports no active session", func(t *testing.T) {
		env := newTestEnv(t)
		cookie := login(t, env)

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/logout", ``, cookie)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, env.router, http.MethodPost, "/api/auth/logout", ``, cookie)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "SESSION_NOT_ACTIVE", errorCode(t, rec))
	})
}

const registerBody = `{
	"username": "alice",
	"password": "secret",
	"person": {
		"name": "Alice",
		"last_name": "Ruiz",
		"phone": "555-0100",
		"email": "alice@example.com",
		"address": "1 Main St"
	},
	"document": {"number": "CC-1002003", "type_id": 1}
}`

func TestRegister(t *testing.T) {
	t.Run("creates the account", func(t *testing.T) {
		env := newTestEnv(t)

		env.hasher.On("Hash", "secret").Return("hashed-secret", nil)
		env.regStore.On("CreateAccount", mock.Anything, mock.AnythingOfType("*identity.Registration")).
			Return(nil)

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/register", registerBody, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var body struct {
			AccountID string `json:"account_id"`
			ProfileID int    `json:"profile_id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body.AccountID)
		assert.Equal(t, identity.DefaultProfileID, body.ProfileID)
	})

	t.Run("taken username conflicts", func(t *testing.T) {
		env := newTestEnv(t)

		env.hasher.On("Hash", "secret").Return("hashed-secret", nil)
		env.regStore.On("CreateAccount", mock.Anything, mock.AnythingOfType("*identity.Registration")).
			Return(oops.Code("REGISTRATION_DUPLICATE").Wrap(identity.ErrDuplicateAccount))

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/register", registerBody, nil)
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "REGISTRATION_DUPLICATE", errorCode(t, rec))
	})

	t.Run("invalid input is a bad request", func(t *testing.T) {
		env := newTestEnv(t)

		env.hasher.On("Hash", "secret").Return("hashed-secret", nil)

		body := strings.Replace(registerBody, `"alice"`, `"1bad"`, 1)
		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/register", body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRecover(t *testing.T) {
	t.Run("issues and delivers a token", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := ulid.Make()

		env.accounts.On("GetIDByEmail", mock.Anything, "alice@example.com").Return(accountID, nil)
		env.tokens.On("Create", mock.Anything, mock.AnythingOfType("*identity.RecoveryToken")).Return(nil)
		env.notifier.On("SendRecovery", mock.Anything, "alice@example.com", mock.AnythingOfType("string")).
			Return(nil)

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/recover",
			`{"email":"alice@example.com"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown email is not found", func(t *testing.T) {
		env := newTestEnv(t)

		env.accounts.On("GetIDByEmail", mock.Anything, "ghost@example.com").
			Return(ulid.ULID{}, oops.Code("ACCOUNT_NOT_FOUND").Wrap(identity.ErrNotFound))

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/recover",
			`{"email":"ghost@example.com"}`, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "RECOVERY_ACCOUNT_NOT_FOUND", errorCode(t, rec))
	})
}

func TestReset(t *testing.T) {
	t.Run("resets the password", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := ulid.Make()

		env.hasher.On("Hash", "new-password").Return("new-hash", nil)
		env.tokens.On("Consume", mock.Anything, identity.HashRecoveryToken("the-token"), "new-hash").
			Return(accountID, nil)

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/reset",
			`{"token":"the-token","new_password":"new-password"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid token is a bad request", func(t *testing.T) {
		env := newTestEnv(t)

		env.hasher.On("Hash", "new-password").Return("new-hash", nil)
		env.tokens.On("Consume", mock.Anything, identity.HashRecoveryToken("spent"), "new-hash").
			Return(ulid.ULID{}, oops.Code("RECOVERY_TOKEN_INVALID").Wrap(identity.ErrNotFound))

		rec := doJSON(t, env.router, http.MethodPost, "/api/auth/reset",
			`{"token":"spent","new_password":"new-password"}`, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "RECOVERY_TOKEN_INVALID", errorCode(t, rec))
	})
}

func TestUserDirectory(t *testing.T) {
	t.Run("listing requires a session", func(t *testing.T) {
		env := newTestEnv(t)

		rec := doJSON(t, env.router, http.MethodGet, "/api/users/", ``, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "SESSION_NOT_ACTIVE", errorCode(t, rec))
	})

	t.Run("lists accounts with a session", func(t *testing.T) {
		env := newTestEnv(t)
		cookie := login(t, env)

		env.accounts.On("List", mock.Anything).Return([]identity.AccountSummary{
			{AccountID: ulid.Make(), Username: "alice", Name: "Alice", LastName: "Ruiz",
				Email: "alice@example.com", ProfileID: 1},
		}, nil)

		rec := doJSON(t, env.router, http.MethodGet, "/api/users/", ``, cookie)
		require.Equal(t, http.StatusOK, rec.Code)

		var body []struct {
			Username string `json:"username"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body, 1)
		assert.Equal(t, "alice", body[0].Username)
	})

	t.Run("updates a profile with a session", func(t *testing.T) {
		env := newTestEnv(t)
		cookie := login(t, env)
		accountID := ulid.Make()

		env.accounts.On("UpdateProfile", mock.Anything, accountID, identity.ProfileFields{
			Name: "Alice", LastName: "Cruz", Phone: "555-0199",
			Email: "alice@example.com", Address: "2 Oak Ave",
		}).Return(nil)

		rec := doJSON(t, env.router, http.MethodPatch, fmt.Sprintf("/api/users/%s", accountID),
			`{"name":"Alice","last_name":"Cruz","phone":"555-0199","email":"alice@example.com","address":"2 Oak Ave"}`,
			cookie)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("updating an unknown account is not found", func(t *testing.T) {
		env := newTestEnv(t)
		cookie := login(t, env)
		accountID := ulid.Make()

		env.accounts.On("UpdateProfile", mock.Anything, accountID, mock.AnythingOfType("identity.ProfileFields")).
			Return(oops.Code("ACCOUNT_NOT_FOUND").Wrap(identity.ErrNotFound))

		rec := doJSON(t, env.router, http.MethodPatch, fmt.Sprintf("/api/users/%s", accountID),
			`{"name":"A","last_name":"B","phone":"","email":"a@example.com","address":""}`, cookie)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "ACCOUNT_NOT_FOUND", errorCode(t, rec))
	})

	t.Run("malformed account id is a bad request", func(t *testing.T) {
		env := newTestEnv(t)
		cookie := login(t, env)

		rec := doJSON(t, env.router, http.MethodPatch, "/api/users/not-a-ulid",
			`{"name":"A","last_name":"B","phone":"","email":"a@example.com","address":""}`, cookie)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "REQUEST_INVALID", errorCode(t, rec))
	})
}
