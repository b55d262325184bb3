package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct horse battery staple"

func newAuthEnv(t *testing.T) *testEnv {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	e := newTestEnv(t)
	e.h.auth = authConfig{passwordHash: hash, jwtSecret: []byte("test-secret")}
	return e
}

func (e *testEnv) get(path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, e *testEnv) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/login", `{"password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]string](t, w)
	require.NotEmpty(t, body["token"])
	require.NotEmpty(t, body["expires_at"])
	return body["token"]
}

func signed(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthDisabled(t *testing.T) {
	e := newTestEnv(t)

	assert.Equal(t, http.StatusOK, e.get("/api/logs/today", "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/api/login", `{"password":"x"}`).Code)
}

func TestLogin(t *testing.T) {
	e := newAuthEnv(t)

	w := e.do(http.MethodPost, "/api/login", `{"password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/login", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := login(t, e)
	assert.Equal(t, http.StatusOK, e.get("/api/logs/today", "Bearer "+token).Code)
}

// TestAuthMiddleware_QueryTokenOnlyForWebsocket verifies ?token= is ignored
// outside the websocket handshake.
func TestAuthMiddleware_QueryTokenOnlyForWebsocket(t *testing.T) {
	e := newAuthEnv(t)
	token := login(t, e)

	assert.Equal(t, http.StatusUnauthorized, e.get("/api/settings?token="+token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, e.get("/api/logs/today?token="+token, "").Code)

	// The plain GET fails the upgrade, but only after auth let it through.
	assert.Equal(t, http.StatusBadRequest, e.get(wsPath+"?token="+token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, e.get(wsPath, "").Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	e := newAuthEnv(t)
	now := time.Now()

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic b3duZXI6cGFzcw=="},
		{"garbage", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signed(t, "other-secret", jwt.RegisteredClaims{
			Subject: tokenSubject, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		})},
		{"expired", "Bearer " + signed(t, "test-secret", jwt.RegisteredClaims{
			Subject: tokenSubject, ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		})},
		{"wrong subject", "Bearer " + signed(t, "test-secret", jwt.RegisteredClaims{
			Subject: "someone-else", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.get("/api/logs/today", tc.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	// Public routes stay reachable.
	assert.Equal(t, http.StatusOK, e.get("/healthz", "").Code)
}
