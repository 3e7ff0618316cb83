package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeai/internal/auth"
	"resumeai/internal/database"
)

func (s *server) login(username, password string) (*tokenResponse, string, int) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"username": username, "password": password})
	if w.Code != http.StatusOK {
		return nil, "", w.Code
	}
	var refresh string
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshTokenCookieName {
			refresh = c.Value
		}
	}
	tok := decode[tokenResponse](s.t, w)
	return &tok, refresh, w.Code
}

func TestRegisterLoginAndCurrentUser(t *testing.T) {
	s := newServer(t)

	body := map[string]any{"username": "grace", "email": "grace@example.com", "password": "hopper-1906"}
	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/auth/register", "", body).Code)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/v1/auth/register", "", body).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/auth/register", "", map[string]any{
		"username": "shorty", "password": "123",
	}).Code)

	tok, refresh, code := s.login("grace", "hopper-1906")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.False(t, tok.MustChangePassword)
	assert.NotEmpty(t, refresh)

	w := s.do(http.MethodGet, "/v1/auth/user", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[userResponse](t, w)
	assert.Equal(t, "grace", me.Username)
	assert.Equal(t, "grace@example.com", me.Email)
	assert.Equal(t, database.DefaultAICredits, me.AICredits)
	assert.Equal(t, 0, me.DownloadCredits)
	assert.False(t, me.IsPremium)
}

func TestLogin_LocksAfterRepeatedFailures(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/auth/register", "", map[string]any{
		"username": "linus", "password": "penguins-4ever",
	}).Code)

	for range 3 {
		_, _, code := s.login("linus", "wrong-password")
		assert.Equal(t, http.StatusUnauthorized, code)
	}
	_, _, code := s.login("linus", "penguins-4ever")
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestRefresh_RotatesToken(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/auth/register", "", map[string]any{
		"username": "ken", "password": "unix-epoch-1970",
	}).Code)
	_, refresh, code := s.login("ken", "unix-epoch-1970")
	require.Equal(t, http.StatusOK, code)

	w := s.do(http.MethodPost, "/v1/auth/refresh", "", map[string]any{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[tokenResponse](t, w).AccessToken)

	w = s.do(http.MethodPost, "/v1/auth/refresh", "", map[string]any{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePassword_UnlocksAccount(t *testing.T) {
	s := newServer(t)
	hash, err := auth.HashPassword("temporary-pass")
	require.NoError(t, err)
	require.NoError(t, s.db.Create(&database.User{
		Username:           "ops",
		PasswordHash:       hash,
		MustChangePassword: true,
	}).Error)

	tok, _, code := s.login("ops", "temporary-pass")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, tok.MustChangePassword)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/v1/resumes", tok.AccessToken, nil).Code)

	w := s.do(http.MethodPost, "/v1/auth/change-password", tok.AccessToken, map[string]any{
		"current_password": "temporary-pass",
		"new_password":     "permanent-pass",
		"confirm_password": "permanent-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fresh := decode[tokenResponse](t, w)
	assert.False(t, fresh.MustChangePassword)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/resumes", fresh.AccessToken, nil).Code)

	_, _, code = s.login("ops", "permanent-pass")
	assert.Equal(t, http.StatusOK, code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "resumeai_http_request_duration_seconds")
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/auth/register", "", map[string]any{
		"username": "barbara", "password": "liskov-subst",
	}).Code)
	_, refresh, code := s.login("barbara", "liskov-subst")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/auth/logout", "", nil).Code)

	w := s.do(http.MethodPost, "/v1/auth/logout", "", map[string]any{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshTokenCookieName {
			assert.Empty(t, c.Value)
			assert.Negative(t, c.MaxAge)
		}
	}

	w = s.do(http.MethodPost, "/v1/auth/refresh", "", map[string]any{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
