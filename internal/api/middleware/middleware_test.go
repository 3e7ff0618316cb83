package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeai/internal/auth/authtest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	svc := authtest.NewService(t)
	r := gin.New()
	r.GET("/me", AuthMiddleware(svc), RequirePasswordChangeCompletedMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetUint(UserIDKey)})
	})

	ok, err := svc.GenerateTokenPair(9, false)
	require.NoError(t, err)
	locked, err := svc.GenerateTokenPair(10, true)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"refresh token", "Bearer " + ok.RefreshToken, http.StatusUnauthorized},
		{"must change password", "Bearer " + locked.AccessToken, http.StatusForbidden},
		{"valid", "bearer " + ok.AccessToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := perform(r, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"user":9}`, w.Body.String())
			}
		})
	}
}

func TestInternalSecretMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/guarded", InternalSecretMiddleware("s3cret"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/unset", InternalSecretMiddleware(" "), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	assert.Equal(t, http.StatusUnauthorized, perform(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("X-Internal-Secret", "wrong")
	assert.Equal(t, http.StatusUnauthorized, perform(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("X-Internal-Secret", "s3cret")
	assert.Equal(t, http.StatusNoContent, perform(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/unset", nil)
	assert.Equal(t, http.StatusInternalServerError, perform(r, req).Code)
}

func TestCorrelationIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(CorrelationIDMiddleware(), SlogLoggerMiddleware(logger))
	r.GET("/ping", func(c *gin.Context) {
		LoggerFromContext(c).Info("inside handler")
		c.String(http.StatusOK, GetCorrelationID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	w := perform(r, req)
	assert.Equal(t, "corr-123", w.Body.String())
	assert.Equal(t, "corr-123", w.Header().Get("X-Correlation-ID"))
	assert.Contains(t, buf.String(), `"correlation_id":"corr-123"`)
	assert.Contains(t, buf.String(), `"msg":"request completed"`)

	w = perform(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}

func TestCorrelationID_RejectsUnsafeValues(t *testing.T) {
	r := gin.New()
	r.Use(CorrelationIDMiddleware())
	r.GET("/ctx", func(c *gin.Context) {
		c.String(http.StatusOK, CorrelationIDFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/ctx", nil)
	req.Header.Set("X-Request-ID", "upstream.42")
	assert.Equal(t, "upstream.42", perform(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ctx", nil)
	req.Header.Set(CorrelationIDHeader, "bad id\nwith newline")
	w := perform(r, req)
	assert.NotContains(t, w.Body.String(), "bad id")
	assert.Equal(t, w.Header().Get(CorrelationIDHeader), w.Body.String())
}
