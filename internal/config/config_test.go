package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 30, cfg.API.AIRateLimitPerHour)
	assert.Empty(t, cfg.API.AllowedOrigins)
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.False(t, cfg.AI.AIEnabled())
	assert.False(t, cfg.Payment.GatewayEnabled())
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 500*time.Millisecond, cfg.Database.SlowQuery)
}

func TestLoad_FromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("API_ALLOWED_ORIGINS", "http://localhost:5173, https://app.example.com")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_TIMEOUT", "5s")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test")
	t.Setenv("RAZORPAY_KEY_SECRET", "secret")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("DATABASE_SLOW_QUERY", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, []string{"http://localhost:5173", "https://app.example.com"}, cfg.API.AllowedOrigins)
	assert.True(t, cfg.AI.AIEnabled())
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.True(t, cfg.Payment.GatewayEnabled())
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2*time.Second, cfg.Database.SlowQuery)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log format")
}

func TestLoad_RequiresMinIOCredentials(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "")
	_, err := Load()
	require.Error(t, err)
}
