package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/theglocal_test")
	t.Setenv("RATE_LIMIT_MAX", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("UPLOAD_COMPLETE_TIMEOUT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/theglocal_test", cfg.DatabaseURL)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 120*time.Second, cfg.UploadCompleteTimeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"https://theglocal.in", "http://localhost:3000"},
		ParseList(" https://theglocal.in, ,http://localhost:3000 "))
	assert.Empty(t, ParseList(""))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("UPLOAD_COMPLETE_TIMEOUT", "5m")
	t.Setenv("SUPER_ADMIN_EMAILS", " Admin@Example.com ,ops@theglocal.in,")
	t.Setenv("ENVIRONMENT", "Production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 5*time.Minute, cfg.UploadCompleteTimeout)
	assert.Equal(t, []string{"admin@example.com", "ops@theglocal.in"}, cfg.SuperAdminEmails)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsNonPositiveRateLimit(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RATE_LIMIT_MAX", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestGoogleOAuthConfigMissingClientID(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	_, err := LoadGoogleOAuthConfig()
	assert.ErrorIs(t, err, ErrOAuthNotConfigured)
}

func TestGoogleOAuthConfig(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("GOOGLE_CLIENT_SECRET", "shh")
	t.Setenv("OAUTH_REDIRECT_URL", "https://api.theglocal.in/")

	cfg, err := LoadGoogleOAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "client", cfg.ClientID)
	assert.Equal(t, "https://api.theglocal.in/api/auth/google/callback", cfg.RedirectURL)
}
