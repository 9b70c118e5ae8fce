package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrOAuthNotConfigured is returned when the Google client credentials are absent
var ErrOAuthNotConfigured = fmt.Errorf("google oauth is not configured")

// LoadGoogleOAuthConfig builds the Google OAuth client from:
// - GOOGLE_CLIENT_ID (required)
// - GOOGLE_CLIENT_SECRET (required)
// - OAUTH_REDIRECT_URL: public base URL of this API (default http://localhost:8080)
func LoadGoogleOAuthConfig() (*oauth2.Config, error) {
	clientID := strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))
	if clientID == "" {
		return nil, fmt.Errorf("%w: GOOGLE_CLIENT_ID not set", ErrOAuthNotConfigured)
	}
	clientSecret := strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET"))
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: GOOGLE_CLIENT_SECRET not set", ErrOAuthNotConfigured)
	}

	redirectURL := strings.TrimSuffix(getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080"), "/")

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL + "/api/auth/google/callback",
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}, nil
}
