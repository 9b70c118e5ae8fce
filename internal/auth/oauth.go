package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/config"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrOAuthNotConfigured is returned by OAuth operations when no client
// credentials were supplied.
var ErrOAuthNotConfigured = config.ErrOAuthNotConfigured

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleUserInfo represents Google OAuth user response
type GoogleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleOAuth wraps the oauth2 client for the Google sign-in flow
type GoogleOAuth struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleOAuth returns nil when cfg is nil so callers can pass the
// result of config.LoadGoogleOAuthConfig straight through.
func NewGoogleOAuth(cfg *oauth2.Config) *GoogleOAuth {
	if cfg == nil {
		return nil
	}
	return &GoogleOAuth{config: cfg, userInfoURL: googleUserInfoURL}
}

// AuthCodeURL returns the consent page URL carrying state
func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// UserInfo exchanges code for a token and fetches the profile
func (g *GoogleOAuth) UserInfo(ctx context.Context, code string) (*GoogleUserInfo, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		logger.Log.Warn("Google token exchange failed", zap.Error(err))
		return nil, fmt.Errorf("%w: token exchange failed", ErrInvalidCredentials)
	}

	client := g.config.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read user info: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var info GoogleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return &info, nil
}
