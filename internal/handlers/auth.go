package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/auth"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/util"
	"go.uber.org/zap"
)

const oauthStateCookie = "theglocal_oauth_state"

// AuthHandlers handles account and session endpoints
type AuthHandlers struct {
	authService  auth.AuthServiceInterface
	secureCookie bool
}

// NewAuthHandlers creates auth handlers. secureCookie marks the OAuth state
// cookie Secure and should be set outside development.
func NewAuthHandlers(authService auth.AuthServiceInterface, secureCookie bool) *AuthHandlers {
	return &AuthHandlers{authService: authService, secureCookie: secureCookie}
}

// Register creates a password account
// POST /api/auth/register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "email, password and display_name are required")
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	logger.Log.Info("User registered", logger.WithUserID(resp.User.ID))
	util.RespondCreated(c, resp)
}

// Login exchanges email and password for a token
// POST /api/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "email and password are required")
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	util.RespondOK(c, resp)
}

// Me returns the authenticated user
// GET /api/auth/me
func (h *AuthHandlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	util.RespondOK(c, user)
}

// GoogleOAuth redirects to the Google consent page, or answers 503 when
// OAuth has no client credentials.
// GET /api/auth/google
func (h *AuthHandlers) GoogleOAuth(c *gin.Context) {
	state := uuid.NewString()
	url, err := h.authService.GoogleAuthURL(state)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/api/auth/google", "", h.secureCookie, true)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback completes the OAuth flow and returns a token
// GET /api/auth/google/callback
func (h *AuthHandlers) GoogleCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		util.RespondUnauthorized(c, "google sign-in was cancelled")
		return
	}

	state, err := c.Cookie(oauthStateCookie)
	if err != nil || subtle.ConstantTimeCompare([]byte(state), []byte(c.Query("state"))) != 1 {
		logger.Log.Warn("OAuth state mismatch", logger.WithIP(c.ClientIP()))
		util.RespondBadRequest(c, "invalid oauth state")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/api/auth/google", "", h.secureCookie, true)

	code := c.Query("code")
	if code == "" {
		util.RespondValidationError(c, "code", "code is required")
		return
	}

	resp, err := h.authService.HandleGoogleCallback(c.Request.Context(), code)
	if err != nil {
		logger.Log.Warn("Google callback failed", zap.Error(err))
		respondDomainError(c, err)
		return
	}
	util.RespondOK(c, resp)
}
