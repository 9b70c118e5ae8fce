package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/util"
)

// Authenticator resolves a bearer token to a user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware validates the bearer token and stores the user in the context
func AuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			util.RespondUnauthorized(c, "no token provided")
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil || user == nil {
			util.RespondUnauthorized(c, "invalid token")
			return
		}

		c.Set(util.ContextUserIDKey, user.ID)
		c.Set(util.ContextUserKey, user)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// RequireBearerSecret guards machine-to-machine routes such as cron triggers.
// An empty secret disables the route entirely.
func RequireBearerSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			util.RespondForbidden(c, "route disabled")
			return
		}
		if !constantTimeEqual(bearerToken(c.GetHeader("Authorization")), secret) {
			util.RespondUnauthorized(c, "invalid secret")
			return
		}
		c.Next()
	}
}
