package util

import (
	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
)

// Context keys set by the auth middleware.
const (
	ContextUserIDKey = "user_id"
	ContextUserKey   = "user"
)

// UserID returns the authenticated user id, or "" when the request is anonymous.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

// GetUserFromContext extracts the authenticated user from the Gin context.
// If the user is not authenticated, it responds with 401 and returns false.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		RespondUnauthorized(c)
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		RespondUnauthorized(c)
		return nil, false
	}
	return user, true
}

// GetUserIDFromContext extracts the user ID from the Gin context.
// If the user is not authenticated, it responds with 401 and returns false.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID := UserID(c)
	if userID == "" {
		RespondUnauthorized(c)
		return "", false
	}
	return userID, true
}
