package middleware

import (
	"context"
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/util"
	"go.uber.org/zap"
)

// AdminChecker is the subset of permissions.Guard the admin middleware needs
type AdminChecker interface {
	IsSuperAdmin(user *models.User) bool
	IsCommunityAdmin(ctx context.Context, communityID, userID string) (bool, error)
}

// RequireSuperAdmin ensures the authenticated user is a platform admin.
// Must run after AuthMiddleware.
func RequireSuperAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			return
		}
		if !checker.IsSuperAdmin(user) {
			util.RespondForbidden(c, "super admin access required")
			return
		}
		c.Next()
	}
}

// RequireCommunityAdmin ensures the user administers the community named by
// the given route parameter. Super admins always pass.
func RequireCommunityAdmin(checker AdminChecker, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			return
		}
		if checker.IsSuperAdmin(user) {
			c.Next()
			return
		}

		communityID := c.Param(param)
		if !util.IsUUID(communityID) {
			util.RespondValidationError(c, param, "must be a uuid")
			return
		}

		isAdmin, err := checker.IsCommunityAdmin(c.Request.Context(), communityID, user.ID)
		if err != nil {
			logger.Log.Error("Community admin check failed",
				logger.WithCommunityID(communityID),
				logger.WithUserID(user.ID),
				zap.Error(err),
			)
			util.RespondError(c, err)
			return
		}
		if !isAdmin {
			util.RespondForbidden(c, "community admin access required")
			return
		}
		c.Next()
	}
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
