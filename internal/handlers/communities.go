package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/auth"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/metrics"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/notifications"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/permissions"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/util"
	"go.uber.org/zap"
)

const maxCommunitySlug = 64

// CreateCommunity creates a community; the creator becomes its first admin
// POST /api/communities
func (h *Handlers) CreateCommunity(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
		Location    string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "name", "name is required")
		return
	}

	name := strings.TrimSpace(req.Name)
	if len([]rune(name)) < 3 || len([]rune(name)) > 80 {
		util.RespondValidationError(c, "name", "must be 3-80 characters")
		return
	}
	slug := strings.TrimSpace(req.Slug)
	switch {
	case slug == "":
		slug = auth.Truncate(auth.Slugify(name), maxCommunitySlug)
	case len(slug) > maxCommunitySlug:
		util.RespondValidationError(c, "slug", fmt.Sprintf("must be at most %d characters", maxCommunitySlug))
		return
	case auth.Slugify(slug) != slug:
		util.RespondValidationError(c, "slug", "may only contain lowercase letters, digits and '-'")
		return
	}

	community := &models.Community{
		Slug:        slug,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		CreatedBy:   user.ID,
	}
	if err := h.communities.CreateCommunity(c.Request.Context(), community); err != nil {
		respondDomainError(c, err)
		return
	}

	logger.Log.Info("Community created", logger.WithCommunityID(community.ID), logger.WithUserID(user.ID))
	util.RespondCreated(c, community)
}

// JoinCommunity adds the current user as a member
// POST /api/communities/:id/join
func (h *Handlers) JoinCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	communityID := c.Param("id")
	if !util.IsUUID(communityID) {
		util.RespondValidationError(c, "id", "must be a uuid")
		return
	}

	ctx := c.Request.Context()
	community, err := h.communities.GetCommunity(ctx, communityID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	member, err := h.communities.Join(ctx, communityID, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if h.notifications != nil && community.CreatedBy != userID {
		// Joins fold into one notification per community until it is read.
		_, err := h.notifications.Notify(ctx, notifications.CreateInput{
			UserID:   community.CreatedBy,
			Type:     models.NotificationCommunityInvite,
			Title:    "New members joined " + community.Name,
			Link:     "/communities/" + community.Slug + "/members",
			ActorID:  userID,
			BatchKey: "community-join:" + community.ID,
		})
		if err != nil {
			logger.Log.Warn("Failed to notify community creator", logger.WithCommunityID(communityID), zap.Error(err))
		}
	}
	util.RespondCreated(c, member)
}

// GetCommunityMembers lists memberships, admins first
// GET /api/communities/:id/members?limit=&offset=
func (h *Handlers) GetCommunityMembers(c *gin.Context) {
	communityID := c.Param("id")
	if !util.IsUUID(communityID) {
		util.RespondValidationError(c, "id", "must be a uuid")
		return
	}

	limit := util.ClampLimit(c.Query("limit"), 50, 200)
	offset := util.ParseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	if _, err := h.communities.GetCommunity(c.Request.Context(), communityID); err != nil {
		respondDomainError(c, err)
		return
	}
	members, err := h.communities.ListMembers(c.Request.Context(), communityID, limit, offset)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"members": members, "limit": limit, "offset": offset})
}

// ChangeMemberRole sets a member's role. Demoting the only admin is refused.
// Must run behind RequireCommunityAdmin.
// PUT /api/communities/:id/members/:userId/role
func (h *Handlers) ChangeMemberRole(c *gin.Context) {
	communityID := c.Param("id")
	targetID := c.Param("userId")
	if !util.IsUUID(targetID) {
		util.RespondValidationError(c, "userId", "must be a uuid")
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "role", "role is required")
		return
	}
	role := models.MemberRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		util.RespondValidationError(c, "role", "must be one of member, moderator, admin")
		return
	}

	ctx := c.Request.Context()

	// Cheap early answer; ChangeRole re-checks atomically.
	allowed, err := h.guard.CanChangeRole(ctx, communityID, targetID, role)
	if err == nil && !allowed {
		err = permissions.ErrLastAdmin
	}
	if err == nil {
		err = h.communities.ChangeRole(ctx, communityID, targetID, role)
	}

	recordRoleChange(err)
	if err != nil {
		logger.Log.Info("Role change refused",
			logger.WithCommunityID(communityID),
			zap.String("target_user_id", targetID),
			zap.String("role", string(role)),
			zap.Error(err),
		)
		respondDomainError(c, err)
		return
	}

	logger.Log.Info("Role changed",
		logger.WithCommunityID(communityID),
		logger.WithUserID(util.UserID(c)),
		zap.String("target_user_id", targetID),
		zap.String("role", string(role)),
	)
	util.RespondOK(c, gin.H{"community_id": communityID, "user_id": targetID, "role": role})
}

func recordRoleChange(err error) {
	outcome := "changed"
	switch {
	case err == nil:
	case errors.Is(err, permissions.ErrLastAdmin):
		outcome = "last_admin"
	case errors.Is(err, permissions.ErrNotMember):
		outcome = "not_member"
	default:
		outcome = "error"
	}
	metrics.Get().RoleChangesTotal.WithLabelValues(outcome).Inc()
}
