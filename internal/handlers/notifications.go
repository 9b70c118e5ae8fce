package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/notifications"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/util"
)

// maxMergePages bounds POST /api/notifications/merge
const maxMergePages = 50

// GetNotifications returns one page of the user's inbox
// GET /api/notifications?cursor=&limit=&filter=all|unread|read
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	filter, err := notifications.ParseFilter(c.Query("filter"))
	if err != nil {
		util.RespondValidationError(c, "filter", "must be one of all, unread, read")
		return
	}

	page, err := h.notifications.List(c.Request.Context(), userID, notifications.PageQuery{
		Cursor: c.Query("cursor"),
		Limit:  util.ClampLimit(c.Query("limit"), notifications.DefaultPageSize, notifications.MaxPageSize),
		Filter: filter,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	util.RespondOK(c, page)
}

// GetNotificationSummary returns the unread count and newest notification
// GET /api/notifications/summary
func (h *Handlers) GetNotificationSummary(c *gin.Context) {
	summary, err := h.notifications.Summary(c.Request.Context(), util.UserID(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	util.RespondOK(c, summary)
}

// MergeNotificationPages flattens pages the client already holds
// POST /api/notifications/merge
func (h *Handlers) MergeNotificationPages(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	var req struct {
		Pages []notifications.Page `json:"pages" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}
	if len(req.Pages) > maxMergePages {
		util.RespondValidationError(c, "pages", "too many pages")
		return
	}

	items := notifications.Merge(req.Pages)
	util.RespondOK(c, gin.H{"items": items, "count": len(items)})
}

// MarkNotificationsRead marks the listed notifications as read
// POST /api/notifications/read
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}
	if len(req.IDs) == 0 || len(req.IDs) > notifications.MaxPageSize {
		util.RespondValidationError(c, "ids", "must contain 1-100 ids")
		return
	}

	updated, err := h.notifications.MarkRead(c.Request.Context(), userID, req.IDs)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"updated": updated})
}

// MarkAllNotificationsRead marks the whole inbox as read
// POST /api/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"updated": updated})
}

// DeleteNotification removes one notification
// DELETE /api/notifications/:id
func (h *Handlers) DeleteNotification(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if !util.IsUUID(id) {
		util.RespondValidationError(c, "id", "must be a uuid")
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), userID, id); err != nil {
		respondDomainError(c, err)
		return
	}
	util.RespondOK(c, nil, "notification deleted")
}

// SendNotification lets a super admin post a system notification to a user
// POST /api/admin/notifications
func (h *Handlers) SendNotification(c *gin.Context) {
	var req struct {
		UserID   string `json:"user_id" binding:"required"`
		Type     string `json:"type"`
		Title    string `json:"title" binding:"required"`
		Body     string `json:"body"`
		Link     string `json:"link"`
		BatchKey string `json:"batch_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "user_id and title are required")
		return
	}
	if !util.IsUUID(req.UserID) {
		util.RespondValidationError(c, "user_id", "must be a uuid")
		return
	}
	if req.Type == "" {
		req.Type = string(models.NotificationSystem)
	}

	n, err := h.notifications.Notify(c.Request.Context(), notifications.CreateInput{
		UserID:   req.UserID,
		Type:     models.NotificationType(req.Type),
		Title:    req.Title,
		Body:     req.Body,
		Link:     req.Link,
		ActorID:  util.UserID(c),
		BatchKey: req.BatchKey,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	util.RespondCreated(c, n)
}
