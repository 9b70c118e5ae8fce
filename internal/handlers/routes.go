package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/middleware"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/ratelimit"
)

// Limiters holds one limiter per route class. Each class counts under its
// own key, so a request is only ever counted once.
type Limiters struct {
	Default *ratelimit.Limiter
	Auth    *ratelimit.Limiter
	Upload  *ratelimit.Limiter
}

// RouteOptions carries the collaborators RegisterRoutes attaches as middleware
type RouteOptions struct {
	Authenticator middleware.Authenticator
	Admins        middleware.AdminChecker
	Limiters      Limiters
	CronSecret    string
}

func limit(l *ratelimit.Limiter) gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(l)
}

// RegisterRoutes mounts the API under /api and the health check at /health
func RegisterRoutes(r gin.IRouter, h *Handlers, ah *AuthHandlers, health *HealthHandler, opts RouteOptions) {
	requireAuth := middleware.AuthMiddleware(opts.Authenticator)

	if health != nil {
		r.GET("/health", health.Health)
	}

	api := r.Group("/api")
	{
		// Authentication routes (public)
		authGroup := api.Group("/auth", limit(opts.Limiters.Auth))
		{
			authGroup.POST("/register", ah.Register)
			authGroup.POST("/login", ah.Login)
			authGroup.GET("/google", ah.GoogleOAuth)
			authGroup.GET("/google/callback", ah.GoogleCallback)
			authGroup.GET("/me", requireAuth, ah.Me)
		}

		notificationGroup := api.Group("/notifications", limit(opts.Limiters.Default), requireAuth)
		{
			notificationGroup.GET("", h.GetNotifications)
			notificationGroup.GET("/summary", h.GetNotificationSummary)
			notificationGroup.POST("/merge", h.MergeNotificationPages)
			notificationGroup.POST("/read", h.MarkNotificationsRead)
			notificationGroup.POST("/read-all", h.MarkAllNotificationsRead)
			notificationGroup.DELETE("/:id", h.DeleteNotification)
		}

		uploadGroup := api.Group("/uploads", limit(opts.Limiters.Upload), requireAuth)
		{
			uploadGroup.POST("", h.StartUpload)
			uploadGroup.PUT("/:id/chunks/:index", h.PutUploadChunk)
			uploadGroup.POST("/:id/complete", h.CompleteUpload)
			uploadGroup.DELETE("/:id", h.AbortUpload)
		}

		communityGroup := api.Group("/communities", limit(opts.Limiters.Default), requireAuth)
		{
			communityGroup.POST("", h.CreateCommunity)
			communityGroup.POST("/:id/join", h.JoinCommunity)
			communityGroup.GET("/:id/members", h.GetCommunityMembers)
			communityGroup.PUT("/:id/members/:userId/role",
				middleware.RequireCommunityAdmin(opts.Admins, "id"),
				h.ChangeMemberRole,
			)
		}

		discoveryGroup := api.Group("/discovery", limit(opts.Limiters.Default), requireAuth)
		{
			discoveryGroup.GET("/article", h.FetchArticle)
			discoveryGroup.POST("/dedupe", h.DedupeFeed)
		}

		adminGroup := api.Group("/admin", limit(opts.Limiters.Default), requireAuth, middleware.RequireSuperAdmin(opts.Admins))
		{
			adminGroup.POST("/notifications", h.SendNotification)
		}

		cronGroup := api.Group("/cron", middleware.RequireBearerSecret(opts.CronSecret))
		{
			cronGroup.POST("/notifications/sweep", h.SweepNotifications)
		}
	}
}
