package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/errors"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/util"
	"go.uber.org/zap"
)

// SweepNotifications deletes expired notifications. Guarded by the cron
// bearer secret, not by user auth.
// POST /api/cron/notifications/sweep
func (h *Handlers) SweepNotifications(c *gin.Context) {
	if h.sweeper == nil {
		util.RespondWithAPIError(c, errors.NotConfigured("notification sweep"))
		return
	}

	deleted, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		util.RespondError(c, err)
		return
	}

	logger.Log.Info("Cron notification sweep", zap.Int64("deleted", deleted))
	util.RespondOK(c, gin.H{"deleted": deleted})
}
