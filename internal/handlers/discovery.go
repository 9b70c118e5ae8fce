package handlers

import (
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/discovery"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/errors"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/util"
)

const maxDedupeItems = 500

// FetchArticle returns the readable content of an external page
// GET /api/discovery/article?url=
func (h *Handlers) FetchArticle(c *gin.Context) {
	if h.articles == nil {
		util.RespondWithAPIError(c, errors.NotConfigured("article discovery"))
		return
	}

	raw := c.Query("url")
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		util.RespondValidationError(c, "url", "must be an absolute http(s) url")
		return
	}

	article, err := h.articles.FetchArticle(c.Request.Context(), raw)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	util.RespondOK(c, article)
}

// DedupeFeed drops feed items whose titles match an earlier item
// POST /api/discovery/dedupe
func (h *Handlers) DedupeFeed(c *gin.Context) {
	var req struct {
		Items []discovery.Item `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}
	if len(req.Items) > maxDedupeItems {
		util.RespondValidationError(c, "items", "too many items")
		return
	}

	items := discovery.DedupeByTitle(req.Items)
	util.RespondOK(c, gin.H{"items": items, "removed": len(req.Items) - len(items)})
}
