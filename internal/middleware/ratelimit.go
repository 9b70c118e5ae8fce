package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/errors"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/metrics"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/ratelimit"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/util"
	"go.uber.org/zap"
)

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() ratelimit.Config {
	return ratelimit.Config{
		MaxRequests: 100,         // 100 requests
		Window:      time.Minute, // per minute
	}
}

// AuthRateLimitConfig returns stricter limits for auth endpoints
func AuthRateLimitConfig() ratelimit.Config {
	return ratelimit.Config{
		MaxRequests: 10,
		Window:      time.Minute,
	}
}

// UploadRateLimitConfig returns limits for upload endpoints
func UploadRateLimitConfig() ratelimit.Config {
	return ratelimit.Config{
		MaxRequests: 20, // 20 chunk or complete calls
		Window:      time.Minute,
	}
}

// LogLimitExceeded is the default OnLimitExceeded callback
func LogLimitExceeded(key string, d ratelimit.Decision) {
	logger.Log.Warn("Rate limit exceeded",
		zap.String("key", key),
		zap.Int("limit", d.Limit),
		zap.Time("reset_at", d.ResetAt),
	)
}

// RateLimit enforces limiter on every request passing through it
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		d := limiter.Check(c.Request.Context(), c.Request)
		action := ratelimit.Action(c.Request.URL.Path)

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if d.FailedOpen {
			m.RateLimitFailOpenTotal.WithLabelValues(action).Inc()
		}

		if !d.Allowed {
			m.RateLimitExceededTotal.WithLabelValues(action).Inc()
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(d.ResetAt)))
			util.RespondWithAPIError(c, errors.RateLimited(""))
			return
		}

		c.Next()
	}
}

func retryAfterSeconds(resetAt time.Time) int {
	secs := int(math.Ceil(time.Until(resetAt).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
