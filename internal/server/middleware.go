package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/hullbook/internal/observability/context"
	"github.com/smallbiznis/hullbook/internal/observability/logger"
	"github.com/smallbiznis/hullbook/internal/ownercontext"
	"go.uber.org/zap"
)

const HeaderOwner = "X-Owner-ID"

// OwnerRequired scopes the request to the owner named by X-Owner-ID.
// Authentication happens in front of this service.
func OwnerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderOwner))
		if raw == "" {
			AbortWithError(c, ErrOwnerRequired)
			return
		}
		ownerID, err := parseSnowflakeID(raw)
		if err != nil {
			AbortWithError(c, ErrOwnerRequired)
			return
		}

		ctx := ownercontext.WithOwnerID(c.Request.Context(), ownerID)
		ctx = obscontext.WithOwnerID(ctx, ownerID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// SyncRateLimit throttles provider syncs per owner when Redis is configured.
// Limiter failures let the request through.
func (s *Server) SyncRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.syncLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
		if !ok {
			AbortWithError(c, ErrOwnerRequired)
			return
		}

		res, err := s.syncLimiter.AllowSync(ctx, ownerID.String())
		if err != nil {
			logger.FromContext(ctx).Warn("sync rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			retry := int(res.RetryAfter.Round(time.Second) / time.Second)
			if retry < 1 {
				retry = 1
			}
			logger.FromContext(ctx).Warn("sync rate limit exceeded", zap.String("route", c.FullPath()))
			c.Header("Retry-After", strconv.Itoa(retry))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
