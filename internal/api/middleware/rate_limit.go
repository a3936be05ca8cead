package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/voicedit/internal/metrics"
	"github.com/yoockh/voicedit/internal/ratelimit"
	"github.com/yoockh/voicedit/internal/utils"
)

const MsgRateLimited = "Rate limit exceeded."

// RateLimit rejects the request with 429 before any handler work when the
// client identity (its IP) has exhausted a window for this route.
func RateLimit(l *ratelimit.Limiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()

		d := l.Check(c.ClientIP(), route)
		if d.Allowed {
			c.Next()
			return
		}

		m.ObserveRateLimited(route)

		secs := int(math.Ceil(d.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		err := utils.E(utils.CodeRateLimited, "RateLimit", MsgRateLimited, nil)
		_ = c.Error(err)
		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(utils.HTTPStatus(err), gin.H{
			"error":  MsgRateLimited,
			"window": d.Window.String(),
		})
	}
}
