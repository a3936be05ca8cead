package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicedit/internal/api/handlers"
	"github.com/yoockh/voicedit/internal/api/middleware"
	"github.com/yoockh/voicedit/internal/metrics"
	"github.com/yoockh/voicedit/internal/ratelimit"
)

type Deps struct {
	Recognition *handlers.RecognitionHandler
	Limiter     *ratelimit.Limiter
	Metrics     *metrics.Metrics
	Logger      *logrus.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestLogger(d.Logger, d.Metrics), gin.Recovery())

	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// Rate-limited routes
	limited := r.Group("/")
	if d.Limiter != nil {
		limited.Use(middleware.RateLimit(d.Limiter, d.Metrics))
	}

	limited.POST("/recognise", d.Recognition.Recognise)
	limited.POST("/edit", d.Recognition.Edit)
}
