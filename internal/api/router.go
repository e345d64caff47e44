package api

import (
	"context"
	"net/http"
	"time"

	"delivery-notifier/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterOptions struct {
	Dispatcher     Dispatcher
	Subscriptions  SubscriptionWriter
	VAPIDPublicKey string
	// Ready is checked by /ready; typically the Postgres client.
	Ready  Pinger
	Logger logger.Logger
}

func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		opts.Logger.Error("panic recovered", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}))

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readyHandler(opts.Ready))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	apiGroup.POST("/send-push", NewPushHandler(opts.Dispatcher, opts.Logger).SendPush)
	NewSubscriptionHandler(opts.Subscriptions, opts.VAPIDPublicKey, opts.Logger).RegisterRoutes(apiGroup)

	return r
}

func readyHandler(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
