package app

import (
	"context"
	"net/http"
	"time"

	"loadboard/internal/handler"
	"loadboard/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
)

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler    *handler.AuthHandler
	LoadHandler    *handler.LoadHandler
	FormHandler    *handler.FormHandler
	ProfileHandler *handler.ProfileHandler
	SessionHandler *handler.SessionHandler
	Authenticator  middleware.Authenticator
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
	Health         map[string]Pinger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(corsMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", healthHandler(deps.Health))

	jwtAuthMW := middleware.JWTAuthMiddleware(deps.Authenticator)
	adminRoleMW := middleware.AdminMiddleware()
	userRoleMW := middleware.UserMiddleware()

	var writeMW []gin.HandlerFunc
	if deps.RedisClient != nil {
		writeMW = append(writeMW, middleware.IdempotencyMiddleware(deps.RedisClient))
	}

	apiGroup := router.Group("/api/v1")
	deps.AuthHandler.RegisterAuthRoutes(apiGroup, jwtAuthMW)
	deps.SessionHandler.RegisterSessionRoutes(apiGroup, jwtAuthMW)
	deps.LoadHandler.RegisterLoadRoutes(apiGroup, jwtAuthMW, userRoleMW, adminRoleMW, writeMW...)
	deps.FormHandler.RegisterFormRoutes(apiGroup, jwtAuthMW, adminRoleMW)
	deps.ProfileHandler.RegisterProfileRoutes(apiGroup, jwtAuthMW)

	return router
}

// Simple CORS middleware (allow all; clients authenticate with bearer tokens)
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Idempotency-Key, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func healthHandler(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{"status": "ok"}
		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "error"
				body[name] = "unhealthy"
				continue
			}
			body[name] = "healthy"
		}
		c.JSON(status, body)
	}
}
