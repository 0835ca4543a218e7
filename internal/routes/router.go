package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kernex-dashboard/internal/auth"
	"kernex-dashboard/internal/config"
	"kernex-dashboard/internal/delivery/http/handler"
	"kernex-dashboard/internal/fleet/service"
	"kernex-dashboard/internal/logger"
	"kernex-dashboard/internal/middleware"
	"kernex-dashboard/internal/uistate"
)

// Dependencies are the long-lived components the HTTP layer serves.
type Dependencies struct {
	Service     *service.Service
	Liveness    handler.LivenessReporter
	Tracker     *service.FetchTracker
	Tokens      *auth.MemoryTokenStore
	UIStore     *uistate.Store
	RateLimiter *middleware.RateLimiter
}

func SetupRoutes(cfg *config.Config, deps *Dependencies) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware("/health", "/api/v1/liveness"))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RateLimitMiddleware(deps.RateLimiter))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	fleetHandler := handler.NewFleetHandler(deps.Service)
	systemHandler := handler.NewSystemHandler(deps.Service, deps.Liveness, deps.Tracker)
	authHandler := handler.NewAuthHandler(deps.Service, deps.Tokens)
	uiHandler := handler.NewUIHandler(deps.UIStore, allowedOrigin(&cfg.CORS))

	v1 := router.Group("/api/v1")
	{
		fleetHandler.RegisterRoutes(v1)
		systemHandler.RegisterRoutes(v1)
		authHandler.RegisterRoutes(v1)
		uiHandler.RegisterRoutes(v1)
	}

	logger.Info("All routes initialized")
	return router
}

// allowedOrigin lets websocket upgrades through for the CORS origins. With
// no configured origins the upgrader's same-origin default applies.
func allowedOrigin(cfg *config.CORSConfig) func(r *http.Request) bool {
	if len(cfg.AllowedOrigins) == 0 {
		return nil
	}
	origins := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		origins[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := origins[origin]
		return ok
	}
}
