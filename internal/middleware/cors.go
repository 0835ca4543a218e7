package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"kernex-dashboard/internal/config"
)

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}
	defaultCORSHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
)

// CORSMiddleware allows the dashboard origin(s). MaxAge is in seconds.
// With no configured origins every origin is allowed, which only suits
// local development.
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    append([]string{RequestIDHeader}, cfg.ExposedHeaders...),
		AllowCredentials: cfg.AllowCredentials,
		AllowWebSockets:  true,
		MaxAge:           time.Duration(cfg.MaxAge) * time.Second,
	}

	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = defaultCORSMethods
	}
	if len(corsConfig.AllowHeaders) == 0 {
		corsConfig.AllowHeaders = defaultCORSHeaders
	}

	return cors.New(corsConfig)
}
