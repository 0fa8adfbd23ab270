// internal/interfaces/http/middleware/cors.go
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-client/internal/config"
)

// CORS returns a middleware that handles Cross-Origin Resource Sharing
func CORS(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     cfg.Security.CORSAllowedMethods,
		AllowHeaders:     cfg.Security.CORSAllowedHeaders,
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}

	for _, origin := range cfg.Security.CORSAllowedOrigins {
		if origin == "*" {
			// Credentials cannot be combined with a literal wildcard
			corsCfg.AllowOriginFunc = func(string) bool { return true }
			corsCfg.AllowOrigins = nil
			return cors.New(corsCfg)
		}
	}
	corsCfg.AllowOrigins = cfg.Security.CORSAllowedOrigins
	corsCfg.AllowWildcard = true

	return cors.New(corsCfg)
}
