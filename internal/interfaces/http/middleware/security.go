package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	// APIPolicy is the content policy of JSON responses
	APIPolicy = "default-src 'none'; frame-ancestors 'none'"
	// DocumentPolicy is for handlers that serve rendered HTML, such as the
	// invoice preview, which carries its own inline styles
	DocumentPolicy = "default-src 'none'; style-src 'unsafe-inline'; img-src data: https:; frame-ancestors 'none'"
)

// SecurityHeaders adds security headers to responses. Handlers may replace
// Content-Security-Policy before writing.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		c.Header("Content-Security-Policy", APIPolicy)
		c.Header("Server", "Storefront Sandbox")

		c.Next()
	}
}
