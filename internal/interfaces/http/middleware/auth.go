// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-client/internal/domain/auth"
	authtoken "github.com/your-org/storefront-client/internal/pkg/auth"
)

const (
	userIDKey  = "user_id"
	roleKey    = "user_role"
	storeIDKey = "store_id"
	claimsKey  = "token_claims"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*authtoken.Claims, error)
}

// AuthMiddleware rejects requests without a valid bearer token
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			return
		}

		// Extract token from header
		tokenString := authtoken.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware reads a bearer token when one is sent and ignores it otherwise
func OptionalAuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := authtoken.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.Next()
			return
		}

		if claims, err := tokens.ValidateToken(tokenString); err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// RequireRole lets through only callers holding one of roles
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		for _, role := range roles {
			if p.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient role",
		})
	}
}

func setClaims(c *gin.Context, claims *authtoken.Claims) {
	c.Set(userIDKey, claims.UserID)
	c.Set(roleKey, auth.Role(claims.Role))
	c.Set(storeIDKey, claims.StoreID)
	c.Set(claimsKey, claims)
}

// Principal is the authenticated caller
type Principal struct {
	UserID  string
	Role    auth.Role
	StoreID string
}

// PrincipalFromContext returns the caller set by the auth middleware
func PrincipalFromContext(c *gin.Context) (Principal, bool) {
	userID := c.GetString(userIDKey)
	if userID == "" {
		return Principal{}, false
	}
	role, _ := c.Get(roleKey)
	r, _ := role.(auth.Role)
	return Principal{
		UserID:  userID,
		Role:    r,
		StoreID: c.GetString(storeIDKey),
	}, true
}
