// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/domain/auth"
	"github.com/your-org/storefront-client/internal/infrastructure/database/postgres"
	authtoken "github.com/your-org/storefront-client/internal/pkg/auth"
)

// UserRepository loads sandbox accounts
type UserRepository interface {
	UserByEmail(ctx context.Context, email string) (*postgres.User, error)
	UserByID(ctx context.Context, id string) (*postgres.User, error)
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateAccessToken(userID, email, role, storeID string) (string, error)
	Expiry() time.Duration
}

// PasswordVerifier checks a password against its hash
type PasswordVerifier interface {
	VerifyPassword(password, hash string) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	users     UserRepository
	tokens    TokenIssuer
	passwords PasswordVerifier
	logger    logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users UserRepository, tokens TokenIssuer, passwords PasswordVerifier, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

type loginBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	u, err := h.users.UserByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, postgres.ErrNotFound) {
		respondError(c, err)
		return
	}
	if u == nil || h.passwords.VerifyPassword(req.Password, u.PasswordHash) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.tokens.GenerateAccessToken(u.ID, u.Email, u.Role, u.StoreID)
	if err != nil {
		h.logger.WithError(err).Error("failed to sign access token")
		respondError(c, err)
		return
	}

	h.logger.WithField("user_id", u.ID).Info("user logged in")
	respond(c, http.StatusOK, "Login successful", auth.Session{
		Token:     token,
		User:      u.Account(),
		ExpiresAt: time.Now().UTC().Add(h.tokens.Expiry()),
	})
}

// Logout handles POST /auth/logout. Tokens are stateless, so the client
// forgets its token and the server only acknowledges.
func (h *AuthHandler) Logout(c *gin.Context) {
	respondMessage(c, http.StatusOK, "Logged out successfully")
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	u, err := h.users.UserByID(c.Request.Context(), scope.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", u.Account())
}

var _ TokenIssuer = (*authtoken.JWTManager)(nil)
var _ PasswordVerifier = (*authtoken.PasswordManager)(nil)
