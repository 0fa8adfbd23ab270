// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/config"
	redisinfra "github.com/your-org/storefront-client/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-client/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-client/internal/interfaces/http/routes"
	authtoken "github.com/your-org/storefront-client/internal/pkg/auth"
	"github.com/your-org/storefront-client/internal/pkg/pdf"
)

const (
	maxRequestBytes = 1 << 20
	requestTimeout  = 30 * time.Second
	idempotencyTTL  = 24 * time.Hour
)

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	Health() error
}

// Server represents the sandbox HTTP server
type Server struct {
	config      *config.Config
	gin         *gin.Engine
	httpServer  *http.Server
	repo        routes.Repository
	db          HealthChecker
	redisClient *redisinfra.Client
	logger      logrus.FieldLogger
	startedAt   time.Time
}

// NewServer creates a new HTTP server instance. redisClient may be nil, which
// turns off rate limiting and idempotent replay.
func NewServer(cfg *config.Config, repo routes.Repository, db HealthChecker, redisClient *redisinfra.Client, logger logrus.FieldLogger) *Server {
	return &Server{
		config:      cfg,
		repo:        repo,
		db:          db,
		redisClient: redisClient,
		logger:      logger,
		startedAt:   time.Now(),
	}
}

// Handler builds the gin engine with middleware and routes
func (s *Server) Handler() http.Handler {
	if s.gin != nil {
		return s.gin
	}

	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.gin = gin.New()
	s.setupMiddleware()
	s.setupRoutes()
	return s.gin
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Sandbox.Port,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Sandbox.ReadTimeout,
		WriteTimeout: s.config.Sandbox.WriteTimeout,
		IdleTimeout:  s.config.Sandbox.IdleTimeout,
	}

	s.logger.Infof("🚀 Sandbox API starting on port %s", s.config.Sandbox.Port)
	s.logger.Infof("🌐 API Base URL: http://localhost:%s/api/v1", s.config.Sandbox.Port)
	s.logger.Infof("📊 Health Check: http://localhost:%s/health", s.config.Sandbox.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("🛑 Shutting down HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("✅ HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware() {
	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.logger))
	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders())

	var counter middleware.HitCounter
	if s.redisClient != nil {
		counter = s.redisClient
	}
	s.gin.Use(middleware.RateLimit(s.config.Security.RateLimitPerMinute, counter, s.logger))

	s.gin.Use(middleware.RequestSizeLimit(maxRequestBytes))
	s.gin.Use(middleware.Timeout(requestTimeout))
}

// setupRoutes configures all routes for the server
func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	deps := routes.Dependencies{
		Repo:           s.repo,
		Tokens:         authtoken.NewJWTManager(s.config),
		Passwords:      authtoken.NewPasswordManager(s.config),
		Invoices:       pdf.NewService(s.config),
		IdempotencyTTL: idempotencyTTL,
		Logger:         s.logger,
	}
	if s.redisClient != nil {
		deps.Idempotency = s.redisClient
	}

	routes.SetupRoutes(s.gin.Group("/api/v1"), deps)

	if s.config.IsDevelopment() {
		s.gin.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message":     "Storefront sandbox API",
				"version":     s.config.App.Version,
				"environment": s.config.App.Environment,
				"health":      "/health",
				"endpoints": gin.H{
					"auth":          "/api/v1/auth",
					"products":      "/api/v1/products",
					"cart":          "/api/v1/cart",
					"orders":        "/api/v1/orders",
					"notifications": "/api/v1/notifications",
					"reviews":       "/api/v1/reviews",
					"vouchers":      "/api/v1/vouchers",
				},
			})
		})
	}
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	if s.db != nil {
		if err := s.db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database ping failed",
			})
			return
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "redis ping failed",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck handles readiness check requests
func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}
