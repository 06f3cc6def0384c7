// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/infrastructure/database/redis"
	"github.com/your-org/pos-backend/internal/interfaces/http/middleware"
	"github.com/your-org/pos-backend/internal/interfaces/http/routes"
	"github.com/your-org/pos-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	gin         *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	log         *logrus.Logger
	startedAt   time.Time
}

// NewServer creates a new HTTP server instance. redisClient may be nil, in
// which case caching and rate limiting are disabled.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) *Server {
	return &Server{
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		log:         log,
	}
}

// Handler builds the gin engine with all middleware and routes
func (s *Server) Handler() http.Handler {
	if s.gin != nil {
		return s.gin
	}

	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.gin = gin.New()
	if err := s.gin.SetTrustedProxies(s.config.Security.TrustedProxies); err != nil {
		s.log.WithError(err).Warn("invalid trusted proxies, trusting none")
		_ = s.gin.SetTrustedProxies(nil)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s.gin
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}
	s.startedAt = time.Now()

	s.log.WithFields(logrus.Fields{
		"port":     s.config.Server.Port,
		"base_url": fmt.Sprintf("http://localhost:%s/api/v1", s.config.Server.Port),
	}).Info("HTTP server starting")

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

	s.log.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware() {
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.log))
	s.gin.Use(middleware.Recovery(s.log))
	s.gin.Use(middleware.SecurityHeaders())
	s.gin.Use(middleware.CORS(s.config))

	var limiter middleware.Limiter
	if s.redisClient != nil {
		limiter = s.redisClient
	}
	s.gin.Use(middleware.RateLimit(s.config, limiter, s.log))

	s.gin.Use(middleware.RequestSizeLimit(s.config.Server.MaxBodyBytes))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

// setupRoutes configures all routes for the server
func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	deps := &routes.Dependencies{
		DB:     s.db,
		Config: s.config,
		Log:    s.log,
		JWT:    auth.NewJWTManager(s.config),
	}
	if s.redisClient != nil {
		deps.Cache = s.redisClient
	}

	apiV1 := s.gin.Group("/api/v1")
	routes.SetupAuthRoutes(apiV1, deps)
	routes.SetupCatalogRoutes(apiV1, deps)
	routes.SetupSaleRoutes(apiV1, deps)
	routes.SetupSettingsRoutes(apiV1, deps)
	routes.SetupDashboardRoutes(apiV1, deps)
	routes.SetupAdminRoutes(apiV1, deps)

	if s.config.IsDevelopment() {
		s.gin.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message":     s.config.App.Name,
				"version":     s.config.App.Version,
				"environment": s.config.App.Environment,
				"health":      "/health",
				"endpoints": gin.H{
					"auth":      "/api/v1/auth",
					"products":  "/api/v1/products",
					"sales":     "/api/v1/sales",
					"settings":  "/api/v1/settings",
					"dashboard": "/api/v1/dashboard",
					"admin":     "/api/v1/admin",
				},
			})
		})
	}
}

// healthCheck reports database and Redis status. Redis being down degrades
// the service but does not make it unhealthy.
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{}
	status := http.StatusOK
	overall := "healthy"

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		s.log.WithError(err).Error("database health check failed")
		checks["database"] = "unhealthy"
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	} else {
		checks["database"] = "healthy"
	}

	switch {
	case s.redisClient == nil:
		checks["redis"] = "disabled"
	case s.redisClient.Health(ctx) != nil:
		checks["redis"] = "unhealthy"
		if overall == "healthy" {
			overall = "degraded"
		}
	default:
		checks["redis"] = "healthy"
	}

	c.JSON(status, gin.H{
		"status":      overall,
		"checks":      checks,
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
