// Package server is the studio REST backend: accounts, the admin gate,
// the service catalog and bookings, all under /api.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pixelflare/studio/internal/auth"
	"github.com/pixelflare/studio/internal/config"
	"github.com/pixelflare/studio/internal/models"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	db     *gorm.DB
	config *config.Config
	logger zerolog.Logger
	now    func() time.Time
}

// New opens the database named in cfg and creates a server on it
func New(cfg *config.Config, zlog zerolog.Logger) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}
	return NewWithDB(cfg, db, zlog)
}

// NewWithDB creates a server on an already-open database. Migrations run and
// the JWT secret is resolved before the router is built.
func NewWithDB(cfg *config.Config, db *gorm.DB, zlog zerolog.Logger) (*Server, error) {
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret, err := resolveJWTSecret(db, cfg.Auth.JWTSecret, zlog)
	if err != nil {
		return nil, err
	}
	auth.InitializeJWT(secret, cfg.Auth.TokenTTL)

	s := &Server{
		db:     db,
		config: cfg,
		logger: zlog,
		now:    time.Now,
	}
	s.setupRouter()
	return s, nil
}

// resolveJWTSecret prefers the configured secret; otherwise the secret
// persisted on first start is reused so tokens survive restarts.
func resolveJWTSecret(db *gorm.DB, configured string, zlog zerolog.Logger) (string, error) {
	if configured != "" {
		return configured, nil
	}

	var settings models.Settings
	err := db.First(&settings).Error
	if err == nil {
		zlog.Debug().Msg("Loaded JWT secret from database")
		return settings.JWTSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}

	secret, err := auth.NewSecret(32)
	if err != nil {
		return "", err
	}
	if err := db.Create(&models.Settings{JWTSecret: secret}).Error; err != nil {
		return "", fmt.Errorf("failed to persist JWT secret: %w", err)
	}
	zlog.Info().Msg("Generated JWT secret")
	return secret, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 5 * time.Minute
		busyTimeout     = 5000 // milliseconds
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL must be set first
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)
	useJSONFieldNames()

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	origins := s.config.HTTP.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", headerAdminSecret, headerRequestID},
		ExposeHeaders:    []string{"Content-Length", headerRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")

	// Public endpoints
	api.POST("/setup", s.setupFirstAdmin)
	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)
	api.GET("/auth/logout", s.logout)
	api.GET("/auth/google", s.googleLogin)
	api.POST("/admin/login", s.adminLogin)

	api.GET("/services", s.listServices)
	api.GET("/services/:id", s.getService)
	api.GET("/additional-services", s.listAdditionalServices)
	api.GET("/additional-services/:id", s.getAdditionalService)
	api.GET("/photographers", s.listPhotographers)
	api.GET("/photographers/:id", s.getPhotographer)

	// Authenticated endpoints (JWT required)
	authed := api.Group("")
	authed.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		authed.GET("/auth/me", s.getCurrentUser)
		authed.PUT("/auth/change-password", s.changePassword)

		authed.GET("/bookings", s.listBookings)
		authed.POST("/bookings", s.createBooking)
		authed.POST("/bookings/calculate", s.calculatePrice)
		authed.GET("/bookings/:id", s.getBooking)
		authed.PUT("/bookings/:id", s.updateBooking)
		authed.DELETE("/bookings/:id", s.deleteBooking)

		// Catalog writes (admin role)
		catalog := authed.Group("")
		catalog.Use(AdminOnlyMiddleware(s.logger))
		{
			catalog.POST("/services", s.createService)
			catalog.PUT("/services/:id", s.updateService)
			catalog.DELETE("/services/:id", s.deleteService)
			catalog.POST("/additional-services", s.createAdditionalService)
			catalog.PUT("/additional-services/:id", s.updateAdditionalService)
			catalog.DELETE("/additional-services/:id", s.deleteAdditionalService)
			catalog.POST("/photographers", s.createPhotographer)
			catalog.PUT("/photographers/:id", s.updatePhotographer)
			catalog.DELETE("/photographers/:id", s.deletePhotographer)

			catalog.POST("/admin/verify", s.adminVerify)
		}

		// Admin area (admin role + verified admin grant)
		admin := authed.Group("/admin")
		admin.Use(AdminOnlyMiddleware(s.logger), AdminGrantMiddleware(s.db, s.logger, s.clock))
		{
			admin.GET("/dashboard", s.dashboardStats)
			admin.GET("/users", s.listUsers)
			admin.GET("/users/:id", s.getUser)
			admin.PUT("/users/:id", s.updateUser)
			admin.DELETE("/users/:id", s.deleteUser)
			admin.GET("/analytics/bookings", s.bookingAnalytics)
			admin.GET("/analytics/revenue", s.revenueAnalytics)
		}
	}
}

func (s *Server) clock() time.Time {
	return s.now()
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetHeader(headerRequestID)).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "studio-api",
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully and
// closes the database.
func (s *Server) Start(ctx context.Context) error {
	addr := ":" + s.config.HTTP.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
