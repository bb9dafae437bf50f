// Package server contains the HTTP handlers for the moderation engine's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	_ "tribunal/docs" // swagger docs
	"tribunal/internal/cache"
	"tribunal/internal/config"
	"tribunal/internal/database"
	"tribunal/internal/featureflags"
	"tribunal/internal/middleware"
	"tribunal/internal/models"
	"tribunal/internal/notifications"
	"tribunal/internal/repository"
	"tribunal/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	directoryRepo  repository.DirectoryRepository
	roleRepo       repository.RoleRepository
	actionRepo     repository.ActionRepository
	logRepo        repository.LogRepository
	appealRepo     repository.AppealRepository
	flagRepo       repository.FlagRepository
	notifier       *notifications.Notifier
	featureFlags   *featureflags.Manager
	roleService    *service.RoleService
	memberService  *service.MemberService
	actionService  *service.ActionService
	logService     *service.LogService
	appealService  *service.AppealService
	flagService    *service.FlagService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("tribunal-api"),
		directoryRepo:  repository.NewDirectoryRepository(db),
		roleRepo:       repository.NewRoleRepository(db),
		actionRepo:     repository.NewActionRepository(db),
		logRepo:        repository.NewLogRepository(db),
		appealRepo:     repository.NewAppealRepository(db),
		flagRepo:       repository.NewFlagRepository(db),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	// RoleService backs the auth gates, so it is wired first and the other
	// services borrow its role checks.
	server.roleService = service.NewRoleService(db, server.roleRepo, server.directoryRepo)
	server.memberService = service.NewMemberService(db, server.roleService)
	server.actionService = service.NewActionService(
		db, server.actionRepo, server.logRepo, server.roleRepo, server.directoryRepo,
		server.isAdminByMemberID)
	server.logService = service.NewLogService(
		db, server.logRepo, server.actionRepo, server.roleRepo, server.isAdminByMemberID)
	server.appealService = service.NewAppealService(
		db, server.appealRepo, server.actionRepo, server.flagRepo, server.directoryRepo,
		server.actionService, server.isAdminByMemberID, server.isStaffByMemberID)
	server.flagService = service.NewFlagService(
		db, server.flagRepo, server.directoryRepo,
		server.isAdminByMemberID, server.isStaffByMemberID)

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and Member ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	// Backwards-compatible legacy route: map /health to readiness
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Tribunal Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// Member self-service
	members := protected.Group("/members")
	members.Get("/me/roles", s.GetMyRoles)

	// Flag reports. Specific routes before the generic /:id lookup; the
	// triage queue is staff-only while submission and self-listing are open
	// to any member.
	flags := protected.Group("/flags")
	flags.Post("/", middleware.RateLimit(
		s.redis, 5, time.Minute, "submit_flag"), s.SubmitFlag)
	flags.Get("/me", s.GetMyFlags)
	flags.Get("/", s.StaffRequired(), s.GetFlags)
	flags.Post("/:id/status", s.StaffRequired(), s.TriageFlag)
	flags.Get("/:id", s.GetFlag)

	// Appeals. Resolution lives under /admin.
	appeals := protected.Group("/appeals")
	appeals.Post("/", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "submit_appeal"), s.SubmitAppeal)
	appeals.Get("/me", s.GetMyAppeals)
	appeals.Get("/", s.StaffRequired(), s.GetAppeals)
	appeals.Get("/:id", s.GetAppeal)

	// Moderation actions and their logs are staff territory.
	actions := protected.Group("/actions", s.StaffRequired())
	actions.Post("/", s.CreateAction)
	actions.Get("/", s.GetActions)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	actions.Get("/:id/logs", s.GetActionLogs)
	actions.Post("/:id/logs", s.AppendActionLog)
	actions.Post("/:id/logs/:logId/correct", s.CorrectLogEntry)
	actions.Post("/:id/status", s.TransitionAction)
	actions.Put("/:id", s.UpdateAction)
	actions.Get("/:id", s.GetAction)

	logs := protected.Group("/logs", s.StaffRequired())
	logs.Get("/events/:eventId", s.GetLogEntryByEventID)
	logs.Get("/:id", s.GetLogEntry)

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Get("/members", s.GetAdminMembers)
	admin.Get("/members/:id/roles", s.GetMemberRoles)
	admin.Get("/members/:id", s.GetAdminMemberDetail)
	admin.Get("/members/:id/grants", s.GetMemberGrantHistory)
	admin.Post("/members/:id/promote-moderator", s.PromoteModerator)
	admin.Post("/members/:id/demote-moderator", s.DemoteModerator)
	admin.Post("/members/:id/promote-admin", s.PromoteAdministrator)
	admin.Post("/members/:id/demote-admin", s.DemoteAdministrator)
	admin.Get("/moderators", s.GetModerators)
	admin.Get("/administrators", s.GetAdministrators)
	admin.Post("/appeals/:id/status", s.ResolveAppeal)
	admin.Delete("/actions/:id", s.DeleteAction)
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis backs rate limits and the role cache, so readiness requires it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Tribunal",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-administrator members
// with 403. Must be placed after AuthRequired so that memberID is available
// in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID := c.Locals("memberID").(uint)

		admin, err := s.isAdminByMemberID(c.UserContext(), memberID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Administrator access required"))
		}

		return c.Next()
	}
}

// StaffRequired returns middleware that rejects members holding neither an
// administrator record nor an active moderator grant.
func (s *Server) StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID := c.Locals("memberID").(uint)

		roles, err := s.roleService.RolesFor(c.UserContext(), memberID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !roles.Staff() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Staff access required"))
		}

		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		// Parse and validate token
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		// Validate issuer and audience
		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "tribunal-api" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "tribunal-client" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		// Extract member ID from subject claim
		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		memberID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid member ID in token"))
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" {
			if s.redis != nil {
				isBlacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
				if err == nil && isBlacklisted > 0 {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Token has been revoked"))
				}
			}
		}

		// Store member ID in context
		c.Locals("memberID", uint(memberID))
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(memberID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Tribunal Moderation API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
