// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"glimpse/internal/cache"
	"glimpse/internal/config"
	"glimpse/internal/database"
	"glimpse/internal/middleware"
	"glimpse/internal/models"
	"glimpse/internal/notifications"
	"glimpse/internal/observability"
	"glimpse/internal/projector"
	"glimpse/internal/repository"
	"glimpse/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
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

	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	likeRepo    repository.LikeRepository
	cardRepo    repository.CardRepository
	viewRepo    repository.ViewRepository
	flagRepo    repository.FlagRepository
	eventRepo   repository.EventRepository

	userService    *service.UserService
	followService  *service.FollowService
	postService    *service.PostService
	commentService *service.CommentService
	likeService    *service.LikeService
	cardService    *service.CardService
	datingService  *service.DatingService

	notifier   *notifications.Notifier
	hub        *notifications.Hub
	dispatcher *notifications.Dispatcher
	projector  *projector.Projector
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with an in-memory database and no Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("glimpse-api"),
		userRepo:       repository.NewUserRepository(db),
		followRepo:     repository.NewFollowRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		likeRepo:       repository.NewLikeRepository(db),
		cardRepo:       repository.NewCardRepository(db),
		viewRepo:       repository.NewViewRepository(db),
		flagRepo:       repository.NewFlagRepository(db),
		eventRepo:      repository.NewEventRepository(db),
	}

	server.userService = service.NewUserService(db, server.userRepo, server.followRepo, server.postRepo, server.flagRepo, server.eventRepo)
	server.followService = service.NewFollowService(server.followRepo, server.userRepo, server.flagRepo, server.eventRepo)
	server.postService = service.NewPostService(server.postRepo, server.userRepo, server.followRepo, server.commentRepo, server.viewRepo, server.flagRepo, server.eventRepo, cfg.MediaUploadBaseURL)
	server.commentService = service.NewCommentService(server.commentRepo, server.postRepo, server.followRepo, server.flagRepo, server.eventRepo)
	server.likeService = service.NewLikeService(server.likeRepo, server.postRepo, server.followRepo, server.flagRepo, server.eventRepo)
	server.cardService = service.NewCardService(server.cardRepo)
	server.datingService = service.NewDatingService(server.userRepo)

	server.notifier = notifications.NewNotifier(redisClient)
	server.hub = notifications.NewHub(redisClient)
	server.dispatcher = notifications.NewDispatcher(server.hub, server.notifier)
	server.projector = projector.New(db, server.eventRepo, server.cardRepo, server.dispatcher, cfg.ProjectorInterval())

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
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
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
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
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Glimpse Backend Metrics Dashboard",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", s.Register)
	auth.Post("/login", s.Login)

	// Media pipeline callback; authenticated by shared secret, not a user JWT.
	api.Post("/internal/media/callback", s.CompleteMediaUpload)

	// Everything below requires a logged-in user.
	protected := api.Group("", middleware.AuthRequired)

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Get("/search", s.SearchUsers)
	users.Patch("/me/details", s.ActiveRequired(), s.UpdateDetails)
	users.Put("/me/privacy", s.ActiveRequired(), s.SetPrivacyStatus)
	users.Put("/me/mental-health", s.ActiveRequired(), s.SetMentalHealthSettings)
	users.Put("/me/view-counts-hidden", s.ActiveRequired(), s.SetViewCountsHidden)
	users.Put("/me/language", s.ActiveRequired(), s.SetLanguageCode)
	users.Put("/me/theme", s.ActiveRequired(), s.SetThemeCode)
	users.Put("/me/eula", s.ActiveRequired(), s.SetAcceptedEULAVersion)
	users.Put("/me/apns-token", s.ActiveRequired(), s.SetAPNSToken)
	users.Put("/me/match/age-range", s.ActiveRequired(), s.SetMatchAgeRange)
	users.Put("/me/match/height-range", s.ActiveRequired(), s.SetMatchHeightRange)
	users.Put("/me/match/genders", s.ActiveRequired(), s.SetMatchGenders)
	users.Put("/me/location", s.ActiveRequired(), s.SetLocation)
	users.Post("/me/subscription-bonus", s.ActiveRequired(), s.GrantSubscriptionBonus)
	users.Post("/me/disable", s.DisableAccount)
	users.Post("/me/reset", s.ActiveRequired(), s.ResetAccount)
	users.Delete("/me", s.DeleteAccount)

	// Specific /:id/:resource routes BEFORE generic /:id route
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id/stories", s.GetUserStories)
	users.Get("/:id/followed", s.GetFollowed)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/match-status", s.GetMatchStatus)
	users.Post("/:id/block", s.ActiveRequired(), s.BlockUser)
	users.Delete("/:id/block", s.ActiveRequired(), s.UnblockUser)
	users.Get("/:id", s.GetUserProfile)

	// Follow routes
	follows := protected.Group("/follows", s.ActiveRequired())
	follows.Post("/:id", s.FollowUser)
	follows.Delete("/:id", s.UnfollowUser)
	follows.Post("/:id/accept", s.AcceptFollower)
	follows.Post("/:id/deny", s.DenyFollower)

	// Post routes
	posts := protected.Group("/posts")
	posts.Post("/", s.ActiveRequired(), s.CreatePost)
	posts.Get("/feed", s.GetFeed)
	posts.Get("/stories/owners", s.GetFollowedStoryOwners)
	posts.Get("/liked", s.GetLikedPosts)
	posts.Post("/views", s.ReportViews)
	// Specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/archive", s.ActiveRequired(), s.ArchivePost)
	posts.Put("/:id/expiry", s.ActiveRequired(), s.SetPostExpiry)
	posts.Post("/:id/flag", s.ActiveRequired(), s.FlagPost)
	posts.Get("/:id/viewers", s.GetPostViewers)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.ActiveRequired(), s.CreateComment)
	posts.Post("/:id/like", s.ActiveRequired(), s.LikePost)
	posts.Delete("/:id/like", s.ActiveRequired(), s.DislikePost)
	posts.Get("/:id/likers", s.GetOnymousLikers)
	posts.Patch("/:id", s.ActiveRequired(), s.EditPost)
	posts.Get("/:id", s.GetPost)

	// Comment routes addressed by comment ID
	comments := protected.Group("/comments", s.ActiveRequired())
	comments.Delete("/:id", s.DeleteComment)
	comments.Post("/:id/flag", s.FlagComment)

	// Card routes
	cards := protected.Group("/cards")
	cards.Get("/", s.GetCards)
	cards.Get("/count", s.GetCardCount)
	cards.Delete("/:id", s.DeleteCard)

	// Dating routes
	dating := protected.Group("/dating", s.ActiveRequired())
	dating.Put("/status", s.SetDatingStatus)

	// Websocket endpoint for card delivery
	ws := api.Group("/ws", middleware.AuthRequired)
	ws.Get("/cards", s.WebsocketHandler())
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
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Glimpse API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	s.hub.SetPresenceCallbacks(
		func(userID uint) {
			observability.GlobalLogger.Info("user online", slog.Uint64("user_id", uint64(userID)))
		},
		func(userID uint) {
			observability.GlobalLogger.Info("user offline", slog.Uint64("user_id", uint64(userID)))
		},
	)

	if s.notifier.Ready() {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
		}
	}
	s.projector.Start(s.shutdownCtx)

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

	// Drain the projector before closing the DB so applied events are marked.
	if s.projector != nil {
		s.projector.Stop()
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", s.hub.Name(), err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
