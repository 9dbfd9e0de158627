// Package server contains HTTP and WebSocket handlers for the application's
// API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	"ripple/internal/broker"
	"ripple/internal/config"
	"ripple/internal/engagement"
	"ripple/internal/featureflags"
	"ripple/internal/middleware"
	"ripple/internal/notifications"
	"ripple/internal/repository"
	"ripple/internal/service"
	"ripple/internal/social"
	"ripple/internal/store"
	"ripple/internal/vibes"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	store          store.Store
	broker         *broker.Broker
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo      repository.UserRepository
	postRepo      repository.PostRepository
	commentRepo   repository.CommentRepository
	productRepo   repository.ProductRepository
	communityRepo repository.CommunityRepository
	vibeRepo      repository.VibeRepository
	notifRepo     repository.NotificationRepository
	chatRepo      repository.ChatRepository

	fanout     *notifications.Fanout
	flags      *featureflags.Manager
	hub        *notifications.Hub
	engagement *engagement.Service
	graph      *social.Graph
	vibes      *vibes.Tracker
	chats      *service.ChatService
}

// NewServer creates a server, establishing the store backend named by cfg.
func NewServer(cfg *config.Config) (*Server, error) {
	st, err := OpenStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("store initialization failed: %w", err)
	}
	return NewServerWithDeps(cfg, st), nil
}

// NewServerWithDeps creates a Server over an already-initialized store.
// Use this in tests or when a bootstrap layer establishes the backend.
func NewServerWithDeps(cfg *config.Config, st store.Store) *Server {
	b := broker.New(st)

	userRepo := repository.NewUserRepository(st)
	postRepo := repository.NewPostRepository(st, b)
	commentRepo := repository.NewCommentRepository(st, b)
	productRepo := repository.NewProductRepository(st, b)
	communityRepo := repository.NewCommunityRepository(st, b)
	vibeRepo := repository.NewVibeRepository(st, b)
	notifRepo := repository.NewNotificationRepository(st, b)
	chatRepo := repository.NewChatRepository(st, b)

	fanout := notifications.NewFanout(notifRepo, userRepo)

	s := &Server{
		config:         cfg,
		store:          st,
		broker:         b,
		promMiddleware: fiberprometheus.New("ripple-api"),
		userRepo:       userRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		productRepo:    productRepo,
		communityRepo:  communityRepo,
		vibeRepo:       vibeRepo,
		notifRepo:      notifRepo,
		chatRepo:       chatRepo,
		fanout:         fanout,
		flags:          featureflags.NewManager(cfg.FeatureFlags),
		hub:            notifications.NewHub(),
		engagement:     engagement.New(st, postRepo, commentRepo, productRepo, fanout),
		graph:          social.NewGraph(st, b, fanout),
		vibes:          vibes.NewTracker(vibeRepo, time.Now),
		chats:          service.NewChatService(chatRepo, userRepo),
	}

	middleware.InitMiddleware(cfg)
	return s
}

// OpenStore builds the store adapter named by cfg.StoreBackend. The
// server and the CLI tools share this so they always agree on the
// backing data.
func OpenStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		return store.NewRedisStore(redis.NewClient(opts)), nil
	case "gorm":
		var dialector gorm.Dialector
		switch cfg.DBDriver {
		case "postgres":
			dialector = postgres.Open(cfg.DBDSN)
		default:
			dialector = sqlite.Open(cfg.DBDSN)
		}
		db, err := gorm.Open(dialector, &gorm.Config{})
		if err != nil {
			return nil, err
		}
		return store.NewGormStore(db)
	default:
		return store.NewMemoryStore(), nil
	}
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// CORS runs before anything that can short-circuit so browser clients
	// still receive CORS headers on error responses.
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
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	protected := api.Group("", middleware.AuthRequired)

	protected.Get("/flags", s.GetFeatureFlags)

	users := protected.Group("/users")
	users.Put("/me", s.UpsertMyProfile)
	users.Get("/:id/counts", s.GetFollowCounts)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Post("/:id/follow", s.FollowUser)
	users.Delete("/:id/follow", s.UnfollowUser)
	users.Get("/:id", s.GetUser)

	posts := protected.Group("/posts")
	posts.Post("/", s.CreatePost)
	posts.Get("/", s.GetPosts)
	// Specific /:id/:resource routes before the generic /:id route.
	posts.Post("/:id/like", s.TogglePostLike)
	posts.Post("/:id/view", s.ViewPost)
	posts.Post("/:id/share", s.SharePost)
	posts.Post("/:id/repost", s.Repost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.CreateComment)
	posts.Post("/:id/comments/:commentId/like", s.ToggleCommentLike)
	posts.Post("/:id/comments/:commentId/replies", s.CreateReply)
	posts.Get("/:id", s.GetPost)

	products := protected.Group("/products")
	products.Post("/", s.CreateProduct)
	products.Get("/", s.GetProducts)
	products.Post("/:id/like", s.ToggleProductLike)
	products.Put("/:id/status", s.SetProductStatus)
	products.Get("/:id", s.GetProduct)

	communities := protected.Group("/communities")
	communities.Post("/", s.CreateCommunity)
	communities.Get("/", s.GetCommunities)
	communities.Post("/:id/join", s.JoinCommunity)
	communities.Delete("/:id/join", s.LeaveCommunity)
	communities.Get("/:id", s.GetCommunity)

	vibeRoutes := protected.Group("/vibes")
	vibeRoutes.Post("/", s.CreateVibe)
	vibeRoutes.Get("/rails", s.GetVibeRails)
	vibeRoutes.Post("/:id/seen", s.MarkVibeSeen)

	notifs := protected.Group("/notifications")
	notifs.Get("/", s.GetNotifications)
	notifs.Post("/read-all", s.MarkAllNotificationsRead)
	notifs.Post("/:id/read", s.MarkNotificationRead)

	chatRoutes := protected.Group("/chats")
	chatRoutes.Post("/", s.CreateChat)
	chatRoutes.Get("/", s.GetChats)
	chatRoutes.Get("/:id/messages", s.GetChatMessages)
	chatRoutes.Post("/:id/messages", s.SendChatMessage)
	chatRoutes.Post("/:id/read", s.MarkChatRead)
	chatRoutes.Get("/:id", s.GetChat)

	// Live subscriptions. Token arrives as a query parameter because
	// browser WebSocket clients cannot set headers.
	ws := api.Group("/ws", middleware.WebSocketAuthRequired)
	ws.Get("/", s.SubscriptionHandler())
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests by exercising the store.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if _, err := s.store.List(ctx, "health"); err != nil {
		storeStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if storeStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"store": storeStatus,
		},
		"time": time.Now(),
	})
}

// Shutdown closes websocket connections and the store.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.hub.Shutdown(ctx); err != nil {
		return err
	}
	return s.store.Close()
}
