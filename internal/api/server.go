package api

import (
	"context"
	"log/slog"
	"net/http"

	"kosgate/internal/cache"
	"kosgate/internal/config"
	"kosgate/internal/handlers"
	"kosgate/internal/messaging"
	"kosgate/internal/metrics"
	"kosgate/internal/middleware"
	"kosgate/internal/service"
	"kosgate/internal/upstream"

	"github.com/gin-gonic/gin"
)

// Server is the HTTP gateway in front of the kos backend.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	cache    *cache.Client
	nats     *messaging.Client
	bookings *service.BookingService
}

// NewServer wires the upstream client, cache, messaging and routes.
// Redis and NATS failures are not fatal; the gateway degrades to
// uncached single-instance operation.
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	upstreamClient := upstream.NewClient(cfg.Upstream)

	var cacheClient *cache.Client
	if cfg.RedisEnabled {
		var err error
		cacheClient, err = cache.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, running without cache", "error", err)
			cacheClient = nil
		}
	}

	var natsClient *messaging.Client
	if cfg.NATSEnabled {
		var err error
		natsClient, err = messaging.NewClient(cfg.NATS)
		if err != nil {
			slog.Warn("nats unavailable, running without events", "error", err)
			natsClient = nil
		}
	}

	bookings := service.NewBookingService(upstreamClient, cacheClient, natsClient)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigin))
	router.Use(metrics.Middleware())

	server := &Server{
		router:   router,
		config:   cfg,
		cache:    cacheClient,
		nats:     natsClient,
		bookings: bookings,
	}

	server.setupRoutes()
	server.subscribeInvalidations()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.bookings)

	api := s.router.Group("/api")
	api.Use(middleware.Session())
	{
		bookings := api.Group("/bookings")
		{
			bookings.GET("", h.ListBookings)
			bookings.POST("", h.CreateBooking)
			bookings.POST("/with-proof", h.CreateBookingWithProof)
			bookings.GET("/:id/extend/preview", h.PreviewExtension)
			bookings.POST("/:id/extend", h.ExtendBooking)
			bookings.POST("/:id/cancel", h.CancelBooking)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/:id/proof", h.UploadPaymentProof)
		}

		api.GET("/reminders", h.ListReminders)
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", metrics.Handler())
}

// subscribeInvalidations drops local cache entries when another gateway
// instance mutates a user's bookings.
func (s *Server) subscribeInvalidations() {
	if s.nats == nil {
		return
	}
	_, err := s.nats.SubscribeInvalidations(func(event messaging.InvalidationEvent) {
		s.bookings.DropCachedUser(context.Background(), event.UserID)
	})
	if err != nil {
		slog.Warn("failed to subscribe to cache invalidations", "error", err)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "kosgate",
		"version": "1.0.0",
	})
}

// Router exposes the engine for tests and the main package.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Cleanup closes cache and messaging connections.
func (s *Server) Cleanup() {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("error closing nats connection", "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Error("error closing redis connection", "error", err)
		}
	}
}
