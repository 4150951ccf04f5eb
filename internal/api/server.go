package api

import (
	"net/http"

	"tamasya/internal/cache"
	"tamasya/internal/config"
	"tamasya/internal/database"
	"tamasya/internal/external"
	"tamasya/internal/handlers"
	"tamasya/internal/logger"
	"tamasya/internal/messaging"
	"tamasya/internal/middleware"
	"tamasya/internal/repository"
	"tamasya/internal/search"
	"tamasya/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API server with all its backing connections.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories
}

// NewServer connects to the backing services and wires up the API.
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}

	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		logger.Fatal("Failed to connect to Valkey", "error", err)
	}

	esClient, err := search.NewElasticsearchClient(cfg.Search)
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", "error", err)
	}

	stripeClient, err := external.NewStripeClient(cfg.Stripe)
	if err != nil {
		logger.Fatal("Failed to configure payment processor", "error", err)
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, natsClient, stripeClient, valkeyClient, esClient, service.Config{
		ReferencePrefix:   cfg.ReferencePrefix,
		ProcessorCurrency: cfg.ProcessorCurrency,
		ExchangeRate:      cfg.ExchangeRate,
	})

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api")
	{
		activities := api.Group("/activities")
		{
			activities.GET("", h.ListActivities)
			activities.GET("/:id", h.GetActivity)
			activities.GET("/:id/slots", h.ListActivitySlots)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.POST("/quote", h.QuoteBooking)
			bookings.GET("/:reference", h.GetBooking)
			bookings.PATCH("/:reference/confirm", h.ConfirmBooking)
			bookings.PATCH("/:reference/cancel", h.CancelBooking)
			bookings.POST("/:reference/payment-intent", h.CreatePaymentIntent)
			bookings.POST("/:reference/refund", h.ProcessRefund)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/confirm", h.ConfirmPayment)
			payments.POST("/webhook", h.HandleWebhook)
		}

		reviews := api.Group("/reviews")
		{
			reviews.POST("", h.CreateReview)
			reviews.PATCH("/:id/response", h.RespondToReview)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	check := s.db.Health(c.Request.Context())
	status := http.StatusOK
	if check.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"service":  "tamasya-api",
		"status":   check.Status,
		"database": check,
	})
}

// GetRouter exposes the router for the HTTP server and tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes the backing connections.
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logger.Get().Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			logger.Get().Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
