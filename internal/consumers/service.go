package consumers

import (
	"context"
	"log/slog"

	"tamasya/internal/cache"
	"tamasya/internal/config"
	"tamasya/internal/database"
	"tamasya/internal/external"
	"tamasya/internal/messaging"
	"tamasya/internal/repository"
	"tamasya/internal/search"
	"tamasya/internal/service"
)

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	repos    *repository.Repositories
	services *service.Services
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		return nil, err
	}

	esClient, err := search.NewElasticsearchClient(cfg.Search)
	if err != nil {
		return nil, err
	}

	stripeClient, err := external.NewStripeClient(cfg.Stripe)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, natsClient, stripeClient, valkeyClient, esClient, service.Config{
		ReferencePrefix:   cfg.ReferencePrefix,
		ProcessorCurrency: cfg.ProcessorCurrency,
		ExchangeRate:      cfg.ExchangeRate,
	})

	handlers := NewHandlers(repos, valkeyClient, esClient)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		repos:    repos,
		services: services,
		handlers: handlers,
	}, nil
}

// Services exposes the service layer for the background jobs that run in
// the same process as the consumers.
func (cs *ConsumerService) Services() *service.Services {
	return cs.services
}

func (cs *ConsumerService) Repositories() *repository.Repositories {
	return cs.repos
}

func (cs *ConsumerService) NATS() *messaging.NATSClient {
	return cs.nats
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	if _, err := cs.nats.SubscribeQueue("booking.created", "consumers", cs.handlers.HandleBookingCreated); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue("booking.confirmed", "consumers", cs.handlers.HandleBookingConfirmed); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue("booking.cancelled", "consumers", cs.handlers.HandleBookingCancelled); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue("payment.completed", "consumers", cs.handlers.HandlePaymentCompleted); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue("payment.failed", "consumers", cs.handlers.HandlePaymentFailed); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue("payment.refunded", "consumers", cs.handlers.HandlePaymentRefunded); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue("review.created", "consumers", cs.handlers.HandleReviewCreated); err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.valkey != nil {
		if err := cs.valkey.Close(); err != nil {
			slog.Error("Error closing Valkey connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
