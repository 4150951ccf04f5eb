package service

import (
	"tamasya/internal/cache"
	"tamasya/internal/external"
	"tamasya/internal/messaging"
	"tamasya/internal/repository"
	"tamasya/internal/search"
)

type Services struct {
	Activities *ActivityService
	Bookings   *BookingService
	Payments   *PaymentService
	Reviews    *ReviewService
}

// Config carries the behavioural knobs the services need beyond their
// collaborators.
type Config struct {
	ReferencePrefix   string
	ProcessorCurrency string
	ExchangeRate      float64
}

func NewServices(repos *repository.Repositories, natsClient *messaging.NATSClient, stripeClient *external.StripeClient, valkeyClient *cache.ValkeyClient, esClient *search.ElasticsearchClient, cfg Config) *Services {
	refs := NewReferenceGenerator(cfg.ReferencePrefix, repos.Bookings)
	bookingService := NewBookingService(repos.Activities, repos.Slots, repos.Bookings, valkeyClient, refs, natsClient)
	paymentService := NewPaymentService(repos.Payments, repos.Bookings, bookingService, stripeClient, natsClient, cfg.ProcessorCurrency, cfg.ExchangeRate)
	reviewService := NewReviewService(repos.Reviews, repos.Bookings, repos.Activities, valkeyClient, natsClient)
	activityService := NewActivityService(repos.Activities, repos.Slots, valkeyClient, esClient)

	return &Services{
		Activities: activityService,
		Bookings:   bookingService,
		Payments:   paymentService,
		Reviews:    reviewService,
	}
}
