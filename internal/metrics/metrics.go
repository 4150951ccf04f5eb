package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tamasya_bookings_created_total",
		Help: "Number of bookings successfully created.",
	})

	BookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tamasya_bookings_rejected_total",
		Help: "Number of booking requests rejected by business rules.",
	}, []string{"code"})

	BookingsCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tamasya_bookings_cancelled_total",
		Help: "Number of bookings cancelled.",
	}, []string{"initiator"})

	PaymentsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tamasya_payments_completed_total",
		Help: "Number of payments marked completed.",
	})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tamasya_webhook_events_total",
		Help: "Payment-processor webhook events by type and outcome.",
	}, []string{"type", "outcome"})
)
