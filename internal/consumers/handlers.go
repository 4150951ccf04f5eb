package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/stan.go"

	"tamasya/internal/cache"
	"tamasya/internal/models"
	"tamasya/internal/repository"
	"tamasya/internal/search"
)

type Handlers struct {
	repos  *repository.Repositories
	valkey *cache.ValkeyClient
	es     *search.ElasticsearchClient
}

func NewHandlers(repos *repository.Repositories, valkey *cache.ValkeyClient, es *search.ElasticsearchClient) *Handlers {
	return &Handlers{
		repos:  repos,
		valkey: valkey,
		es:     es,
	}
}

func (h *Handlers) HandleBookingCreated(m *stan.Msg) {
	var event models.BookingCreatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking created event", "error", err)
		return
	}

	slog.Info("Processing booking created event",
		"booking_id", event.BookingID,
		"reference", event.Reference,
		"activity_id", event.ActivityID,
		"total_amount", event.TotalAmount)

	// Notification delivery (confirmation emails) would hang off this
	// subject; for now the event trail itself is the deliverable.

	m.Ack()
}

func (h *Handlers) HandleBookingConfirmed(m *stan.Msg) {
	var event models.BookingConfirmedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking confirmed event", "error", err)
		return
	}

	slog.Info("Processing booking confirmed event",
		"booking_id", event.BookingID,
		"reference", event.Reference)

	m.Ack()
}

func (h *Handlers) HandleBookingCancelled(m *stan.Msg) {
	var event models.BookingCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking cancelled event", "error", err)
		return
	}

	slog.Info("Processing booking cancelled event",
		"booking_id", event.BookingID,
		"reference", event.Reference,
		"reason", event.Reason,
		"initiated_by_customer", event.InitiatedByCustomer)

	m.Ack()
}

func (h *Handlers) HandlePaymentCompleted(m *stan.Msg) {
	var event models.PaymentCompletedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment completed event", "error", err)
		return
	}

	slog.Info("Processing payment completed event",
		"booking_id", event.BookingID,
		"intent_id", event.IntentID,
		"amount", event.Amount)

	m.Ack()
}

func (h *Handlers) HandlePaymentFailed(m *stan.Msg) {
	var event models.PaymentFailedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment failed event", "error", err)
		return
	}

	slog.Warn("Processing payment failed event",
		"booking_id", event.BookingID,
		"intent_id", event.IntentID,
		"reason", event.Reason)

	m.Ack()
}

func (h *Handlers) HandlePaymentRefunded(m *stan.Msg) {
	var event models.PaymentRefundedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment refunded event", "error", err)
		return
	}

	slog.Info("Processing payment refunded event",
		"booking_id", event.BookingID,
		"intent_id", event.IntentID,
		"refund_amount", event.RefundAmount)

	m.Ack()
}

// HandleReviewCreated refreshes the catalog copy of the activity so the new
// rating shows up in search results without waiting for a full reindex.
func (h *Handlers) HandleReviewCreated(m *stan.Msg) {
	var event models.ReviewCreatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal review created event", "error", err)
		return
	}

	slog.Info("Processing review created event",
		"review_id", event.ReviewID,
		"activity_id", event.ActivityID,
		"rating", event.Rating)

	ctx := context.Background()

	activity, err := h.repos.Activities.GetByID(ctx, event.ActivityID)
	if err != nil {
		slog.Error("Failed to load activity for reindex", "activity_id", event.ActivityID, "error", err)
		return
	}
	if activity == nil {
		slog.Warn("Activity for review no longer exists", "activity_id", event.ActivityID)
		m.Ack()
		return
	}

	if err := h.valkey.InvalidateActivity(ctx, activity.ID); err != nil {
		slog.Error("Failed to invalidate activity cache", "activity_id", activity.ID, "error", err)
	}

	if err := h.es.IndexActivity(ctx, activity); err != nil {
		slog.Error("Failed to reindex activity", "activity_id", activity.ID, "error", err)
		return
	}

	m.Ack()
}
