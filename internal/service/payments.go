package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"tamasya/internal/errors"
	"tamasya/internal/metrics"
	"tamasya/internal/models"
)

const (
	webhookOutcomeProcessed = "processed"
	webhookOutcomeDuplicate = "duplicate"
	webhookOutcomeIgnored   = "ignored"
	webhookOutcomeError     = "error"
)

// BookingCanceller is the slice of the booking service the payment side needs
// for refund cascades.
type BookingCanceller interface {
	CancelInternal(ctx context.Context, bookingID int64, reason string) error
}

// PaymentService reconciles the external card processor's lifecycle with the
// booking state machine. Bookings are priced in whole Rupiah; the processor
// charges in its own currency, converted at a fixed configured rate.
type PaymentService struct {
	payments  PaymentStore
	bookings  BookingStore
	canceller BookingCanceller
	processor PaymentProcessor
	publisher EventPublisher

	processorCurrency string
	// exchangeRate is Rupiah per one unit of the processor currency.
	exchangeRate float64
	now          func() time.Time
}

func NewPaymentService(payments PaymentStore, bookings BookingStore, canceller BookingCanceller, processor PaymentProcessor, publisher EventPublisher, processorCurrency string, exchangeRate float64) *PaymentService {
	return &PaymentService{
		payments:          payments,
		bookings:          bookings,
		canceller:         canceller,
		processor:         processor,
		publisher:         publisher,
		processorCurrency: processorCurrency,
		exchangeRate:      exchangeRate,
		now:               time.Now,
	}
}

// CreateIntent opens a payment intent with the processor for a pending
// booking and records the attempt. On processor failure nothing is persisted.
func (s *PaymentService) CreateIntent(ctx context.Context, reference string, req *models.CreatePaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, errors.ErrNotFound
	}
	if booking.Status != models.BookingStatusPending {
		return nil, errors.Businessf(errors.CodeInvalidTransition,
			"payment cannot be started for a booking in status %q", booking.Status)
	}

	// The exchange rate only covers the configured settlement currency, so
	// any other requested currency would be charged at the wrong amount.
	currency := s.processorCurrency
	if req != nil && req.Currency != "" && req.Currency != s.processorCurrency {
		return nil, errors.Businessf(errors.CodeUnsupportedCurrency,
			"payments are settled in %q, not %q", s.processorCurrency, req.Currency)
	}
	processorAmount := s.toProcessorAmount(booking.TotalAmount)

	intent, err := s.processor.CreateIntent(processorAmount, currency, map[string]string{
		"booking_id":        strconv.FormatInt(booking.ID, 10),
		"booking_reference": booking.Reference,
	})
	if err != nil {
		return nil, errors.Integration("create payment intent", err)
	}

	payment := &models.Payment{
		BookingID:         booking.ID,
		IntentID:          intent.ID,
		Amount:            booking.TotalAmount,
		Currency:          booking.Currency,
		ProcessorAmount:   processorAmount,
		ProcessorCurrency: currency,
		Status:            models.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	slog.Info("Payment intent created",
		"booking_id", booking.ID,
		"intent_id", intent.ID,
		"processor_amount", processorAmount,
		"processor_currency", currency)

	return &models.PaymentIntentResponse{
		IntentID:          intent.ID,
		ClientSecret:      intent.ClientSecret,
		ProcessorAmount:   processorAmount,
		ProcessorCurrency: currency,
	}, nil
}

// ConfirmPayment re-verifies an intent with the processor and, if it
// succeeded, completes the payment and confirms the booking. Safe to call
// repeatedly and concurrently with the webhook path.
func (s *PaymentService) ConfirmPayment(ctx context.Context, req *models.ConfirmPaymentRequest) error {
	payment, err := s.payments.GetByIntentID(ctx, req.IntentID)
	if err != nil {
		return fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return errors.ErrNotFound
	}

	intent, err := s.processor.GetIntent(req.IntentID)
	if err != nil {
		return errors.Integration("verify payment intent", err)
	}
	if !intent.Succeeded() {
		return errors.Businessf(errors.CodePaymentNotSucceeded,
			"payment intent is in status %q, not succeeded", intent.Status)
	}

	_, err = s.completePayment(ctx, payment, nil)
	return err
}

// HandleWebhookEvent processes one processor event. Unknown event types are
// acknowledged without error; failures on recognized types propagate so the
// processor retries delivery.
func (s *PaymentService) HandleWebhookEvent(ctx context.Context, event *models.WebhookEvent) error {
	switch event.Type {
	case models.WebhookPaymentSucceeded:
		return s.handlePaymentSucceeded(ctx, event)
	case models.WebhookPaymentFailed:
		return s.handlePaymentFailed(ctx, event)
	case models.WebhookChargeRefunded:
		return s.handleChargeRefunded(ctx, event)
	case models.WebhookDisputeCreated:
		return s.handleDisputeCreated(ctx, event)
	default:
		slog.Info("Ignoring unrecognized webhook event", "event_id", event.ID, "type", event.Type)
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeIgnored).Inc()
		return nil
	}
}

func (s *PaymentService) handlePaymentSucceeded(ctx context.Context, event *models.WebhookEvent) error {
	var intent models.WebhookIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return fmt.Errorf("failed to decode intent payload: %w", err)
	}

	payment, err := s.payments.GetByIntentID(ctx, intent.ID)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return fmt.Errorf("no payment recorded for intent %s", intent.ID)
	}

	completed, err := s.completePayment(ctx, payment, nil)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return err
	}
	if !completed {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeDuplicate).Inc()
		return nil
	}
	metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeProcessed).Inc()
	return nil
}

// completePayment flips the payment to completed exactly once per intent and
// confirms the booking on the winning flip. The duplicate path is a no-op.
func (s *PaymentService) completePayment(ctx context.Context, payment *models.Payment, chargeID *string) (bool, error) {
	at := s.now()
	updated, err := s.payments.MarkCompleted(ctx, payment.IntentID, chargeID, at)
	if err != nil {
		return false, fmt.Errorf("failed to complete payment: %w", err)
	}
	if !updated {
		slog.Info("Payment already completed, skipping", "intent_id", payment.IntentID)
		return false, nil
	}

	confirmed, err := s.bookings.MarkConfirmed(ctx, payment.BookingID, at)
	if err != nil {
		return false, fmt.Errorf("failed to confirm booking: %w", err)
	}
	if !confirmed {
		// Payment landed on a booking that already left pending (e.g. the
		// customer cancelled mid-checkout). The money is recorded; resolution
		// is a manual refund.
		slog.Warn("Payment completed for non-pending booking",
			"booking_id", payment.BookingID,
			"intent_id", payment.IntentID)
	}

	metrics.PaymentsCompleted.Inc()
	slog.Info("Payment completed",
		"booking_id", payment.BookingID,
		"intent_id", payment.IntentID,
		"amount", payment.Amount)

	s.publish(models.EventPaymentCompleted, models.PaymentCompletedEvent{
		BookingID: payment.BookingID,
		IntentID:  payment.IntentID,
		Amount:    payment.Amount,
		Timestamp: at,
	})
	if confirmed {
		booking, err := s.bookings.GetByID(ctx, payment.BookingID)
		if err == nil && booking != nil {
			s.publish(models.EventBookingConfirmed, models.BookingConfirmedEvent{
				BookingID: booking.ID,
				Reference: booking.Reference,
				Timestamp: at,
			})
		}
	}
	return true, nil
}

func (s *PaymentService) handlePaymentFailed(ctx context.Context, event *models.WebhookEvent) error {
	var intent models.WebhookIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return fmt.Errorf("failed to decode intent payload: %w", err)
	}

	reason := intent.LastPaymentError.Message
	if reason == "" {
		reason = "payment failed"
	}

	updated, err := s.payments.MarkFailed(ctx, intent.ID, reason)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}
	if !updated {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeDuplicate).Inc()
		return nil
	}

	payment, err := s.payments.GetByIntentID(ctx, intent.ID)
	if err != nil || payment == nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return fmt.Errorf("failed to reload payment %s: %w", intent.ID, err)
	}

	// The booking stays pending: a failed attempt is retryable.
	slog.Info("Payment failed",
		"booking_id", payment.BookingID,
		"intent_id", intent.ID,
		"reason", reason)

	s.publish(models.EventPaymentFailed, models.PaymentFailedEvent{
		BookingID: payment.BookingID,
		IntentID:  intent.ID,
		Reason:    reason,
		Timestamp: s.now(),
	})
	metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeProcessed).Inc()
	return nil
}

func (s *PaymentService) handleChargeRefunded(ctx context.Context, event *models.WebhookEvent) error {
	var charge models.WebhookCharge
	if err := json.Unmarshal(event.Data.Object, &charge); err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return fmt.Errorf("failed to decode charge payload: %w", err)
	}

	payment, err := s.payments.GetByIntentID(ctx, charge.PaymentIntent)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return fmt.Errorf("no payment recorded for intent %s", charge.PaymentIntent)
	}

	if payment.Status == models.PaymentStatusRefunded {
		// Redelivery. The refund is already recorded, but the delivery that
		// recorded it may have failed before the booking cascade ran, so the
		// cascade must complete before this event is acknowledged.
		if err := s.cascadeRefund(ctx, payment.BookingID); err != nil {
			metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
			return err
		}
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeDuplicate).Inc()
		return nil
	}

	refundAmount := s.fromProcessorAmount(payment, charge.AmountRefunded)
	at := s.now()
	if err := s.payments.ApplyRefund(ctx, payment.ID, nil, refundAmount, models.PaymentStatusRefunded, &at); err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return fmt.Errorf("failed to apply refund: %w", err)
	}

	slog.Info("Payment refunded by processor",
		"booking_id", payment.BookingID,
		"intent_id", payment.IntentID,
		"refund_amount", refundAmount)

	if err := s.cascadeRefund(ctx, payment.BookingID); err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return err
	}

	s.publish(models.EventPaymentRefunded, models.PaymentRefundedEvent{
		BookingID:    payment.BookingID,
		IntentID:     payment.IntentID,
		RefundAmount: refundAmount,
		Timestamp:    at,
	})
	metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeProcessed).Inc()
	return nil
}

// cascadeRefund moves the booking out of its active state after a
// processor-side refund. Cancellable bookings are cancelled (releasing their
// seats); completed bookings move to refunded since the slot was consumed.
func (s *PaymentService) cascadeRefund(ctx context.Context, bookingID int64) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return fmt.Errorf("booking %d not found for refund cascade", bookingID)
	}

	switch {
	case booking.CanBeCancelled():
		if err := s.canceller.CancelInternal(ctx, booking.ID, "Payment refunded"); err != nil {
			return fmt.Errorf("failed to cancel refunded booking: %w", err)
		}
	case booking.Status == models.BookingStatusCompleted:
		if _, err := s.bookings.MarkRefunded(ctx, booking.ID); err != nil {
			return fmt.Errorf("failed to mark booking refunded: %w", err)
		}
	default:
		slog.Info("Refund cascade skipped for terminal booking",
			"booking_id", booking.ID, "status", booking.Status)
	}
	return nil
}

func (s *PaymentService) handleDisputeCreated(_ context.Context, event *models.WebhookEvent) error {
	var dispute models.WebhookDispute
	if err := json.Unmarshal(event.Data.Object, &dispute); err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeError).Inc()
		return fmt.Errorf("failed to decode dispute payload: %w", err)
	}

	// Logged for escalation only; disputes never mutate booking state here.
	slog.Warn("Payment dispute created",
		"dispute_id", dispute.ID,
		"intent_id", dispute.PaymentIntent,
		"reason", dispute.Reason,
		"amount", dispute.Amount)
	metrics.WebhookEvents.WithLabelValues(event.Type, webhookOutcomeProcessed).Inc()
	return nil
}

// ProcessRefund refunds a completed payment through the processor, fully when
// no amount is given. It never cancels the booking; only the processor-driven
// webhook path does that.
func (s *PaymentService) ProcessRefund(ctx context.Context, reference string, req *models.ProcessRefundRequest) (*models.Payment, error) {
	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, errors.ErrNotFound
	}

	payment, err := s.payments.GetLatestByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, errors.ErrNotFound
	}
	if payment.Status != models.PaymentStatusCompleted {
		return nil, errors.Businessf(errors.CodeRefundNotAllowed,
			"payment in status %q cannot be refunded", payment.Status)
	}

	remaining := payment.Amount - payment.RefundAmount
	amount := remaining
	if req != nil && req.Amount != nil {
		amount = *req.Amount
	}
	if amount <= 0 || amount > remaining {
		return nil, errors.Businessf(errors.CodeRefundTooLarge,
			"refund amount %d exceeds the refundable remainder %d", amount, remaining)
	}

	processorAmount := s.toProcessorRefund(payment, amount)
	result, err := s.processor.Refund(payment.IntentID, processorAmount)
	if err != nil {
		return nil, errors.Integration("refund payment", err)
	}

	cumulative := payment.RefundAmount + amount
	status := models.PaymentStatusCompleted
	var refundedAt *time.Time
	if cumulative >= payment.Amount {
		status = models.PaymentStatusRefunded
		at := s.now()
		refundedAt = &at
	}

	if err := s.payments.ApplyRefund(ctx, payment.ID, &result.ID, cumulative, status, refundedAt); err != nil {
		return nil, fmt.Errorf("failed to apply refund: %w", err)
	}

	payment.RefundID = &result.ID
	payment.RefundAmount = cumulative
	payment.Status = status
	payment.RefundedAt = refundedAt

	slog.Info("Refund processed",
		"booking_id", booking.ID,
		"intent_id", payment.IntentID,
		"refund_amount", amount,
		"cumulative", cumulative,
		"status", status)

	s.publish(models.EventPaymentRefunded, models.PaymentRefundedEvent{
		BookingID:    booking.ID,
		IntentID:     payment.IntentID,
		RefundAmount: cumulative,
		Timestamp:    s.now(),
	})

	return payment, nil
}

// toProcessorAmount converts whole Rupiah into minor units of the processor
// currency at the fixed configured rate.
func (s *PaymentService) toProcessorAmount(amount int64) int64 {
	return int64(math.Floor(float64(amount)/s.exchangeRate*100 + 0.5))
}

// fromProcessorAmount maps a processor-side amount back into Rupiah using the
// ratio recorded on the payment, so rate drift cannot skew the bookkeeping.
func (s *PaymentService) fromProcessorAmount(payment *models.Payment, processorAmount int64) int64 {
	if payment.ProcessorAmount == 0 {
		return 0
	}
	v := float64(processorAmount) / float64(payment.ProcessorAmount) * float64(payment.Amount)
	refund := int64(math.Floor(v + 0.5))
	if refund > payment.Amount {
		refund = payment.Amount
	}
	return refund
}

func (s *PaymentService) toProcessorRefund(payment *models.Payment, amount int64) int64 {
	if payment.Amount == 0 {
		return 0
	}
	v := float64(amount) / float64(payment.Amount) * float64(payment.ProcessorAmount)
	return int64(math.Floor(v + 0.5))
}

func (s *PaymentService) publish(subject string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(subject, data); err != nil {
		slog.Error("Failed to publish event", "subject", subject, "error", err)
	}
}
