package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tamasya/internal/errors"
	"tamasya/internal/models"
	"tamasya/internal/repository"
)

const testExchangeRate = 16000.0

func newPaymentEnv() (*repository.MemoryRepositories, *fakeProcessor, *fakePublisher, *BookingService, *PaymentService) {
	repos := repository.NewMemoryRepositories()
	publisher := &fakePublisher{}
	processor := newFakeProcessor()
	refs := NewReferenceGenerator("BK", repos.Bookings)
	bookingSvc := NewBookingService(repos.Activities, repos.Slots, repos.Bookings, nil, refs, publisher)
	paymentSvc := NewPaymentService(repos.Payments, repos.Bookings, bookingSvc, processor, publisher, "usd", testExchangeRate)
	return repos, processor, publisher, bookingSvc, paymentSvc
}

func createPendingBooking(t *testing.T, repos *repository.MemoryRepositories, svc *BookingService) *models.BookingResponse {
	t.Helper()
	seedActivity(t, repos)
	seedSlot(t, repos, 10)
	booking, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)
	return booking
}

func succeededEvent(intentID string) *models.WebhookEvent {
	event := &models.WebhookEvent{ID: "evt_1", Type: models.WebhookPaymentSucceeded}
	event.Data.Object = json.RawMessage(fmt.Sprintf(`{"id":%q,"status":"succeeded","amount":1772}`, intentID))
	return event
}

func refundedEvent(intentID string, amountRefunded int64) *models.WebhookEvent {
	event := &models.WebhookEvent{ID: "evt_3", Type: models.WebhookChargeRefunded}
	event.Data.Object = json.RawMessage(fmt.Sprintf(
		`{"id":"ch_1","payment_intent":%q,"amount":1772,"amount_refunded":%d}`,
		intentID, amountRefunded))
	return event
}

func TestCreateIntent(t *testing.T) {
	repos, _, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)

	resp, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.IntentID)
	assert.NotEmpty(t, resp.ClientSecret)
	assert.Equal(t, "usd", resp.ProcessorCurrency)
	// 283500 IDR at 16000 IDR/USD is $17.72, in cents.
	assert.Equal(t, int64(1772), resp.ProcessorAmount)

	payment, err := repos.Payments.GetByIntentID(context.Background(), resp.IntentID)
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, booking.ID, payment.BookingID)
	assert.Equal(t, int64(283500), payment.Amount)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
}

func TestCreateIntentProcessorFailureLeavesNoPayment(t *testing.T) {
	repos, processor, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	processor.createErr = fmt.Errorf("gateway timeout")

	_, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsIntegration(err))

	payment, err := repos.Payments.GetLatestByBookingID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Nil(t, payment)
}

func TestCreateIntentRejectedForConfirmedBooking(t *testing.T) {
	repos, _, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	_, err := bookingSvc.Confirm(context.Background(), booking.Reference)
	require.NoError(t, err)

	_, err = paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	be, ok := apperrors.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidTransition, be.Code)
}

func TestCreateIntentRejectsUnsupportedCurrency(t *testing.T) {
	repos, _, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)

	_, err := paymentSvc.CreateIntent(context.Background(), booking.Reference,
		&models.CreatePaymentIntentRequest{Currency: "eur"})
	be, ok := apperrors.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeUnsupportedCurrency, be.Code)

	// Nothing was charged or recorded.
	payment, err := repos.Payments.GetLatestByBookingID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Nil(t, payment)
}

func TestCreateIntentConfiguredCurrencyAccepted(t *testing.T) {
	repos, _, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)

	resp, err := paymentSvc.CreateIntent(context.Background(), booking.Reference,
		&models.CreatePaymentIntentRequest{Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "usd", resp.ProcessorCurrency)
	assert.Equal(t, int64(1772), resp.ProcessorAmount)
}

func TestWebhookSucceededConfirmsBooking(t *testing.T) {
	repos, _, publisher, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)

	err = paymentSvc.HandleWebhookEvent(context.Background(), succeededEvent(intent.IntentID))
	require.NoError(t, err)

	payment, _ := repos.Payments.GetByIntentID(context.Background(), intent.IntentID)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	require.NotNil(t, payment.PaidAt)

	got, err := bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)
	assert.Equal(t, 1, publisher.published(models.EventPaymentCompleted))
}

func TestWebhookSucceededIdempotent(t *testing.T) {
	repos, _, publisher, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)

	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), succeededEvent(intent.IntentID)))

	got, err := bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	firstConfirmedAt := got.ConfirmedAt
	require.NotNil(t, firstConfirmedAt)

	// Duplicate delivery is acknowledged without any further side effects.
	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), succeededEvent(intent.IntentID)))

	got, err = bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, firstConfirmedAt, got.ConfirmedAt)
	assert.Equal(t, 1, publisher.published(models.EventPaymentCompleted))
	assert.Equal(t, 1, publisher.published(models.EventBookingConfirmed))
}

func TestWebhookFailedLeavesBookingPending(t *testing.T) {
	repos, _, publisher, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)

	event := &models.WebhookEvent{ID: "evt_2", Type: models.WebhookPaymentFailed}
	event.Data.Object = json.RawMessage(fmt.Sprintf(
		`{"id":%q,"status":"requires_payment_method","last_payment_error":{"message":"card declined"}}`, intent.IntentID))

	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), event))

	payment, _ := repos.Payments.GetByIntentID(context.Background(), intent.IntentID)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	require.NotNil(t, payment.FailureReason)
	assert.Equal(t, "card declined", *payment.FailureReason)

	// A failed attempt keeps the booking retryable.
	got, err := bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, got.Status)
	assert.Equal(t, 1, publisher.published(models.EventPaymentFailed))
}

func TestWebhookRefundCascadesToCancellation(t *testing.T) {
	repos, _, publisher, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)
	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), succeededEvent(intent.IntentID)))

	slotBefore, _ := repos.Slots.GetByID(context.Background(), 1)
	require.Equal(t, 7, slotBefore.AvailableSpots)

	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), refundedEvent(intent.IntentID, 1772)))

	payment, _ := repos.Payments.GetByIntentID(context.Background(), intent.IntentID)
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
	require.NotNil(t, payment.RefundedAt)
	assert.Equal(t, int64(283500), payment.RefundAmount)

	got, err := bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, got.Status)
	require.NotNil(t, got.CancellationReason)
	assert.Equal(t, "Payment refunded", *got.CancellationReason)
	require.NotNil(t, got.CancelledByCustomer)
	assert.False(t, *got.CancelledByCustomer)

	// Cancellation gives the seats back.
	slot, _ := repos.Slots.GetByID(context.Background(), 1)
	assert.Equal(t, 10, slot.AvailableSpots)
	assert.Equal(t, 1, publisher.published(models.EventPaymentRefunded))
	assert.Equal(t, 1, publisher.published(models.EventBookingCancelled))
}

// failingOnceCanceller fails its first cancellation and then delegates to the
// real booking service, simulating a crash between recording a refund and
// cancelling the booking.
type failingOnceCanceller struct {
	inner *BookingService
	calls int
}

func (c *failingOnceCanceller) CancelInternal(ctx context.Context, bookingID int64, reason string) error {
	c.calls++
	if c.calls == 1 {
		return fmt.Errorf("booking store unavailable")
	}
	return c.inner.CancelInternal(ctx, bookingID, reason)
}

func TestWebhookRefundRedeliveryCompletesCancellation(t *testing.T) {
	repos := repository.NewMemoryRepositories()
	publisher := &fakePublisher{}
	processor := newFakeProcessor()
	refs := NewReferenceGenerator("BK", repos.Bookings)
	bookingSvc := NewBookingService(repos.Activities, repos.Slots, repos.Bookings, nil, refs, publisher)
	canceller := &failingOnceCanceller{inner: bookingSvc}
	paymentSvc := NewPaymentService(repos.Payments, repos.Bookings, canceller, processor, publisher, "usd", testExchangeRate)

	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)
	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), succeededEvent(intent.IntentID)))

	// The first delivery records the refund but dies before the booking is
	// cancelled, so the broker will redeliver.
	err = paymentSvc.HandleWebhookEvent(context.Background(), refundedEvent(intent.IntentID, 1772))
	require.Error(t, err)

	payment, _ := repos.Payments.GetByIntentID(context.Background(), intent.IntentID)
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
	mid, err := bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, mid.Status)

	// Redelivery must finish the cascade instead of short-circuiting on the
	// already-recorded refund.
	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), refundedEvent(intent.IntentID, 1772)))

	got, err := bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, got.Status)
	require.NotNil(t, got.CancellationReason)
	assert.Equal(t, "Payment refunded", *got.CancellationReason)

	slot, _ := repos.Slots.GetByID(context.Background(), 1)
	assert.Equal(t, 10, slot.AvailableSpots)
	assert.Equal(t, 2, canceller.calls)
}

func TestWebhookRefundOnCompletedBooking(t *testing.T) {
	repos, _, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)
	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), succeededEvent(intent.IntentID)))

	_, err = repos.Bookings.MarkCompleted(context.Background(), booking.ID)
	require.NoError(t, err)

	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), refundedEvent(intent.IntentID, 1772)))

	// A completed booking cannot be cancelled; it ends up refunded instead.
	got, err := bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusRefunded, got.Status)
}

func TestWebhookUnknownTypeIgnored(t *testing.T) {
	_, _, _, _, paymentSvc := newPaymentEnv()

	event := &models.WebhookEvent{ID: "evt_9", Type: "customer.subscription.updated"}
	event.Data.Object = json.RawMessage(`{}`)

	assert.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), event))
}

func TestWebhookDisputeLoggedOnly(t *testing.T) {
	repos, _, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)
	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), succeededEvent(intent.IntentID)))

	event := &models.WebhookEvent{ID: "evt_4", Type: models.WebhookDisputeCreated}
	event.Data.Object = json.RawMessage(fmt.Sprintf(
		`{"id":"dp_1","payment_intent":%q,"reason":"fraudulent","amount":1772}`, intent.IntentID))
	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), event))

	got, err := bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)
}

func TestConfirmPayment(t *testing.T) {
	repos, processor, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)

	processor.intentStat = "succeeded"
	require.NoError(t, paymentSvc.ConfirmPayment(context.Background(), &models.ConfirmPaymentRequest{IntentID: intent.IntentID}))

	got, err := bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)
}

func TestConfirmPaymentNotSucceeded(t *testing.T) {
	repos, processor, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)

	processor.intentStat = "requires_payment_method"
	err = paymentSvc.ConfirmPayment(context.Background(), &models.ConfirmPaymentRequest{IntentID: intent.IntentID})
	be, ok := apperrors.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodePaymentNotSucceeded, be.Code)

	// A failed verification leaves everything retryable.
	got, err := bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, got.Status)
}

func TestProcessRefundPartialKeepsBookingActive(t *testing.T) {
	repos, processor, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)
	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), succeededEvent(intent.IntentID)))

	amount := int64(100000)
	payment, err := paymentSvc.ProcessRefund(context.Background(), booking.Reference, &models.ProcessRefundRequest{Amount: &amount})
	require.NoError(t, err)

	// Partial refund: payment stays completed, booking stays confirmed.
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, int64(100000), payment.RefundAmount)
	assert.Nil(t, payment.RefundedAt)

	got, err := bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)

	require.Len(t, processor.refunds, 1)
	// 100000/283500 of the 1772-cent charge.
	assert.Equal(t, int64(625), processor.refunds[0])
}

func TestProcessRefundFullMarksRefundedWithoutCancelling(t *testing.T) {
	repos, _, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)
	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), succeededEvent(intent.IntentID)))

	payment, err := paymentSvc.ProcessRefund(context.Background(), booking.Reference, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
	assert.Equal(t, int64(283500), payment.RefundAmount)
	require.NotNil(t, payment.RefundedAt)

	// Unlike the webhook path, a manual refund never cancels the booking.
	got, err := bookingSvc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)

	slot, _ := repos.Slots.GetByID(context.Background(), 1)
	assert.Equal(t, 7, slot.AvailableSpots)
}

func TestProcessRefundTooLarge(t *testing.T) {
	repos, _, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)
	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), succeededEvent(intent.IntentID)))

	amount := int64(300000)
	_, err = paymentSvc.ProcessRefund(context.Background(), booking.Reference, &models.ProcessRefundRequest{Amount: &amount})
	be, ok := apperrors.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeRefundTooLarge, be.Code)
}

func TestProcessRefundRequiresCompletedPayment(t *testing.T) {
	repos, _, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	_, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)

	_, err = paymentSvc.ProcessRefund(context.Background(), booking.Reference, nil)
	be, ok := apperrors.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeRefundNotAllowed, be.Code)
}

func TestProcessRefundProcessorFailureLeavesStateUnchanged(t *testing.T) {
	repos, processor, _, bookingSvc, paymentSvc := newPaymentEnv()
	booking := createPendingBooking(t, repos, bookingSvc)
	intent, err := paymentSvc.CreateIntent(context.Background(), booking.Reference, nil)
	require.NoError(t, err)
	require.NoError(t, paymentSvc.HandleWebhookEvent(context.Background(), succeededEvent(intent.IntentID)))

	processor.refundErr = fmt.Errorf("gateway timeout")
	_, err = paymentSvc.ProcessRefund(context.Background(), booking.Reference, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsIntegration(err))

	payment, _ := repos.Payments.GetByIntentID(context.Background(), intent.IntentID)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, int64(0), payment.RefundAmount)
}
