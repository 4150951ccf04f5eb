package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tamasya/internal/errors"
	"tamasya/internal/metrics"
	"tamasya/internal/models"
	"tamasya/internal/pricing"
)

// BookingService owns the booking lifecycle from submission through
// cancellation. Capacity changes happen inside the booking store's
// transactions; this layer validates, prices, and publishes.
type BookingService struct {
	activities ActivityStore
	slots      SlotStore
	bookings   BookingStore
	cache      ActivityCache
	refs       *ReferenceGenerator
	publisher  EventPublisher
	now        func() time.Time
}

func NewBookingService(activities ActivityStore, slots SlotStore, bookings BookingStore, cache ActivityCache, refs *ReferenceGenerator, publisher EventPublisher) *BookingService {
	return &BookingService{
		activities: activities,
		slots:      slots,
		bookings:   bookings,
		cache:      cache,
		refs:       refs,
		publisher:  publisher,
		now:        time.Now,
	}
}

// Create validates the request, snapshots prices, reserves capacity and
// persists the booking atomically. The booking starts in pending.
func (s *BookingService) Create(ctx context.Context, req *models.CreateBookingRequest) (*models.BookingResponse, error) {
	activity, err := s.getActivity(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, errors.ErrNotFound
	}

	slot, err := s.slots.GetByID(ctx, req.AvailabilitySlotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	if slot == nil || slot.ActivityID != activity.ID {
		return nil, errors.ErrNotFound
	}

	participants := req.Adults + req.Children
	if participants < activity.MinGroupSize || participants > activity.MaxGroupSize {
		metrics.BookingsRejected.WithLabelValues(errors.CodeGroupSizeOutOfBounds).Inc()
		return nil, errors.Businessf(errors.CodeGroupSizeOutOfBounds,
			"Group size %d is outside the allowed range %d-%d",
			participants, activity.MinGroupSize, activity.MaxGroupSize)
	}

	breakdown := pricing.QuoteActivity(activity, req.Adults, req.Children)

	reference, err := s.refs.Generate(ctx)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		Reference:          reference,
		UserID:             req.UserID,
		ActivityID:         activity.ID,
		AvailabilitySlotID: slot.ID,
		Adults:             req.Adults,
		Children:           req.Children,
		ContactName:        req.ContactName,
		ContactEmail:       req.ContactEmail,
		ContactPhone:       req.ContactPhone,
		SpecialRequests:    req.SpecialRequests,
		BookingDate:        slot.SlotDate,
		BookingTime:        slot.StartTime,
		PriceAdult:         breakdown.AdultPrice,
		PriceChild:         breakdown.ChildPrice,
		Subtotal:           breakdown.Subtotal,
		ServiceFee:         breakdown.ServiceFee,
		TotalAmount:        breakdown.Total,
		Currency:           breakdown.Currency,
		Status:             models.BookingStatusPending,
	}

	if err := s.bookings.CreateWithReservation(ctx, booking); err != nil {
		if be, ok := errors.AsBusiness(err); ok {
			metrics.BookingsRejected.WithLabelValues(be.Code).Inc()
		}
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	slog.Info("Booking created",
		"booking_id", booking.ID,
		"reference", booking.Reference,
		"activity_id", booking.ActivityID,
		"participants", participants,
		"total_amount", booking.TotalAmount)

	s.publish(models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:    booking.ID,
		Reference:    booking.Reference,
		ActivityID:   booking.ActivityID,
		SlotID:       booking.AvailabilitySlotID,
		UserID:       booking.UserID,
		Participants: participants,
		TotalAmount:  booking.TotalAmount,
		Timestamp:    s.now(),
	})

	return s.toResponse(booking), nil
}

// Confirm moves a pending booking to confirmed. It is idempotent against
// concurrent confirmation: only one caller flips the row.
func (s *BookingService) Confirm(ctx context.Context, reference string) (*models.BookingResponse, error) {
	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, errors.ErrNotFound
	}

	if !booking.CanBeConfirmed() {
		return nil, errors.Businessf(errors.CodeInvalidTransition,
			"booking cannot be confirmed from status %q", booking.Status)
	}

	at := s.now()
	updated, err := s.bookings.MarkConfirmed(ctx, booking.ID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	if !updated {
		// Lost the race; reload to report whatever state won.
		booking, err = s.bookings.GetByID(ctx, booking.ID)
		if err != nil || booking == nil {
			return nil, fmt.Errorf("failed to reload booking: %w", err)
		}
		if booking.Status != models.BookingStatusConfirmed {
			return nil, errors.Businessf(errors.CodeInvalidTransition,
				"booking cannot be confirmed from status %q", booking.Status)
		}
		return s.toResponse(booking), nil
	}

	booking.Status = models.BookingStatusConfirmed
	booking.ConfirmedAt = &at

	slog.Info("Booking confirmed", "booking_id", booking.ID, "reference", booking.Reference)

	s.publish(models.EventBookingConfirmed, models.BookingConfirmedEvent{
		BookingID: booking.ID,
		Reference: booking.Reference,
		Timestamp: at,
	})

	return s.toResponse(booking), nil
}

// Cancel transitions the booking to cancelled and releases its seats in one
// transaction. Cancellation is never blocked by the free-cancellation window;
// the window only affects fee display.
func (s *BookingService) Cancel(ctx context.Context, reference string, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, errors.ErrNotFound
	}

	reason := "Cancelled by customer"
	if req != nil && req.Reason != nil && *req.Reason != "" {
		reason = *req.Reason
	}
	byCustomer := true
	if req != nil && req.InitiatedByCustomer != nil {
		byCustomer = *req.InitiatedByCustomer
	}

	return s.cancel(ctx, booking, reason, byCustomer)
}

// CancelInternal cancels on behalf of the platform (expiry jobs, refund
// cascades) without customer attribution.
func (s *BookingService) CancelInternal(ctx context.Context, bookingID int64, reason string) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return errors.ErrNotFound
	}
	_, err = s.cancel(ctx, booking, reason, false)
	return err
}

// ExpirePending cancels a booking whose payment window has lapsed, but only
// while it is still pending. Returns false without error when the booking has
// already left pending, which happens when a payment confirmation lands
// between the expiry sweep listing the booking and processing it.
func (s *BookingService) ExpirePending(ctx context.Context, bookingID int64, reason string) (bool, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return false, errors.ErrNotFound
	}

	at := s.now()
	cancelled, err := s.bookings.CancelPendingWithRelease(ctx, booking.ID, reason, at)
	if err != nil {
		return false, err
	}
	if !cancelled {
		return false, nil
	}
	s.recordCancellation(booking, reason, false, at)
	return true, nil
}

func (s *BookingService) cancel(ctx context.Context, booking *models.Booking, reason string, byCustomer bool) (*models.BookingResponse, error) {
	at := s.now()
	if err := s.bookings.CancelWithRelease(ctx, booking.ID, reason, byCustomer, at); err != nil {
		return nil, err
	}
	s.recordCancellation(booking, reason, byCustomer, at)
	return s.toResponse(booking), nil
}

func (s *BookingService) recordCancellation(booking *models.Booking, reason string, byCustomer bool, at time.Time) {
	booking.Status = models.BookingStatusCancelled
	booking.CancelledAt = &at
	booking.CancellationReason = &reason
	booking.CancelledByCustomer = &byCustomer

	initiator := "platform"
	if byCustomer {
		initiator = "customer"
	}
	metrics.BookingsCancelled.WithLabelValues(initiator).Inc()

	slog.Info("Booking cancelled",
		"booking_id", booking.ID,
		"reference", booking.Reference,
		"reason", reason,
		"initiated_by_customer", byCustomer)

	s.publish(models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID:           booking.ID,
		Reference:           booking.Reference,
		Reason:              reason,
		InitiatedByCustomer: byCustomer,
		Timestamp:           at,
	})
}

// GetByReference looks up a booking by its public reference.
func (s *BookingService) GetByReference(ctx context.Context, reference string) (*models.BookingResponse, error) {
	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, errors.ErrNotFound
	}
	return s.toResponse(booking), nil
}

// Quote prices a prospective booking without touching capacity or persisting
// anything. Two identical requests against unchanged prices return identical
// breakdowns.
func (s *BookingService) Quote(ctx context.Context, req *models.QuoteRequest) (*models.PriceBreakdown, error) {
	activity, err := s.getActivity(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, errors.ErrNotFound
	}

	participants := req.Adults + req.Children
	if participants < activity.MinGroupSize || participants > activity.MaxGroupSize {
		return nil, errors.Businessf(errors.CodeGroupSizeOutOfBounds,
			"Group size %d is outside the allowed range %d-%d",
			participants, activity.MinGroupSize, activity.MaxGroupSize)
	}

	breakdown := pricing.QuoteActivity(activity, req.Adults, req.Children)
	return &breakdown, nil
}

// getActivity reads through the cache. Cache misses and cache failures both
// fall back to the store.
func (s *BookingService) getActivity(ctx context.Context, id int64) (*models.Activity, error) {
	if s.cache != nil {
		activity, err := s.cache.GetActivity(ctx, id)
		if err != nil {
			slog.Warn("Activity cache read failed", "activity_id", id, "error", err)
		} else if activity != nil {
			return activity, nil
		}
	}

	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	if activity != nil && s.cache != nil {
		if err := s.cache.SetActivity(ctx, activity); err != nil {
			slog.Warn("Activity cache write failed", "activity_id", id, "error", err)
		}
	}
	return activity, nil
}

func (s *BookingService) toResponse(booking *models.Booking) *models.BookingResponse {
	return &models.BookingResponse{
		Booking:          *booking,
		FreeCancellation: booking.IsFreeCancellation(s.now()),
	}
}

func (s *BookingService) publish(subject string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(subject, data); err != nil {
		slog.Error("Failed to publish event", "subject", subject, "error", err)
	}
}
