package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tamasya/internal/errors"
	"tamasya/internal/models"
)

// ReviewService creates published reviews and maintains the activity rating
// aggregates. Aggregates are recomputed in full by the store on every write.
type ReviewService struct {
	reviews    ReviewStore
	bookings   BookingStore
	activities ActivityStore
	cache      ActivityCache
	publisher  EventPublisher
	now        func() time.Time
}

func NewReviewService(reviews ReviewStore, bookings BookingStore, activities ActivityStore, cache ActivityCache, publisher EventPublisher) *ReviewService {
	return &ReviewService{
		reviews:    reviews,
		bookings:   bookings,
		activities: activities,
		cache:      cache,
		publisher:  publisher,
		now:        time.Now,
	}
}

// Create inserts a review as immediately published. A booking-backed review
// must reference a completed booking of the same user and activity, and each
// booking carries at most one review.
func (s *ReviewService) Create(ctx context.Context, req *models.CreateReviewRequest) (*models.Review, error) {
	activity, err := s.activities.GetByID(ctx, req.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	if activity == nil {
		return nil, errors.ErrNotFound
	}

	if req.BookingID != nil {
		booking, err := s.bookings.GetByID(ctx, *req.BookingID)
		if err != nil {
			return nil, fmt.Errorf("failed to get booking: %w", err)
		}
		if booking == nil {
			return nil, errors.ErrNotFound
		}
		if booking.ActivityID != req.ActivityID || booking.UserID == nil || *booking.UserID != req.UserID {
			return nil, errors.Business(errors.CodeReviewNotAllowed,
				"Booking does not belong to this user and activity")
		}
		if booking.Status != models.BookingStatusCompleted {
			return nil, errors.Businessf(errors.CodeReviewNotAllowed,
				"Only completed bookings can be reviewed, booking is %q", booking.Status)
		}

		exists, err := s.reviews.ExistsForBooking(ctx, booking.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing review: %w", err)
		}
		if exists {
			return nil, errors.Business(errors.CodeDuplicateReview,
				"This booking has already been reviewed")
		}
	}

	review := &models.Review{
		ActivityID: req.ActivityID,
		UserID:     req.UserID,
		BookingID:  req.BookingID,
		Rating:     req.Rating,
		Content:    req.Content,
		Published:  true,
	}

	if err := s.reviews.CreateAndRecompute(ctx, review); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateActivity(ctx, req.ActivityID); err != nil {
			slog.Warn("Failed to invalidate activity cache", "activity_id", req.ActivityID, "error", err)
		}
	}

	slog.Info("Review created",
		"review_id", review.ID,
		"activity_id", review.ActivityID,
		"rating", review.Rating)

	if s.publisher != nil {
		if err := s.publisher.Publish(models.EventReviewCreated, models.ReviewCreatedEvent{
			ReviewID:   review.ID,
			ActivityID: review.ActivityID,
			Rating:     review.Rating,
			Timestamp:  s.now(),
		}); err != nil {
			slog.Error("Failed to publish event", "subject", models.EventReviewCreated, "error", err)
		}
	}

	return review, nil
}

// SetSupplierResponse records the supplier's one-time reply to a review. Only
// the supplier owning the reviewed activity may respond.
func (s *ReviewService) SetSupplierResponse(ctx context.Context, reviewID int64, req *models.SupplierResponseRequest) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, errors.ErrNotFound
	}

	activity, err := s.activities.GetByID(ctx, review.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	if activity == nil || activity.SupplierID != req.SupplierID {
		return nil, errors.Business(errors.CodeReviewNotAllowed,
			"Review does not belong to this supplier")
	}

	updated, err := s.reviews.SetSupplierResponse(ctx, reviewID, req.Response)
	if err != nil {
		return nil, fmt.Errorf("failed to set supplier response: %w", err)
	}
	if !updated {
		return nil, errors.Business(errors.CodeResponseAlreadySet,
			"This review already has a supplier response")
	}

	review.SupplierResponse = &req.Response
	return review, nil
}
