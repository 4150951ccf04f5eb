package service

import (
	"context"
	"time"

	"tamasya/internal/external"
	"tamasya/internal/models"
)

// Persistence interfaces consumed by the services. The repository package
// provides the Postgres implementations; tests substitute in-memory fakes.

type ActivityStore interface {
	GetByID(ctx context.Context, id int64) (*models.Activity, error)
}

type SlotStore interface {
	GetByID(ctx context.Context, id int64) (*models.AvailabilitySlot, error)
	ListOpenByActivity(ctx context.Context, activityID int64) ([]models.AvailabilitySlot, error)
}

type BookingStore interface {
	CreateWithReservation(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	MarkConfirmed(ctx context.Context, id int64, at time.Time) (bool, error)
	CancelWithRelease(ctx context.Context, id int64, reason string, byCustomer bool, at time.Time) error
	CancelPendingWithRelease(ctx context.Context, id int64, reason string, at time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id int64) (bool, error)
	MarkRefunded(ctx context.Context, id int64) (bool, error)
	GetExpiredPending(ctx context.Context, before time.Time) ([]models.Booking, error)
	GetFinishedConfirmed(ctx context.Context, before time.Time) ([]models.Booking, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error)
	GetLatestByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error)
	MarkCompleted(ctx context.Context, intentID string, chargeID *string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, intentID, reason string) (bool, error)
	ApplyRefund(ctx context.Context, id int64, refundID *string, refundAmount int64, status models.PaymentStatus, refundedAt *time.Time) error
}

type ReviewStore interface {
	CreateAndRecompute(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id int64) (*models.Review, error)
	ExistsForBooking(ctx context.Context, bookingID int64) (bool, error)
	SetSupplierResponse(ctx context.Context, id int64, response string) (bool, error)
}

// PaymentProcessor is the card-processor client surface the payment service
// depends on.
type PaymentProcessor interface {
	CreateIntent(amount int64, currency string, metadata map[string]string) (*external.Intent, error)
	GetIntent(intentID string) (*external.Intent, error)
	Refund(intentID string, amount int64) (*external.RefundResult, error)
}

// EventPublisher pushes domain events onto the message bus. Publishing is
// best-effort; callers log failures and continue.
type EventPublisher interface {
	Publish(subject string, data interface{}) error
}

// ActivityCache is the read-through cache in front of the activities table.
type ActivityCache interface {
	GetActivity(ctx context.Context, id int64) (*models.Activity, error)
	SetActivity(ctx context.Context, activity *models.Activity) error
	InvalidateActivity(ctx context.Context, id int64) error
}

// CatalogIndex is the search read model for activity listings.
type CatalogIndex interface {
	IndexActivity(ctx context.Context, activity *models.Activity) error
	List(ctx context.Context, page, pageSize int) (models.ListActivitiesResponse, error)
}
