package models

import "time"

// NATS Event Types
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventPaymentRefunded  = "payment.refunded"
	EventReviewCreated    = "review.created"
)

// BookingCreatedEvent represents a booking creation event
type BookingCreatedEvent struct {
	BookingID    int64     `json:"booking_id"`
	Reference    string    `json:"reference"`
	ActivityID   int64     `json:"activity_id"`
	SlotID       int64     `json:"slot_id"`
	UserID       *int64    `json:"user_id"`
	Participants int       `json:"participants"`
	TotalAmount  int64     `json:"total_amount"`
	Timestamp    time.Time `json:"timestamp"`
}

// BookingConfirmedEvent represents a booking confirmation event
type BookingConfirmedEvent struct {
	BookingID int64     `json:"booking_id"`
	Reference string    `json:"reference"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCancelledEvent represents a booking cancellation event
type BookingCancelledEvent struct {
	BookingID           int64     `json:"booking_id"`
	Reference           string    `json:"reference"`
	Reason              string    `json:"reason"`
	InitiatedByCustomer bool      `json:"initiated_by_customer"`
	Timestamp           time.Time `json:"timestamp"`
}

// PaymentCompletedEvent represents a successful payment event
type PaymentCompletedEvent struct {
	BookingID int64     `json:"booking_id"`
	IntentID  string    `json:"intent_id"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentFailedEvent represents a failed payment event
type PaymentFailedEvent struct {
	BookingID int64     `json:"booking_id"`
	IntentID  string    `json:"intent_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentRefundedEvent represents a refunded payment event
type PaymentRefundedEvent struct {
	BookingID    int64     `json:"booking_id"`
	IntentID     string    `json:"intent_id"`
	RefundAmount int64     `json:"refund_amount"`
	Timestamp    time.Time `json:"timestamp"`
}

// ReviewCreatedEvent represents a review creation event
type ReviewCreatedEvent struct {
	ReviewID   int64     `json:"review_id"`
	ActivityID int64     `json:"activity_id"`
	Rating     int       `json:"rating"`
	Timestamp  time.Time `json:"timestamp"`
}
