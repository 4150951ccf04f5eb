package models

import (
	"time"
)

// Activity represents a bookable tour or activity owned by a supplier.
// Read-only to the booking core; supplier/admin management lives elsewhere.
type Activity struct {
	ID            int64     `json:"id" db:"id"`
	SupplierID    int64     `json:"supplier_id" db:"supplier_id"`
	Title         string    `json:"title" db:"title"`
	Description   *string   `json:"description" db:"description"`
	Location      *string   `json:"location" db:"location"`
	PriceAdult    int64     `json:"price_adult" db:"price_adult"`
	PriceChild    *int64    `json:"price_child" db:"price_child"`
	MinGroupSize  int       `json:"min_group_size" db:"min_group_size"`
	MaxGroupSize  int       `json:"max_group_size" db:"max_group_size"`
	Currency      string    `json:"currency" db:"currency"`
	RatingAverage float64   `json:"rating_average" db:"rating_average"`
	ReviewCount   int       `json:"review_count" db:"review_count"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// AvailabilitySlot is one bookable date+time instance of an activity with
// finite capacity. available_spots is the single shared mutable counter in
// the system; only the slot reservation queries may change it.
type AvailabilitySlot struct {
	ID             int64      `json:"id" db:"id"`
	ActivityID     int64      `json:"activity_id" db:"activity_id"`
	SlotDate       time.Time  `json:"slot_date" db:"slot_date"`
	StartTime      string     `json:"start_time" db:"start_time"`
	TotalSpots     int        `json:"total_spots" db:"total_spots"`
	AvailableSpots int        `json:"available_spots" db:"available_spots"`
	Status         SlotStatus `json:"status" db:"status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Booking is the central entity of the booking lifecycle. Price and
// date/time fields are snapshots taken at creation time; later changes to
// the activity or slot do not rewrite them.
type Booking struct {
	ID                  int64         `json:"id" db:"id"`
	Reference           string        `json:"reference" db:"reference"`
	UserID              *int64        `json:"user_id" db:"user_id"`
	ActivityID          int64         `json:"activity_id" db:"activity_id"`
	AvailabilitySlotID  int64         `json:"availability_slot_id" db:"availability_slot_id"`
	Adults              int           `json:"adults" db:"adults"`
	Children            int           `json:"children" db:"children"`
	ContactName         string        `json:"contact_name" db:"contact_name"`
	ContactEmail        string        `json:"contact_email" db:"contact_email"`
	ContactPhone        string        `json:"contact_phone" db:"contact_phone"`
	SpecialRequests     *string       `json:"special_requests" db:"special_requests"`
	BookingDate         time.Time     `json:"booking_date" db:"booking_date"`
	BookingTime         string        `json:"booking_time" db:"booking_time"`
	PriceAdult          int64         `json:"price_adult" db:"price_adult"`
	PriceChild          int64         `json:"price_child" db:"price_child"`
	Subtotal            int64         `json:"subtotal" db:"subtotal"`
	ServiceFee          int64         `json:"service_fee" db:"service_fee"`
	TotalAmount         int64         `json:"total_amount" db:"total_amount"`
	Currency            string        `json:"currency" db:"currency"`
	Status              BookingStatus `json:"status" db:"status"`
	ConfirmedAt         *time.Time    `json:"confirmed_at" db:"confirmed_at"`
	CancelledAt         *time.Time    `json:"cancelled_at" db:"cancelled_at"`
	CancellationReason  *string       `json:"cancellation_reason" db:"cancellation_reason"`
	CancelledByCustomer *bool         `json:"cancelled_by_customer" db:"cancelled_by_customer"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at"`
}

// Participants returns the total participant count for the booking.
func (b *Booking) Participants() int {
	return b.Adults + b.Children
}

// FreeCancellationWindow is the threshold before the activity start under
// which cancellation is no longer free of charge. The window never blocks
// cancellation itself; it only drives fee-waiver display.
const FreeCancellationWindow = 24 * time.Hour

// StartsAt combines the snapshotted booking date and time.
func (b *Booking) StartsAt() time.Time {
	st, err := time.Parse("15:04:05", b.BookingTime)
	if err != nil {
		st, _ = time.Parse("15:04", b.BookingTime)
	}
	d := b.BookingDate
	return time.Date(d.Year(), d.Month(), d.Day(), st.Hour(), st.Minute(), st.Second(), 0, time.UTC)
}

// IsFreeCancellation reports whether cancelling at the given moment is still
// inside the free-cancellation window.
func (b *Booking) IsFreeCancellation(now time.Time) bool {
	return now.Before(b.StartsAt().Add(-FreeCancellationWindow))
}

// Payment tracks one payment attempt against a booking with the external
// card processor. intent_id is the processor-assigned idempotency key.
type Payment struct {
	ID                int64         `json:"id" db:"id"`
	BookingID         int64         `json:"booking_id" db:"booking_id"`
	IntentID          string        `json:"intent_id" db:"intent_id"`
	ChargeID          *string       `json:"charge_id" db:"charge_id"`
	RefundID          *string       `json:"refund_id" db:"refund_id"`
	Amount            int64         `json:"amount" db:"amount"`
	Currency          string        `json:"currency" db:"currency"`
	ProcessorAmount   int64         `json:"processor_amount" db:"processor_amount"`
	ProcessorCurrency string        `json:"processor_currency" db:"processor_currency"`
	Status            PaymentStatus `json:"status" db:"status"`
	PaidAt            *time.Time    `json:"paid_at" db:"paid_at"`
	RefundedAt        *time.Time    `json:"refunded_at" db:"refunded_at"`
	RefundAmount      int64         `json:"refund_amount" db:"refund_amount"`
	FailureReason     *string       `json:"failure_reason" db:"failure_reason"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// Review links an activity, a user and optionally the booking being reviewed.
type Review struct {
	ID               int64     `json:"id" db:"id"`
	ActivityID       int64     `json:"activity_id" db:"activity_id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	BookingID        *int64    `json:"booking_id" db:"booking_id"`
	Rating           int       `json:"rating" db:"rating"`
	Content          *string   `json:"content" db:"content"`
	SupplierResponse *string   `json:"supplier_response" db:"supplier_response"`
	Published        bool      `json:"published" db:"published"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
