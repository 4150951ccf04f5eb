package models

// CreateBookingRequest is a validated booking submission. Field-level
// validation (required, ranges, email format) happens upstream; binding tags
// only guard against malformed payloads.
type CreateBookingRequest struct {
	ActivityID         int64   `json:"activity_id" binding:"required"`
	AvailabilitySlotID int64   `json:"availability_slot_id" binding:"required"`
	Adults             int     `json:"adults" binding:"required,min=1"`
	Children           int     `json:"children" binding:"min=0"`
	ContactName        string  `json:"contact_name" binding:"required"`
	ContactEmail       string  `json:"contact_email" binding:"required"`
	ContactPhone       string  `json:"contact_phone" binding:"required"`
	SpecialRequests    *string `json:"special_requests,omitempty"`
	UserID             *int64  `json:"user_id,omitempty"`
}

// CancelBookingRequest carries the optional cancellation metadata.
type CancelBookingRequest struct {
	Reason              *string `json:"reason,omitempty"`
	InitiatedByCustomer *bool   `json:"initiated_by_customer,omitempty"`
}

// QuoteRequest asks for a live price preview without persisting anything.
type QuoteRequest struct {
	ActivityID int64 `json:"activity_id" binding:"required"`
	Adults     int   `json:"adults" binding:"required,min=1"`
	Children   int   `json:"children" binding:"min=0"`
}

// PriceBreakdown is the preview object exposed to the frontend.
type PriceBreakdown struct {
	AdultPrice        int64   `json:"adult_price"`
	ChildPrice        int64   `json:"child_price"`
	Adults            int     `json:"adults"`
	Children          int     `json:"children"`
	AdultTotal        int64   `json:"adult_total"`
	ChildTotal        int64   `json:"child_total"`
	Subtotal          int64   `json:"subtotal"`
	ServiceFee        int64   `json:"service_fee"`
	ServiceFeePercent float64 `json:"service_fee_percent"`
	Total             int64   `json:"total"`
	Currency          string  `json:"currency"`
}

// BookingResponse is the booking record plus derived display fields.
type BookingResponse struct {
	Booking
	FreeCancellation bool `json:"free_cancellation"`
}

// CreatePaymentIntentRequest selects the processor currency for checkout.
type CreatePaymentIntentRequest struct {
	Currency string `json:"currency,omitempty"`
}

// PaymentIntentResponse hands the frontend what it needs to complete the
// payment with the processor's client SDK.
type PaymentIntentResponse struct {
	IntentID          string `json:"intent_id"`
	ClientSecret      string `json:"client_secret"`
	ProcessorAmount   int64  `json:"processor_amount"`
	ProcessorCurrency string `json:"processor_currency"`
}

// ConfirmPaymentRequest triggers server-side reconciliation of an intent.
type ConfirmPaymentRequest struct {
	IntentID string `json:"intent_id" binding:"required"`
}

// CreateReviewRequest submits a review, optionally tied to a booking.
type CreateReviewRequest struct {
	ActivityID int64   `json:"activity_id" binding:"required"`
	UserID     int64   `json:"user_id" binding:"required"`
	BookingID  *int64  `json:"booking_id,omitempty"`
	Rating     int     `json:"rating" binding:"required,min=1,max=5"`
	Content    *string `json:"content,omitempty"`
}

// SupplierResponseRequest sets the one-shot supplier reply on a review.
type SupplierResponseRequest struct {
	SupplierID int64  `json:"supplier_id" binding:"required"`
	Response   string `json:"response" binding:"required"`
}

// ProcessRefundRequest triggers a manual (full or partial) refund.
type ProcessRefundRequest struct {
	Amount *int64 `json:"amount,omitempty"`
}

// ListActivitiesResponseItem is a catalog listing entry served from the
// search index.
type ListActivitiesResponseItem struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Location      *string `json:"location,omitempty"`
	PriceAdult    int64   `json:"price_adult"`
	Currency      string  `json:"currency"`
	RatingAverage float64 `json:"rating_average"`
	ReviewCount   int     `json:"review_count"`
}

// ListActivitiesResponse is the catalog listing.
type ListActivitiesResponse []ListActivitiesResponseItem
