package models

// BookingStatus is the lifecycle state of a Booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusRefunded  BookingStatus = "refunded"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// bookingTransitions is the single source of truth for transition legality.
// Every caller goes through CanTransitionTo; no code path bypasses the table.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted, BookingStatusRefunded, BookingStatusNoShow},
	BookingStatusCompleted: {BookingStatusRefunded},
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// CanBeConfirmed reports whether the booking may move to confirmed.
func (b *Booking) CanBeConfirmed() bool {
	return b.Status.CanTransitionTo(BookingStatusConfirmed)
}

// CanBeCancelled reports whether the booking may move to cancelled.
// Time-based cutoffs never factor in here; the free-cancellation window
// is informational only.
func (b *Booking) CanBeCancelled() bool {
	return b.Status.CanTransitionTo(BookingStatusCancelled)
}

// SlotStatus is the state of an AvailabilitySlot.
type SlotStatus string

const (
	SlotOpen      SlotStatus = "open"
	SlotFull      SlotStatus = "full"
	SlotCancelled SlotStatus = "cancelled"
)

// PaymentStatus is the state of a Payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)
