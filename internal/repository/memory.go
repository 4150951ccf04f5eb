package repository

import (
	"context"
	"sync"
	"time"

	apperrors "tamasya/internal/errors"
	"tamasya/internal/models"
)

// In-memory implementations of the repositories, useful for tests and local
// development without Postgres. One mutex takes the place of row locks: every
// mutation the SQL layer runs in a transaction happens here under a single
// critical section, so the concurrency guarantees line up.

type memoryState struct {
	mu sync.Mutex

	activities map[int64]*models.Activity
	slots      map[int64]*models.AvailabilitySlot
	bookings   map[int64]*models.Booking
	byRef      map[string]int64
	payments   map[int64]*models.Payment
	byIntent   map[string]int64
	reviews    map[int64]*models.Review
	byBooking  map[int64]int64

	activitySeq int64
	slotSeq     int64
	bookingSeq  int64
	paymentSeq  int64
	reviewSeq   int64
}

// MemoryRepositories bundles the in-memory repositories over shared state.
type MemoryRepositories struct {
	Activities *MemoryActivityRepository
	Slots      *MemorySlotRepository
	Bookings   *MemoryBookingRepository
	Payments   *MemoryPaymentRepository
	Reviews    *MemoryReviewRepository
}

func NewMemoryRepositories() *MemoryRepositories {
	state := &memoryState{
		activities: make(map[int64]*models.Activity),
		slots:      make(map[int64]*models.AvailabilitySlot),
		bookings:   make(map[int64]*models.Booking),
		byRef:      make(map[string]int64),
		payments:   make(map[int64]*models.Payment),
		byIntent:   make(map[string]int64),
		reviews:    make(map[int64]*models.Review),
		byBooking:  make(map[int64]int64),
	}
	return &MemoryRepositories{
		Activities: &MemoryActivityRepository{state: state},
		Slots:      &MemorySlotRepository{state: state},
		Bookings:   &MemoryBookingRepository{state: state},
		Payments:   &MemoryPaymentRepository{state: state},
		Reviews:    &MemoryReviewRepository{state: state},
	}
}

type MemoryActivityRepository struct {
	state *memoryState
}

func (r *MemoryActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	if activity.ID == 0 {
		s.activitySeq++
		activity.ID = s.activitySeq
	}
	activity.CreatedAt = time.Now()
	activity.UpdatedAt = activity.CreatedAt
	stored := *activity
	s.activities[activity.ID] = &stored
	return nil
}

func (r *MemoryActivityRepository) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[id]
	if !ok {
		return nil, nil
	}
	out := *a
	return &out, nil
}

func (r *MemoryActivityRepository) List(ctx context.Context, page, pageSize int) ([]models.Activity, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Activity, 0, len(s.activities))
	for _, a := range s.activities {
		out = append(out, *a)
	}
	return out, nil
}

// Update overwrites an existing activity, used to simulate supplier edits.
func (r *MemoryActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *activity
	s.activities[activity.ID] = &stored
	return nil
}

type MemorySlotRepository struct {
	state *memoryState
}

func (r *MemorySlotRepository) Create(ctx context.Context, slot *models.AvailabilitySlot) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot.ID == 0 {
		s.slotSeq++
		slot.ID = s.slotSeq
	}
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt
	stored := *slot
	s.slots[slot.ID] = &stored
	return nil
}

func (r *MemorySlotRepository) Update(ctx context.Context, slot *models.AvailabilitySlot) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[slot.ID]; !ok {
		return apperrors.ErrNotFound
	}
	slot.UpdatedAt = time.Now()
	stored := *slot
	s.slots[slot.ID] = &stored
	return nil
}

func (r *MemorySlotRepository) GetByID(ctx context.Context, id int64) (*models.AvailabilitySlot, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return nil, nil
	}
	out := *slot
	return &out, nil
}

func (r *MemorySlotRepository) ListOpenByActivity(ctx context.Context, activityID int64) ([]models.AvailabilitySlot, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AvailabilitySlot
	for _, slot := range s.slots {
		if slot.ActivityID == activityID && slot.Status == models.SlotOpen {
			out = append(out, *slot)
		}
	}
	return out, nil
}

// reserve mirrors the conditional UPDATE of the SQL layer: check and
// decrement atomically, flipping the slot to full when it hits zero.
func (s *memoryState) reserve(slotID int64, count int) error {
	slot, ok := s.slots[slotID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if slot.Status == models.SlotCancelled {
		return apperrors.Business(apperrors.CodeSlotNotOpen, "this time slot is no longer open for booking")
	}
	if slot.Status == models.SlotFull || slot.AvailableSpots < count {
		switch slot.AvailableSpots {
		case 0:
			return apperrors.Business(apperrors.CodeInsufficientCapacity, "No spots left")
		case 1:
			return apperrors.Business(apperrors.CodeInsufficientCapacity, "Only 1 spot left")
		default:
			return apperrors.Businessf(apperrors.CodeInsufficientCapacity, "Only %d spots left", slot.AvailableSpots)
		}
	}
	slot.AvailableSpots -= count
	if slot.AvailableSpots == 0 {
		slot.Status = models.SlotFull
	}
	return nil
}

func (s *memoryState) release(slotID int64, count int) {
	slot, ok := s.slots[slotID]
	if !ok || slot.Status == models.SlotCancelled {
		return
	}
	slot.AvailableSpots += count
	if slot.Status == models.SlotFull {
		slot.Status = models.SlotOpen
	}
}

type MemoryBookingRepository struct {
	state *memoryState
}

func (r *MemoryBookingRepository) CreateWithReservation(ctx context.Context, booking *models.Booking) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reserve(booking.AvailabilitySlotID, booking.Adults+booking.Children); err != nil {
		return err
	}
	s.bookingSeq++
	booking.ID = s.bookingSeq
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	s.bookings[booking.ID] = &stored
	s.byRef[booking.Reference] = booking.ID
	return nil
}

func (r *MemoryBookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	out := *b
	return &out, nil
}

func (r *MemoryBookingRepository) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byRef[reference]
	if !ok {
		return nil, nil
	}
	out := *s.bookings[id]
	return &out, nil
}

func (r *MemoryBookingRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byRef[reference]
	return ok, nil
}

func (r *MemoryBookingRepository) MarkConfirmed(ctx context.Context, id int64, at time.Time) (bool, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != models.BookingStatusPending {
		return false, nil
	}
	b.Status = models.BookingStatusConfirmed
	b.ConfirmedAt = &at
	return true, nil
}

func (r *MemoryBookingRepository) CancelWithRelease(ctx context.Context, id int64, reason string, byCustomer bool, at time.Time) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if !b.Status.CanTransitionTo(models.BookingStatusCancelled) {
		return apperrors.Businessf(apperrors.CodeInvalidTransition,
			"booking cannot be cancelled from status %q", b.Status)
	}
	b.Status = models.BookingStatusCancelled
	b.CancelledAt = &at
	b.CancellationReason = &reason
	b.CancelledByCustomer = &byCustomer
	s.release(b.AvailabilitySlotID, b.Adults+b.Children)
	return nil
}

func (r *MemoryBookingRepository) CancelPendingWithRelease(ctx context.Context, id int64, reason string, at time.Time) (bool, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if b.Status != models.BookingStatusPending {
		return false, nil
	}
	byCustomer := false
	b.Status = models.BookingStatusCancelled
	b.CancelledAt = &at
	b.CancellationReason = &reason
	b.CancelledByCustomer = &byCustomer
	s.release(b.AvailabilitySlotID, b.Adults+b.Children)
	return true, nil
}

func (r *MemoryBookingRepository) MarkCompleted(ctx context.Context, id int64) (bool, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != models.BookingStatusConfirmed {
		return false, nil
	}
	b.Status = models.BookingStatusCompleted
	return true, nil
}

func (r *MemoryBookingRepository) MarkRefunded(ctx context.Context, id int64) (bool, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return false, nil
	}
	if b.Status != models.BookingStatusConfirmed && b.Status != models.BookingStatusCompleted {
		return false, nil
	}
	b.Status = models.BookingStatusRefunded
	return true, nil
}

func (r *MemoryBookingRepository) GetExpiredPending(ctx context.Context, before time.Time) ([]models.Booking, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.Status == models.BookingStatusPending && b.CreatedAt.Before(before) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *MemoryBookingRepository) GetFinishedConfirmed(ctx context.Context, before time.Time) ([]models.Booking, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.Status == models.BookingStatusConfirmed && b.StartsAt().Before(before) {
			out = append(out, *b)
		}
	}
	return out, nil
}

type MemoryPaymentRepository struct {
	state *memoryState
}

func (r *MemoryPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentSeq++
	payment.ID = s.paymentSeq
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	stored := *payment
	s.payments[payment.ID] = &stored
	s.byIntent[payment.IntentID] = payment.ID
	return nil
}

func (r *MemoryPaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (r *MemoryPaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byIntent[intentID]
	if !ok {
		return nil, nil
	}
	out := *s.payments[id]
	return &out, nil
}

func (r *MemoryPaymentRepository) GetLatestByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Payment
	for _, p := range s.payments {
		if p.BookingID != bookingID {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

// MarkCompleted keeps the exactly-once guarantee of the conditional UPDATE:
// only a payment that has not yet completed flips.
func (r *MemoryPaymentRepository) MarkCompleted(ctx context.Context, intentID string, chargeID *string, at time.Time) (bool, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byIntent[intentID]
	if !ok {
		return false, nil
	}
	p := s.payments[id]
	switch p.Status {
	case models.PaymentStatusPending, models.PaymentStatusProcessing, models.PaymentStatusFailed:
		p.Status = models.PaymentStatusCompleted
		p.ChargeID = chargeID
		p.PaidAt = &at
		return true, nil
	}
	return false, nil
}

func (r *MemoryPaymentRepository) MarkFailed(ctx context.Context, intentID, reason string) (bool, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byIntent[intentID]
	if !ok {
		return false, nil
	}
	p := s.payments[id]
	switch p.Status {
	case models.PaymentStatusPending, models.PaymentStatusProcessing:
		p.Status = models.PaymentStatusFailed
		p.FailureReason = &reason
		return true, nil
	}
	return false, nil
}

func (r *MemoryPaymentRepository) ApplyRefund(ctx context.Context, id int64, refundID *string, refundAmount int64, status models.PaymentStatus, refundedAt *time.Time) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.RefundID = refundID
	p.RefundAmount = refundAmount
	p.Status = status
	p.RefundedAt = refundedAt
	return nil
}

type MemoryReviewRepository struct {
	state *memoryState
}

func (r *MemoryReviewRepository) CreateAndRecompute(ctx context.Context, review *models.Review) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviewSeq++
	review.ID = s.reviewSeq
	review.CreatedAt = time.Now()
	stored := *review
	s.reviews[review.ID] = &stored
	if review.BookingID != nil {
		s.byBooking[*review.BookingID] = review.ID
	}

	// Full recompute over published reviews, matching the SQL aggregate.
	var sum, count int
	for _, rv := range s.reviews {
		if rv.ActivityID == review.ActivityID && rv.Published {
			sum += rv.Rating
			count++
		}
	}
	if a, ok := s.activities[review.ActivityID]; ok {
		a.ReviewCount = count
		if count > 0 {
			a.RatingAverage = float64(int(float64(sum)/float64(count)*10+0.5)) / 10
		}
	}
	return nil
}

func (r *MemoryReviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[id]
	if !ok {
		return nil, nil
	}
	out := *rv
	return &out, nil
}

func (r *MemoryReviewRepository) ExistsForBooking(ctx context.Context, bookingID int64) (bool, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byBooking[bookingID]
	return ok, nil
}

func (r *MemoryReviewRepository) SetSupplierResponse(ctx context.Context, id int64, response string) (bool, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[id]
	if !ok || rv.SupplierResponse != nil {
		return false, nil
	}
	rv.SupplierResponse = &response
	return true, nil
}
