package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tamasya/internal/errors"
	"tamasya/internal/models"
	"tamasya/internal/repository"
)

func newTestEnv() (*repository.MemoryRepositories, *fakePublisher, *BookingService) {
	repos := repository.NewMemoryRepositories()
	publisher := &fakePublisher{}
	refs := NewReferenceGenerator("BK", repos.Bookings)
	svc := NewBookingService(repos.Activities, repos.Slots, repos.Bookings, nil, refs, publisher)
	return repos, publisher, svc
}

func seedActivity(t *testing.T, repos *repository.MemoryRepositories) *models.Activity {
	t.Helper()
	activity := &models.Activity{
		ID:           1,
		SupplierID:   10,
		Title:        "Mount Batur Sunrise Trek",
		PriceAdult:   100000,
		MinGroupSize: 1,
		MaxGroupSize: 10,
		Currency:     "IDR",
		Status:       "active",
	}
	require.NoError(t, repos.Activities.Create(context.Background(), activity))
	return activity
}

func seedSlot(t *testing.T, repos *repository.MemoryRepositories, spots int) *models.AvailabilitySlot {
	t.Helper()
	slot := &models.AvailabilitySlot{
		ID:             1,
		ActivityID:     1,
		SlotDate:       time.Now().AddDate(0, 0, 7),
		StartTime:      "08:00:00",
		TotalSpots:     spots,
		AvailableSpots: spots,
		Status:         models.SlotOpen,
	}
	require.NoError(t, repos.Slots.Create(context.Background(), slot))
	return slot
}

func createRequest() *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		ActivityID:         1,
		AvailabilitySlotID: 1,
		Adults:             2,
		Children:           1,
		ContactName:        "Ayu Lestari",
		ContactEmail:       "ayu@example.com",
		ContactPhone:       "+62811111111",
	}
}

func TestCreateBooking(t *testing.T) {
	repos, publisher, svc := newTestEnv()
	seedActivity(t, repos)
	seedSlot(t, repos, 10)

	resp, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusPending, resp.Status)
	assert.Regexp(t, `^BK-\d{4}-[A-Z2-9]{6}$`, resp.Reference)
	assert.Equal(t, int64(100000), resp.PriceAdult)
	assert.Equal(t, int64(70000), resp.PriceChild)
	assert.Equal(t, int64(270000), resp.Subtotal)
	assert.Equal(t, int64(13500), resp.ServiceFee)
	assert.Equal(t, int64(283500), resp.TotalAmount)
	assert.Equal(t, resp.Subtotal+resp.ServiceFee, resp.TotalAmount)

	slot, _ := repos.Slots.GetByID(context.Background(), 1)
	assert.Equal(t, 7, slot.AvailableSpots)
	assert.Equal(t, 1, publisher.published(models.EventBookingCreated))
}

func TestCreateBookingGroupSizeOutOfBounds(t *testing.T) {
	repos, _, svc := newTestEnv()
	activity := seedActivity(t, repos)
	activity.MinGroupSize = 2
	require.NoError(t, repos.Activities.Update(context.Background(), activity))
	seedSlot(t, repos, 10)

	req := createRequest()
	req.Adults = 1
	req.Children = 0

	_, err := svc.Create(context.Background(), req)
	be, ok := apperrors.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeGroupSizeOutOfBounds, be.Code)

	// Rejection must not touch capacity.
	slot, _ := repos.Slots.GetByID(context.Background(), 1)
	assert.Equal(t, 10, slot.AvailableSpots)
}

func TestCreateBookingInsufficientCapacity(t *testing.T) {
	repos, _, svc := newTestEnv()
	seedActivity(t, repos)
	seedSlot(t, repos, 2)

	_, err := svc.Create(context.Background(), createRequest())
	be, ok := apperrors.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInsufficientCapacity, be.Code)
	assert.Equal(t, "Only 2 spots left", be.Message)
}

func TestCreateBookingFullSlotIsCapacityRejection(t *testing.T) {
	repos, _, svc := newTestEnv()
	seedActivity(t, repos)
	slot := seedSlot(t, repos, 3)

	// Exhaust the slot so it flips to full, then book against it again.
	req := createRequest()
	req.Adults = 3
	req.Children = 0
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	stored, _ := repos.Slots.GetByID(context.Background(), slot.ID)
	require.Equal(t, models.SlotFull, stored.Status)

	_, err = svc.Create(context.Background(), createRequest())
	be, ok := apperrors.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInsufficientCapacity, be.Code)
	assert.Equal(t, "No spots left", be.Message)
}

func TestCreateBookingCancelledSlotRejected(t *testing.T) {
	repos, _, svc := newTestEnv()
	seedActivity(t, repos)
	slot := seedSlot(t, repos, 3)

	slot.Status = models.SlotCancelled
	require.NoError(t, repos.Slots.Update(context.Background(), slot))

	_, err := svc.Create(context.Background(), createRequest())
	be, ok := apperrors.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeSlotNotOpen, be.Code)
}

func TestCreateBookingUnknownSlot(t *testing.T) {
	repos, _, svc := newTestEnv()
	seedActivity(t, repos)

	_, err := svc.Create(context.Background(), createRequest())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestNoOversell(t *testing.T) {
	repos, _, svc := newTestEnv()
	seedActivity(t, repos)
	const spots = 5
	seedSlot(t, repos, spots)

	var wg sync.WaitGroup
	results := make(chan error, spots+1)
	for i := 0; i < spots+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := createRequest()
			req.Adults = 1
			req.Children = 0
			_, err := svc.Create(context.Background(), req)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, rejections := 0, 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		be, ok := apperrors.AsBusiness(err)
		require.True(t, ok, "unexpected error: %v", err)
		assert.Equal(t, apperrors.CodeInsufficientCapacity, be.Code)
		rejections++
	}
	assert.Equal(t, spots, successes)
	assert.Equal(t, 1, rejections)

	slot, _ := repos.Slots.GetByID(context.Background(), 1)
	assert.Equal(t, 0, slot.AvailableSpots)
	assert.Equal(t, models.SlotFull, slot.Status)
}

func TestConfirmBooking(t *testing.T) {
	repos, publisher, svc := newTestEnv()
	seedActivity(t, repos)
	seedSlot(t, repos, 10)

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	confirmed, err := svc.Confirm(context.Background(), created.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, 1, publisher.published(models.EventBookingConfirmed))

	// A second confirm is rejected as an invalid transition.
	_, err = svc.Confirm(context.Background(), created.Reference)
	be, ok := apperrors.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidTransition, be.Code)
}

func TestCancelReleasesCapacity(t *testing.T) {
	repos, publisher, svc := newTestEnv()
	seedActivity(t, repos)
	seedSlot(t, repos, 3)

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	slot, _ := repos.Slots.GetByID(context.Background(), 1)
	require.Equal(t, 0, slot.AvailableSpots)
	require.Equal(t, models.SlotFull, slot.Status)

	reason := "Change of plans"
	cancelled, err := svc.Cancel(context.Background(), created.Reference, &models.CancelBookingRequest{Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledByCustomer)
	assert.True(t, *cancelled.CancelledByCustomer)
	assert.Equal(t, &reason, cancelled.CancellationReason)

	// The full slot reopens with its capacity restored.
	slot, _ = repos.Slots.GetByID(context.Background(), 1)
	assert.Equal(t, 3, slot.AvailableSpots)
	assert.Equal(t, models.SlotOpen, slot.Status)
	assert.Equal(t, 1, publisher.published(models.EventBookingCancelled))
}

func TestExpirePendingCancelsAndReleases(t *testing.T) {
	repos, publisher, svc := newTestEnv()
	seedActivity(t, repos)
	seedSlot(t, repos, 10)

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	expired, err := svc.ExpirePending(context.Background(), created.ID, "Payment window expired")
	require.NoError(t, err)
	assert.True(t, expired)

	got, err := svc.GetByReference(context.Background(), created.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, got.Status)
	require.NotNil(t, got.CancelledByCustomer)
	assert.False(t, *got.CancelledByCustomer)

	slot, _ := repos.Slots.GetByID(context.Background(), 1)
	assert.Equal(t, 10, slot.AvailableSpots)
	assert.Equal(t, 1, publisher.published(models.EventBookingCancelled))
}

func TestExpirePendingSkipsConfirmedBooking(t *testing.T) {
	repos, publisher, svc := newTestEnv()
	seedActivity(t, repos)
	seedSlot(t, repos, 10)

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	// Payment confirmation lands after the expiry sweep listed the booking
	// but before it gets around to cancelling it.
	_, err = svc.Confirm(context.Background(), created.Reference)
	require.NoError(t, err)

	expired, err := svc.ExpirePending(context.Background(), created.ID, "Payment window expired")
	require.NoError(t, err)
	assert.False(t, expired)

	got, err := svc.GetByReference(context.Background(), created.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)
	assert.Nil(t, got.CancelledAt)

	// The confirmed booking keeps its seats.
	slot, _ := repos.Slots.GetByID(context.Background(), 1)
	assert.Equal(t, 7, slot.AvailableSpots)
	assert.Equal(t, 0, publisher.published(models.EventBookingCancelled))
}

func TestCancelTerminalBookingRejected(t *testing.T) {
	repos, _, svc := newTestEnv()
	seedActivity(t, repos)
	seedSlot(t, repos, 10)

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), created.Reference, nil)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), created.Reference, nil)
	be, ok := apperrors.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidTransition, be.Code)
}

func TestCancelOutsideFreeWindowStillAllowed(t *testing.T) {
	repos, _, svc := newTestEnv()
	seedActivity(t, repos)

	start := time.Now().UTC().Add(2 * time.Hour)
	slot := &models.AvailabilitySlot{
		ID:             1,
		ActivityID:     1,
		SlotDate:       start,
		StartTime:      start.Format("15:04:05"),
		TotalSpots:     10,
		AvailableSpots: 10,
		Status:         models.SlotOpen,
	}
	require.NoError(t, repos.Slots.Create(context.Background(), slot))

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)
	assert.False(t, created.FreeCancellation)

	// The 24h window affects fees only, never cancellation eligibility.
	cancelled, err := svc.Cancel(context.Background(), created.Reference, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
}

func TestPriceSnapshotSurvivesPriceChange(t *testing.T) {
	repos, _, svc := newTestEnv()
	activity := seedActivity(t, repos)
	seedSlot(t, repos, 10)

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	activity.PriceAdult = 999999
	require.NoError(t, repos.Activities.Update(context.Background(), activity))

	got, err := svc.GetByReference(context.Background(), created.Reference)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), got.PriceAdult)
	assert.Equal(t, int64(283500), got.TotalAmount)
}

func TestQuoteMatchesBookingTotals(t *testing.T) {
	repos, _, svc := newTestEnv()
	seedActivity(t, repos)
	seedSlot(t, repos, 10)

	quote, err := svc.Quote(context.Background(), &models.QuoteRequest{ActivityID: 1, Adults: 2, Children: 1})
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	assert.Equal(t, quote.Total, created.TotalAmount)
	assert.Equal(t, quote.Subtotal, created.Subtotal)
	assert.Equal(t, quote.ServiceFee, created.ServiceFee)

	// Quoting never touches capacity.
	slot, _ := repos.Slots.GetByID(context.Background(), 1)
	assert.Equal(t, 7, slot.AvailableSpots)
}
