package jobs

import (
	"context"
	"log/slog"
	"time"

	"tamasya/internal/repository"
	"tamasya/internal/service"
)

const expirationCheckInterval = 30 * time.Second

// BookingExpirationJob cancels pending bookings whose payment window has
// lapsed, releasing their reserved spots back to the slot.
type BookingExpirationJob struct {
	bookingRepo *repository.BookingRepository
	bookings    *service.BookingService
	pendingTTL  time.Duration
	ticker      *time.Ticker
	done        chan bool
}

func NewBookingExpirationJob(bookingRepo *repository.BookingRepository, bookings *service.BookingService, pendingTTL time.Duration) *BookingExpirationJob {
	return &BookingExpirationJob{
		bookingRepo: bookingRepo,
		bookings:    bookings,
		pendingTTL:  pendingTTL,
		done:        make(chan bool),
	}
}

// Start begins the background job that checks for expired bookings.
func (j *BookingExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting booking expiration job",
		"check_interval", expirationCheckInterval.String(),
		"pending_ttl", j.pendingTTL.String())

	j.ticker = time.NewTicker(expirationCheckInterval)

	// Run initial check immediately
	go j.checkExpiredBookings(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.checkExpiredBookings(ctx)
			case <-j.done:
				slog.Info("Booking expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job.
func (j *BookingExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *BookingExpirationJob) checkExpiredBookings(ctx context.Context) {
	cutoff := time.Now().Add(-j.pendingTTL)

	expired, err := j.bookingRepo.GetExpiredPending(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to get expired bookings", "error", err)
		return
	}

	if len(expired) == 0 {
		slog.Debug("No expired bookings found")
		return
	}

	slog.Info("Found expired bookings to process", "count", len(expired))

	for _, booking := range expired {
		cancelled, err := j.bookings.ExpirePending(ctx, booking.ID, "Payment window expired")
		if err != nil {
			slog.Error("Failed to expire booking",
				"error", err,
				"booking_id", booking.ID,
				"reference", booking.Reference,
				"created_at", booking.CreatedAt)
			continue
		}
		if !cancelled {
			// Payment came through between the sweep and this cancel.
			slog.Info("Skipping expiry for booking no longer pending",
				"booking_id", booking.ID,
				"reference", booking.Reference)
			continue
		}

		slog.Info("Expired booking cancelled",
			"booking_id", booking.ID,
			"reference", booking.Reference,
			"elapsed", time.Since(booking.CreatedAt).String())
	}
}
