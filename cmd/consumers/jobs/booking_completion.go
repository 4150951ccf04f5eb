package jobs

import (
	"context"
	"log/slog"
	"time"

	"tamasya/internal/repository"
)

const completionCheckInterval = 5 * time.Minute

// BookingCompletionJob sweeps confirmed bookings whose activity start has
// passed and marks them completed, which is what unlocks review writing.
type BookingCompletionJob struct {
	bookingRepo *repository.BookingRepository
	ticker      *time.Ticker
	done        chan bool
}

func NewBookingCompletionJob(bookingRepo *repository.BookingRepository) *BookingCompletionJob {
	return &BookingCompletionJob{
		bookingRepo: bookingRepo,
		done:        make(chan bool),
	}
}

func (j *BookingCompletionJob) Start(ctx context.Context) {
	slog.Info("Starting booking completion job", "check_interval", completionCheckInterval.String())

	j.ticker = time.NewTicker(completionCheckInterval)

	go j.sweepFinishedBookings(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweepFinishedBookings(ctx)
			case <-j.done:
				slog.Info("Booking completion job stopped")
				return
			}
		}
	}()
}

func (j *BookingCompletionJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *BookingCompletionJob) sweepFinishedBookings(ctx context.Context) {
	finished, err := j.bookingRepo.GetFinishedConfirmed(ctx, time.Now())
	if err != nil {
		slog.Error("Failed to get finished bookings", "error", err)
		return
	}

	if len(finished) == 0 {
		slog.Debug("No finished bookings to complete")
		return
	}

	slog.Info("Found finished bookings to complete", "count", len(finished))

	for _, booking := range finished {
		updated, err := j.bookingRepo.MarkCompleted(ctx, booking.ID)
		if err != nil {
			slog.Error("Failed to complete booking",
				"error", err,
				"booking_id", booking.ID,
				"reference", booking.Reference)
			continue
		}
		if !updated {
			// Another sweep or a manual transition got there first.
			continue
		}

		slog.Info("Booking marked completed",
			"booking_id", booking.ID,
			"reference", booking.Reference)
	}
}
