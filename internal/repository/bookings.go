package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"tamasya/internal/database"
	apperrors "tamasya/internal/errors"
	"tamasya/internal/models"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, reference, user_id, activity_id, availability_slot_id, adults, children,
	       contact_name, contact_email, contact_phone, special_requests,
	       booking_date, booking_time::text, price_adult, price_child, subtotal, service_fee,
	       total_amount, currency, status, confirmed_at, cancelled_at,
	       cancellation_reason, cancelled_by_customer, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }, b *models.Booking) error {
	return row.Scan(
		&b.ID,
		&b.Reference,
		&b.UserID,
		&b.ActivityID,
		&b.AvailabilitySlotID,
		&b.Adults,
		&b.Children,
		&b.ContactName,
		&b.ContactEmail,
		&b.ContactPhone,
		&b.SpecialRequests,
		&b.BookingDate,
		&b.BookingTime,
		&b.PriceAdult,
		&b.PriceChild,
		&b.Subtotal,
		&b.ServiceFee,
		&b.TotalAmount,
		&b.Currency,
		&b.Status,
		&b.ConfirmedAt,
		&b.CancelledAt,
		&b.CancellationReason,
		&b.CancelledByCustomer,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}

// CreateWithReservation inserts the booking and reserves its slot capacity in
// one transaction. If the reservation is rejected or the insert fails, the
// whole transaction rolls back and no spot leaks.
func (r *BookingRepository) CreateWithReservation(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := reserveSlot(ctx, tx, booking.AvailabilitySlotID, booking.Participants()); err != nil {
		return err
	}

	query := `
		INSERT INTO bookings (reference, user_id, activity_id, availability_slot_id, adults, children,
		                      contact_name, contact_email, contact_phone, special_requests,
		                      booking_date, booking_time, price_adult, price_child, subtotal,
		                      service_fee, total_amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		booking.Reference,
		booking.UserID,
		booking.ActivityID,
		booking.AvailabilitySlotID,
		booking.Adults,
		booking.Children,
		booking.ContactName,
		booking.ContactEmail,
		booking.ContactPhone,
		booking.SpecialRequests,
		booking.BookingDate,
		booking.BookingTime,
		booking.PriceAdult,
		booking.PriceChild,
		booking.Subtotal,
		booking.ServiceFee,
		booking.TotalAmount,
		booking.Currency,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	return tx.Commit()
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := scanBooking(r.db.QueryRowContext(ctx, query, id), booking)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return booking, err
}

func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`

	err := scanBooking(r.db.QueryRowContext(ctx, query, reference), booking)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return booking, err
}

func (r *BookingRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE reference = $1)`, reference,
	).Scan(&exists)
	return exists, err
}

// MarkConfirmed moves a pending booking to confirmed. Returns false when the
// booking was not in pending (already confirmed, cancelled, unknown).
func (r *BookingRepository) MarkConfirmed(ctx context.Context, id int64, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'confirmed', confirmed_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id, at)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	return affected == 1, err
}

// CancelWithRelease cancels the booking and returns its reserved spots to the
// slot in one transaction. Both mutations commit together or not at all.
func (r *BookingRepository) CancelWithRelease(ctx context.Context, id int64, reason string, byCustomer bool, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var slotID int64
	var adults, children int
	var status models.BookingStatus
	err = tx.QueryRowContext(ctx, `
		SELECT availability_slot_id, adults, children, status
		FROM bookings
		WHERE id = $1
		FOR UPDATE`, id,
	).Scan(&slotID, &adults, &children, &status)
	if err == sql.ErrNoRows {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock booking: %w", err)
	}

	if !status.CanTransitionTo(models.BookingStatusCancelled) {
		return apperrors.Businessf(apperrors.CodeInvalidTransition,
			"booking cannot be cancelled from status %q", status)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = $2, cancellation_reason = $3,
		    cancelled_by_customer = $4, updated_at = NOW()
		WHERE id = $1`, id, at, reason, byCustomer)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	if err := releaseSlot(ctx, tx, slotID, adults+children); err != nil {
		if err == errReleaseCancelledSlot {
			slog.Warn("Release skipped for cancelled slot",
				"booking_id", id,
				"slot_id", slotID)
		} else {
			return err
		}
	}

	return tx.Commit()
}

// CancelPendingWithRelease cancels the booking only while it is still
// pending, returning its reserved spots to the slot. Returns false when the
// booking has already left pending, so an expiry sweep cannot cancel a
// booking whose payment landed after the sweep listed it.
func (r *BookingRepository) CancelPendingWithRelease(ctx context.Context, id int64, reason string, at time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var slotID int64
	var adults, children int
	var status models.BookingStatus
	err = tx.QueryRowContext(ctx, `
		SELECT availability_slot_id, adults, children, status
		FROM bookings
		WHERE id = $1
		FOR UPDATE`, id,
	).Scan(&slotID, &adults, &children, &status)
	if err == sql.ErrNoRows {
		return false, apperrors.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock booking: %w", err)
	}

	if status != models.BookingStatusPending {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = $2, cancellation_reason = $3,
		    cancelled_by_customer = FALSE, updated_at = NOW()
		WHERE id = $1`, id, at, reason)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}

	if err := releaseSlot(ctx, tx, slotID, adults+children); err != nil {
		if err == errReleaseCancelledSlot {
			slog.Warn("Release skipped for cancelled slot",
				"booking_id", id,
				"slot_id", slotID)
		} else {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// MarkCompleted moves a confirmed booking to completed. Used by the
// time-based completion sweep.
func (r *BookingRepository) MarkCompleted(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'completed', updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed'`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	return affected == 1, err
}

// MarkRefunded moves a booking to refunded after a processor-side refund.
func (r *BookingRepository) MarkRefunded(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'refunded', updated_at = NOW()
		WHERE id = $1 AND status IN ('confirmed', 'completed')`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	return affected == 1, err
}

// GetExpiredPending retrieves pending bookings created before the cutoff.
func (r *BookingRepository) GetExpiredPending(ctx context.Context, before time.Time) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC`

	return r.queryBookings(ctx, query, before)
}

// GetFinishedConfirmed retrieves confirmed bookings whose activity start has
// passed the cutoff.
func (r *BookingRepository) GetFinishedConfirmed(ctx context.Context, before time.Time) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'confirmed' AND (booking_date + booking_time) < $1
		ORDER BY booking_date ASC`

	return r.queryBookings(ctx, query, before)
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	var bookings []models.Booking

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var booking models.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}
