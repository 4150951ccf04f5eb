package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tamasya/internal/database"
	apperrors "tamasya/internal/errors"
	"tamasya/internal/models"
)

// errReleaseCancelledSlot marks a release attempt against a supplier-cancelled
// slot. Callers log it and keep going; the cancellation itself must not fail.
var errReleaseCancelledSlot = fmt.Errorf("release on cancelled slot")

type SlotRepository struct {
	db *database.DB
}

func NewSlotRepository(db *database.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Create(ctx context.Context, slot *models.AvailabilitySlot) error {
	query := `
		INSERT INTO availability_slots (activity_id, slot_date, start_time, total_spots, available_spots, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		slot.ActivityID,
		slot.SlotDate,
		slot.StartTime,
		slot.TotalSpots,
		slot.AvailableSpots,
		slot.Status,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*models.AvailabilitySlot, error) {
	slot := &models.AvailabilitySlot{}
	query := `
		SELECT id, activity_id, slot_date, start_time::text, total_spots, available_spots, status, created_at, updated_at
		FROM availability_slots
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&slot.ID,
		&slot.ActivityID,
		&slot.SlotDate,
		&slot.StartTime,
		&slot.TotalSpots,
		&slot.AvailableSpots,
		&slot.Status,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return slot, err
}

func (r *SlotRepository) ListOpenByActivity(ctx context.Context, activityID int64) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	query := `
		SELECT id, activity_id, slot_date, start_time::text, total_spots, available_spots, status, created_at, updated_at
		FROM availability_slots
		WHERE activity_id = $1 AND status = 'open' AND slot_date >= CURRENT_DATE
		ORDER BY slot_date, start_time`

	rows, err := r.db.QueryContext(ctx, query, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var slot models.AvailabilitySlot
		err := rows.Scan(
			&slot.ID,
			&slot.ActivityID,
			&slot.SlotDate,
			&slot.StartTime,
			&slot.TotalSpots,
			&slot.AvailableSpots,
			&slot.Status,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// reserveSlot atomically checks and decrements capacity inside the caller's
// transaction. The conditional UPDATE serializes concurrent reservations on
// the row lock: with one spot left, exactly one of two racing calls matches
// the WHERE clause. The slot flips to full in the same statement when the
// decrement reaches zero.
func reserveSlot(ctx context.Context, tx *sql.Tx, slotID int64, count int) error {
	query := `
		UPDATE availability_slots
		SET available_spots = available_spots - $2,
		    status = CASE WHEN available_spots - $2 = 0 THEN 'full' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'open' AND available_spots >= $2`

	result, err := tx.ExecContext(ctx, query, slotID, count)
	if err != nil {
		return fmt.Errorf("failed to reserve slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Rejected: figure out which business rule failed.
	var status string
	var available int
	err = tx.QueryRowContext(ctx,
		`SELECT status, available_spots FROM availability_slots WHERE id = $1`, slotID,
	).Scan(&status, &available)
	if err == sql.ErrNoRows {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect slot: %w", err)
	}

	// A full slot is a capacity rejection, not an availability one; only
	// cancelled slots are genuinely unbookable.
	if models.SlotStatus(status) == models.SlotCancelled {
		return apperrors.Business(apperrors.CodeSlotNotOpen, "this time slot is no longer open for booking")
	}
	switch available {
	case 0:
		return apperrors.Business(apperrors.CodeInsufficientCapacity, "No spots left")
	case 1:
		return apperrors.Business(apperrors.CodeInsufficientCapacity, "Only 1 spot left")
	default:
		return apperrors.Businessf(apperrors.CodeInsufficientCapacity, "Only %d spots left", available)
	}
}

// releaseSlot gives capacity back inside the caller's transaction and flips
// full slots back to open. Releasing against a cancelled slot is a caller
// error: reported, never fatal.
func releaseSlot(ctx context.Context, tx *sql.Tx, slotID int64, count int) error {
	query := `
		UPDATE availability_slots
		SET available_spots = available_spots + $2,
		    status = CASE WHEN status = 'full' THEN 'open' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1 AND status <> 'cancelled'`

	result, err := tx.ExecContext(ctx, query, slotID, count)
	if err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errReleaseCancelledSlot
	}
	return nil
}
