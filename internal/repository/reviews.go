package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tamasya/internal/database"
	"tamasya/internal/models"
)

type ReviewRepository struct {
	db *database.DB
}

func NewReviewRepository(db *database.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// CreateAndRecompute inserts the review and recomputes the activity's rating
// aggregates in the same transaction. Aggregates are always recomputed from
// the full set of published reviews, never incremented, so concurrent writes
// cannot drift them.
func (r *ReviewRepository) CreateAndRecompute(ctx context.Context, review *models.Review) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO reviews (activity_id, user_id, booking_id, rating, content, published)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		review.ActivityID,
		review.UserID,
		review.BookingID,
		review.Rating,
		review.Content,
		review.Published,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}

	if err := recomputeActivityRating(ctx, tx, review.ActivityID); err != nil {
		return err
	}

	return tx.Commit()
}

func recomputeActivityRating(ctx context.Context, tx *sql.Tx, activityID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE activities
		SET rating_average = COALESCE((
		        SELECT ROUND(AVG(rating)::numeric, 1)
		        FROM reviews
		        WHERE activity_id = $1 AND published
		    ), 0),
		    review_count = (
		        SELECT COUNT(*)
		        FROM reviews
		        WHERE activity_id = $1 AND published
		    ),
		    updated_at = NOW()
		WHERE id = $1`, activityID)
	if err != nil {
		return fmt.Errorf("failed to recompute activity rating: %w", err)
	}
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	review := &models.Review{}
	query := `
		SELECT id, activity_id, user_id, booking_id, rating, content, supplier_response, published, created_at, updated_at
		FROM reviews
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&review.ID,
		&review.ActivityID,
		&review.UserID,
		&review.BookingID,
		&review.Rating,
		&review.Content,
		&review.SupplierResponse,
		&review.Published,
		&review.CreatedAt,
		&review.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return review, err
}

func (r *ReviewRepository) ExistsForBooking(ctx context.Context, bookingID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE booking_id = $1)`, bookingID,
	).Scan(&exists)
	return exists, err
}

// SetSupplierResponse stores the supplier's reply. The response can only be
// set once; returns false if one was already present.
func (r *ReviewRepository) SetSupplierResponse(ctx context.Context, id int64, response string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE reviews
		SET supplier_response = $2, updated_at = NOW()
		WHERE id = $1 AND supplier_response IS NULL`,
		id, response)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	return affected == 1, err
}
