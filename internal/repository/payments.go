package repository

import (
	"context"
	"database/sql"
	"time"

	"tamasya/internal/database"
	"tamasya/internal/models"
)

type PaymentRepository struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, intent_id, charge_id, refund_id, amount, currency,
	       processor_amount, processor_currency, status, paid_at, refunded_at,
	       refund_amount, failure_reason, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }, p *models.Payment) error {
	return row.Scan(
		&p.ID,
		&p.BookingID,
		&p.IntentID,
		&p.ChargeID,
		&p.RefundID,
		&p.Amount,
		&p.Currency,
		&p.ProcessorAmount,
		&p.ProcessorCurrency,
		&p.Status,
		&p.PaidAt,
		&p.RefundedAt,
		&p.RefundAmount,
		&p.FailureReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (booking_id, intent_id, amount, currency, processor_amount, processor_currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		payment.BookingID,
		payment.IntentID,
		payment.Amount,
		payment.Currency,
		payment.ProcessorAmount,
		payment.ProcessorCurrency,
		payment.Status,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	err := scanPayment(r.db.QueryRowContext(ctx, query, id), payment)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return payment, err
}

func (r *PaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE intent_id = $1`

	err := scanPayment(r.db.QueryRowContext(ctx, query, intentID), payment)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return payment, err
}

// GetLatestByBookingID returns the most recent payment attempt for a booking.
func (r *PaymentRepository) GetLatestByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	err := scanPayment(r.db.QueryRowContext(ctx, query, bookingID), payment)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return payment, err
}

// MarkCompleted transitions the payment to completed at most once per intent.
// Returns false when the payment was already completed (or refunded), which
// is how duplicate webhook deliveries are absorbed.
func (r *PaymentRepository) MarkCompleted(ctx context.Context, intentID string, chargeID *string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = 'completed', charge_id = COALESCE($2, charge_id), paid_at = $3, updated_at = NOW()
		WHERE intent_id = $1 AND status IN ('pending', 'processing', 'failed')`,
		intentID, chargeID, at)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	return affected == 1, err
}

// MarkFailed records a failed attempt; completed payments are never demoted.
func (r *PaymentRepository) MarkFailed(ctx context.Context, intentID, reason string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = 'failed', failure_reason = $2, updated_at = NOW()
		WHERE intent_id = $1 AND status IN ('pending', 'processing')`,
		intentID, reason)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	return affected == 1, err
}

// ApplyRefund writes the cumulative refund bookkeeping. The status only
// becomes refunded once the cumulative amount covers the original charge.
func (r *PaymentRepository) ApplyRefund(ctx context.Context, id int64, refundID *string, refundAmount int64, status models.PaymentStatus, refundedAt *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET refund_id = COALESCE($2, refund_id), refund_amount = $3, status = $4,
		    refunded_at = COALESCE($5, refunded_at), updated_at = NOW()
		WHERE id = $1`,
		id, refundID, refundAmount, status, refundedAt)
	return err
}
