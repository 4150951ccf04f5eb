package repository

import (
	"context"
	"database/sql"

	"tamasya/internal/database"
	"tamasya/internal/models"
)

type ActivityRepository struct {
	db *database.DB
}

func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, supplier_id, title, description, location, price_adult, price_child,
	       min_group_size, max_group_size, currency, rating_average, review_count, status,
	       created_at, updated_at`

func scanActivity(row interface{ Scan(...any) error }, a *models.Activity) error {
	return row.Scan(
		&a.ID,
		&a.SupplierID,
		&a.Title,
		&a.Description,
		&a.Location,
		&a.PriceAdult,
		&a.PriceChild,
		&a.MinGroupSize,
		&a.MaxGroupSize,
		&a.Currency,
		&a.RatingAverage,
		&a.ReviewCount,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	query := `
		INSERT INTO activities (supplier_id, title, description, location, price_adult, price_child,
		                        min_group_size, max_group_size, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		activity.SupplierID,
		activity.Title,
		activity.Description,
		activity.Location,
		activity.PriceAdult,
		activity.PriceChild,
		activity.MinGroupSize,
		activity.MaxGroupSize,
		activity.Currency,
		activity.Status,
	).Scan(&activity.ID, &activity.CreatedAt, &activity.UpdatedAt)
}

func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	activity := &models.Activity{}
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`

	err := scanActivity(r.db.QueryRowContext(ctx, query, id), activity)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return activity, err
}

func (r *ActivityRepository) List(ctx context.Context, page, pageSize int) ([]models.Activity, error) {
	var activities []models.Activity
	query := `SELECT ` + activityColumns + ` FROM activities WHERE status = 'active' ORDER BY id ASC`

	args := []interface{}{}
	if page > 0 && pageSize > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, pageSize, (page-1)*pageSize)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var activity models.Activity
		if err := scanActivity(rows, &activity); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}

	return activities, rows.Err()
}
