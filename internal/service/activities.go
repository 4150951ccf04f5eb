package service

import (
	"context"
	"fmt"
	"log/slog"

	"tamasya/internal/errors"
	"tamasya/internal/models"
)

// ActivityService serves the activity catalog. Listings come from the search
// index; slot availability and single-activity reads stay on the primary
// store, which remains authoritative.
type ActivityService struct {
	activities ActivityStore
	slots      SlotStore
	cache      ActivityCache
	index      CatalogIndex
}

func NewActivityService(activities ActivityStore, slots SlotStore, cache ActivityCache, index CatalogIndex) *ActivityService {
	return &ActivityService{
		activities: activities,
		slots:      slots,
		cache:      cache,
		index:      index,
	}
}

// List returns a page of the catalog from the search index.
func (s *ActivityService) List(ctx context.Context, page, pageSize int) (models.ListActivitiesResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	items, err := s.index.List(ctx, page, pageSize)
	if err != nil {
		return nil, errors.Integration("list activities", err)
	}
	return items, nil
}

// GetByID returns a single activity, read through the cache.
func (s *ActivityService) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	if s.cache != nil {
		activity, err := s.cache.GetActivity(ctx, id)
		if err != nil {
			slog.Warn("Activity cache read failed", "activity_id", id, "error", err)
		} else if activity != nil {
			return activity, nil
		}
	}

	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	if activity == nil {
		return nil, errors.ErrNotFound
	}
	if s.cache != nil {
		if err := s.cache.SetActivity(ctx, activity); err != nil {
			slog.Warn("Activity cache write failed", "activity_id", id, "error", err)
		}
	}
	return activity, nil
}

// ListOpenSlots returns the bookable slots of an activity.
func (s *ActivityService) ListOpenSlots(ctx context.Context, activityID int64) ([]models.AvailabilitySlot, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	if activity == nil {
		return nil, errors.ErrNotFound
	}
	slots, err := s.slots.ListOpenByActivity(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}
