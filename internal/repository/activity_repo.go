package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"requestdesk/internal/model"
)

// ActivityRepository records the change history of requests
type ActivityRepository interface {
	Log(ctx context.Context, entries ...*model.Activity) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Activity, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Log(ctx context.Context, entries ...*model.Activity) error {
	if len(entries) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(entries).Error
}

func (r *activityRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Activity, error) {
	var entries []model.Activity
	err := GetDB(ctx, r.db).
		Preload("User").
		Where("request_id = ?", requestID).
		Order("created_at desc").
		Find(&entries).Error
	return entries, err
}
