package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"requestdesk/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, notes []model.Notification) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]model.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	// MarkRead returns gorm.ErrRecordNotFound when the notification does not
	// belong to recipientID.
	MarkRead(ctx context.Context, id, recipientID uuid.UUID, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID, at time.Time) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notes []model.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&notes).Error
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]model.Notification, int64, error) {
	var notes []model.Notification
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Notification{}).Where("recipient_id = ?", recipientID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&notes).Error; err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Count(&n).Error
	return n, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID, at time.Time) error {
	res := GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read_at", gorm.Expr("COALESCE(read_at, ?)", at))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Update("read_at", at).Error
}
