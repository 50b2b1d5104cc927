package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"requestdesk/internal/cache"
	"requestdesk/internal/event"
	"requestdesk/internal/model"
	"requestdesk/internal/repository"
)

type NotificationPage struct {
	Items  []model.Notification `json:"items"`
	Total  int64                `json:"total"`
	Unread int64                `json:"unread"`
}

type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID, page, limit int) (*NotificationPage, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type notificationService struct {
	repo     repository.NotificationRepository
	store    cache.Store
	events   event.Publisher
	cacheTTL time.Duration
	now      func() time.Time
}

func NewNotificationService(repo repository.NotificationRepository, store cache.Store, events event.Publisher, cacheTTL time.Duration) NotificationService {
	return &notificationService{repo: repo, store: store, events: events, cacheTTL: cacheTTL, now: time.Now}
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, page, limit int) (*NotificationPage, error) {
	key := cache.NotificationsKey(userID) + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(limit)
	return cache.Remember(ctx, s.store, key, s.cacheTTL, func() (*NotificationPage, error) {
		items, total, err := s.repo.ListByRecipient(ctx, userID, page, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list notifications: %w", err)
		}
		unread, err := s.repo.CountUnread(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count notifications: %w", err)
		}
		return &NotificationPage{Items: items, Total: total, Unread: unread}, nil
	})
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, userID, s.now()); err != nil {
		return lookupErr(err, "Notification")
	}
	s.changed(ctx, userID)
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllRead(ctx, userID, s.now()); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	s.changed(ctx, userID)
	return nil
}

func (s *notificationService) changed(ctx context.Context, userID uuid.UUID) {
	if err := s.store.DeletePrefix(ctx, cache.NotificationsKey(userID)); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("failed to invalidate notifications cache")
	}
	if err := s.events.Publish(ctx, event.NotificationsFor(userID)); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("failed to publish notifications event")
	}
}
