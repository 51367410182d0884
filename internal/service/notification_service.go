package service

import (
	"context"
	"fmt"

	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/repository"
)

const defaultNotificationLimit = 50

// NotificationService is the read side of the inbox; notification.Service
// writes to it.
type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*repository.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, userID, id string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, id string) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*repository.Notification, error) {
	if limit <= 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}
	return s.notificationRepo.FindByUserID(ctx, userID, unreadOnly, limit)
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *notificationService) owned(ctx context.Context, userID, id string) error {
	n, err := s.notificationRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find notification: %w", err)
	}
	// someone else's notification looks the same as a missing one
	if n == nil || n.UserID != userID {
		return apperrors.NotFound("Notification not found")
	}
	return nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id string) error {
	if err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.notificationRepo.MarkAsRead(ctx, id)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.notificationRepo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, userID, id string) error {
	if err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.notificationRepo.Delete(ctx, id)
}
