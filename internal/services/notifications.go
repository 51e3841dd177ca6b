package services

import (
	"context"

	"brosolve-backend-go/internal/models"
)

const notificationPageSize = 50

type NotificationStore interface {
	ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, userID, id string) (models.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	MarkComplaintNotificationsRead(ctx context.Context, userID, complaintID string) error
}

// Notifications is the recipient's read-state view. Every call is scoped to userID.
type Notifications struct {
	Store NotificationStore
}

func (s *Notifications) List(ctx context.Context, userID string) ([]models.Notification, int, error) {
	items, err := s.Store.ListNotifications(ctx, userID, notificationPageSize)
	if err != nil {
		return nil, 0, WrapError(err, "list notifications")
	}
	unread, err := s.Store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return nil, 0, WrapError(err, "count unread notifications")
	}
	return items, unread, nil
}

func (s *Notifications) MarkRead(ctx context.Context, userID, id string) (models.Notification, error) {
	n, err := s.Store.MarkNotificationRead(ctx, userID, id)
	if err != nil {
		return models.Notification{}, notFoundAs(err, "Notification not found")
	}
	return n, nil
}

func (s *Notifications) MarkAllRead(ctx context.Context, userID string) error {
	return WrapError(s.Store.MarkAllNotificationsRead(ctx, userID), "mark all read")
}

func (s *Notifications) MarkComplaintRead(ctx context.Context, userID, complaintID string) error {
	return WrapError(s.Store.MarkComplaintNotificationsRead(ctx, userID, complaintID), "mark complaint read")
}
