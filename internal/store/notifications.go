package store

import (
	"context"

	"brosolve-backend-go/internal/models"
)

const notificationColumns = `id, user_id, type, complaint_id, message_id, title, body, is_read, created_at`

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO notifications (id, user_id, type, complaint_id, message_id, title, body, is_read, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, n.ID, n.UserID, n.Type, n.ComplaintID, n.MessageID, n.Title, n.Body, n.IsRead, n.CreatedAt)
	return mapErr(err)
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	items := []models.Notification{}
	err := s.DB.SelectContext(ctx, &items, `
SELECT `+notificationColumns+`
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	return items, err
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID)
	return count, err
}

// MarkNotificationRead only touches the row if it belongs to userID.
func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) (models.Notification, error) {
	var n models.Notification
	if !validID(id) {
		return n, models.ErrNotFound
	}
	err := s.DB.GetContext(ctx, &n, `
UPDATE notifications SET is_read = TRUE
WHERE id = $1 AND user_id = $2
RETURNING `+notificationColumns, id, userID)
	return n, mapErr(err)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	return err
}

func (s *Store) MarkComplaintNotificationsRead(ctx context.Context, userID, complaintID string) error {
	if !validID(complaintID) {
		return nil
	}
	_, err := s.DB.ExecContext(ctx, `
UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND complaint_id = $2 AND NOT is_read
`, userID, complaintID)
	return err
}
