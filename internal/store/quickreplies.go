package store

import (
	"context"

	"brosolve-backend-go/internal/models"
)

const quickReplyColumns = `id, label, text, scope, created_by, created_at, updated_at`

// ListQuickReplies returns global templates plus the user's personal ones.
func (s *Store) ListQuickReplies(ctx context.Context, userID string) ([]models.QuickReply, error) {
	items := []models.QuickReply{}
	err := s.DB.SelectContext(ctx, &items, `
SELECT `+quickReplyColumns+`
FROM quick_replies
WHERE scope = 'global' OR created_by = $1
ORDER BY scope, label
`, userID)
	return items, err
}

func (s *Store) CreateQuickReply(ctx context.Context, q *models.QuickReply) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO quick_replies (id, label, text, scope, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
`, q.ID, q.Label, q.Text, q.Scope, q.CreatedBy, q.CreatedAt)
	return mapErr(err)
}

func (s *Store) QuickReplyByID(ctx context.Context, id string) (models.QuickReply, error) {
	var q models.QuickReply
	if !validID(id) {
		return q, models.ErrNotFound
	}
	err := s.DB.GetContext(ctx, &q, `SELECT `+quickReplyColumns+` FROM quick_replies WHERE id = $1`, id)
	return q, mapErr(err)
}

func (s *Store) UpdateQuickReply(ctx context.Context, q *models.QuickReply) error {
	res, err := s.DB.ExecContext(ctx, `
UPDATE quick_replies SET label = $1, text = $2, scope = $3, updated_at = $4 WHERE id = $5
`, q.Label, q.Text, q.Scope, q.UpdatedAt, q.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteQuickReply(ctx context.Context, id string) error {
	if !validID(id) {
		return models.ErrNotFound
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM quick_replies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
