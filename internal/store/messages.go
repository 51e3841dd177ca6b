package store

import (
	"context"
	"time"

	"brosolve-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type messageRow struct {
	ID            string             `db:"id"`
	ComplaintID   string             `db:"complaint_id"`
	AuthorID      string             `db:"author_id"`
	Sender        string             `db:"sender"`
	Channel       string             `db:"channel"`
	Body          string             `db:"body"`
	Type          string             `db:"type"`
	AudioURL      *string            `db:"audio_url"`
	Attachments   models.Attachments `db:"attachments"`
	SeenByAdmin   bool               `db:"seen_by_admin"`
	SeenByStudent bool               `db:"seen_by_student"`
	CreatedAt     time.Time          `db:"created_at"`
	AuthorName    string             `db:"author_name"`
	AuthorEmail   string             `db:"author_email"`
	AuthorRole    string             `db:"author_role"`
}

const messageSelect = `
SELECT m.id, m.complaint_id, m.author_id, m.sender, m.channel, m.body, m.type, m.audio_url, m.attachments,
       m.seen_by_admin, m.seen_by_student, m.created_at,
       u.name AS author_name, u.email AS author_email, u.role AS author_role
FROM complaint_messages m
JOIN users u ON u.id = m.author_id`

func (row messageRow) toModel() models.Message {
	return models.Message{
		ID:          row.ID,
		ComplaintID: row.ComplaintID,
		Author: models.UserSummary{
			ID:    row.AuthorID,
			Name:  row.AuthorName,
			Email: row.AuthorEmail,
			Role:  models.Role(row.AuthorRole),
		},
		Sender:        models.Side(row.Sender),
		Channel:       models.Channel(row.Channel),
		Body:          row.Body,
		Type:          models.MessageType(row.Type),
		AudioURL:      row.AudioURL,
		Attachments:   row.Attachments,
		SeenByAdmin:   row.SeenByAdmin,
		SeenByStudent: row.SeenByStudent,
		Reactions:     []models.Reaction{},
		CreatedAt:     row.CreatedAt,
	}
}

func viewClause(view models.MessageView) string {
	switch view {
	case models.ViewLedger:
		return `(m.channel = 'reply' OR m.type = 'audio')`
	case models.ViewLegacyReplies:
		return `m.channel = 'reply' AND m.type = 'text'`
	default:
		return `m.channel = 'chat'`
	}
}

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO complaint_messages (
  id, complaint_id, author_id, sender, channel, body, type, audio_url, attachments,
  seen_by_admin, seen_by_student, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`, m.ID, m.ComplaintID, m.Author.ID, m.Sender, m.Channel, m.Body, m.Type, m.AudioURL, m.Attachments,
		m.SeenByAdmin, m.SeenByStudent, m.CreatedAt)
	return mapErr(err)
}

// ListMessages returns one projection of the complaint's message log in append order, reactions included.
func (s *Store) ListMessages(ctx context.Context, complaintID string, view models.MessageView) ([]models.Message, error) {
	if !validID(complaintID) {
		return []models.Message{}, nil
	}
	rows := []messageRow{}
	if err := s.DB.SelectContext(ctx, &rows, messageSelect+`
WHERE m.complaint_id = $1 AND `+viewClause(view)+`
ORDER BY m.created_at, m.id`, complaintID); err != nil {
		return nil, err
	}
	items := make([]models.Message, 0, len(rows))
	ids := make([]string, 0, len(rows))
	index := map[string]int{}
	for i, row := range rows {
		items = append(items, row.toModel())
		ids = append(ids, row.ID)
		index[row.ID] = i
	}
	if len(ids) == 0 {
		return items, nil
	}
	reactions := []models.Reaction{}
	if err := s.DB.SelectContext(ctx, &reactions, `
SELECT message_id, user_id, emoji, created_at
FROM message_reactions
WHERE message_id = ANY($1)
ORDER BY created_at, id
`, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, reaction := range reactions {
		if i, ok := index[reaction.MessageID]; ok {
			items[i].Reactions = append(items[i].Reactions, reaction)
		}
	}
	return items, nil
}

// MarkMessagesSeen flags every chat message from the opposite side as seen by viewer.
func (s *Store) MarkMessagesSeen(ctx context.Context, complaintID string, viewer models.Side) error {
	if !validID(complaintID) {
		return nil
	}
	column := "seen_by_student"
	if viewer == models.SideAdmin {
		column = "seen_by_admin"
	}
	_, err := s.DB.ExecContext(ctx, `
UPDATE complaint_messages
SET `+column+` = TRUE
WHERE complaint_id = $1 AND channel = 'chat' AND sender = $2 AND NOT `+column,
		complaintID, viewer.Opposite())
	return err
}

// ApplyReaction toggles the user's reaction on a message of the complaint and
// returns the message's reactions afterwards. The message row is locked for the
// duration so concurrent toggles serialize.
func (s *Store) ApplyReaction(ctx context.Context, complaintID, messageID, userID, emoji string, at time.Time) ([]models.Reaction, error) {
	if !validID(complaintID) || !validID(messageID) {
		return nil, models.ErrNotFound
	}
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var locked string
	if err := tx.GetContext(ctx, &locked, `
SELECT id FROM complaint_messages WHERE id = $1 AND complaint_id = $2 FOR UPDATE
`, messageID, complaintID); err != nil {
		return nil, mapErr(err)
	}

	var existing *models.Reaction
	current := []models.Reaction{}
	if err := tx.SelectContext(ctx, &current, `
SELECT message_id, user_id, emoji, created_at FROM message_reactions WHERE message_id = $1 AND user_id = $2
`, messageID, userID); err != nil {
		return nil, err
	}
	if len(current) > 0 {
		existing = &current[0]
	}

	switch models.ResolveReaction(existing, emoji) {
	case models.ReactionAdd:
		_, err = tx.ExecContext(ctx, `
INSERT INTO message_reactions (id, message_id, user_id, emoji, created_at) VALUES ($1,$2,$3,$4,$5)
`, uuid.NewString(), messageID, userID, emoji, at)
	case models.ReactionReplace:
		_, err = tx.ExecContext(ctx, `
UPDATE message_reactions SET emoji = $1, created_at = $2 WHERE message_id = $3 AND user_id = $4
`, emoji, at, messageID, userID)
	case models.ReactionRemove:
		_, err = tx.ExecContext(ctx, `DELETE FROM message_reactions WHERE message_id = $1 AND user_id = $2`, messageID, userID)
	}
	if err != nil {
		return nil, mapErr(err)
	}

	reactions := []models.Reaction{}
	if err := tx.SelectContext(ctx, &reactions, `
SELECT message_id, user_id, emoji, created_at FROM message_reactions WHERE message_id = $1 ORDER BY created_at, id
`, messageID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return reactions, nil
}
