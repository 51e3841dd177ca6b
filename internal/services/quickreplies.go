package services

import (
	"context"
	"strings"

	"brosolve-backend-go/internal/models"

	"github.com/google/uuid"
)

type QuickReplyStore interface {
	ListQuickReplies(ctx context.Context, userID string) ([]models.QuickReply, error)
	CreateQuickReply(ctx context.Context, q *models.QuickReply) error
	QuickReplyByID(ctx context.Context, id string) (models.QuickReply, error)
	UpdateQuickReply(ctx context.Context, q *models.QuickReply) error
	DeleteQuickReply(ctx context.Context, id string) error
}

// QuickReplies manages canned staff responses. Global templates are shared by
// all staff; personal ones belong to their creator.
type QuickReplies struct {
	Store QuickReplyStore
	Clock Clock
}

type QuickReplyInput struct {
	Label string                 `validate:"required,max=80"`
	Text  string                 `validate:"required,max=2000"`
	Scope models.QuickReplyScope `validate:"omitempty,oneof=global personal"`
}

type QuickReplyPatch struct {
	Label *string
	Text  *string
	Scope *models.QuickReplyScope
}

func (s *QuickReplies) List(ctx context.Context, actor Actor) ([]models.QuickReply, error) {
	items, err := s.Store.ListQuickReplies(ctx, actor.ID)
	if err != nil {
		return nil, WrapError(err, "list quick replies")
	}
	return items, nil
}

func (s *QuickReplies) Create(ctx context.Context, actor Actor, in QuickReplyInput) (models.QuickReply, error) {
	in.Label = strings.TrimSpace(in.Label)
	in.Text = strings.TrimSpace(in.Text)
	if in.Scope == "" {
		in.Scope = models.ScopePersonal
	}
	if err := Validate(in); err != nil {
		return models.QuickReply{}, err
	}
	now := s.Clock.Now()
	q := models.QuickReply{
		ID:        uuid.NewString(),
		Label:     in.Label,
		Text:      in.Text,
		Scope:     in.Scope,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.CreateQuickReply(ctx, &q); err != nil {
		return models.QuickReply{}, WrapError(err, "create quick reply")
	}
	return q, nil
}

func (s *QuickReplies) Update(ctx context.Context, actor Actor, id string, patch QuickReplyPatch) (models.QuickReply, error) {
	q, err := s.editable(ctx, actor, id)
	if err != nil {
		return models.QuickReply{}, err
	}
	if patch.Label != nil {
		q.Label = strings.TrimSpace(*patch.Label)
	}
	if patch.Text != nil {
		q.Text = strings.TrimSpace(*patch.Text)
	}
	if patch.Scope != nil {
		q.Scope = *patch.Scope
	}
	if err := Validate(QuickReplyInput{Label: q.Label, Text: q.Text, Scope: q.Scope}); err != nil {
		return models.QuickReply{}, err
	}
	q.UpdatedAt = s.Clock.Now()
	if err := s.Store.UpdateQuickReply(ctx, &q); err != nil {
		return models.QuickReply{}, notFoundAs(err, "Quick reply not found")
	}
	return q, nil
}

func (s *QuickReplies) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.editable(ctx, actor, id); err != nil {
		return err
	}
	if err := s.Store.DeleteQuickReply(ctx, id); err != nil {
		return notFoundAs(err, "Quick reply not found")
	}
	return nil
}

func (s *QuickReplies) editable(ctx context.Context, actor Actor, id string) (models.QuickReply, error) {
	q, err := s.Store.QuickReplyByID(ctx, id)
	if err != nil {
		return models.QuickReply{}, notFoundAs(err, "Quick reply not found")
	}
	if q.Scope == models.ScopePersonal && q.CreatedBy != actor.ID {
		return models.QuickReply{}, ErrForbidden("You can only edit your own quick replies")
	}
	return q, nil
}
