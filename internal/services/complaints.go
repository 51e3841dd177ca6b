package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxAttachments is the per-request cap; extra files are dropped.
const MaxAttachments = 3

type ComplaintStore interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	ComplaintByID(ctx context.Context, id string) (models.Complaint, error)
	ListComplaints(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, int, error)
	UpdateComplaintStatus(ctx context.Context, change models.StatusChange) error
	RateComplaint(ctx context.Context, id string, allowed []models.Status, rating models.Rating) error
}

type ReplyLister interface {
	ListMessages(ctx context.Context, complaintID string, view models.MessageView) ([]models.Message, error)
}

type Notifier interface {
	MessagePosted(ctx context.Context, c models.Complaint, m models.Message)
	StatusChanged(ctx context.Context, c models.Complaint, status models.Status)
	ComplaintCreated(c models.Complaint)
	ComplaintResolved(c models.Complaint)
}

type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type Complaints struct {
	Store      ComplaintStore
	Replies    ReplyLister
	Categories *Categories
	Files      storage.Storage
	Notifier   Notifier
	Audit      *Audit
	Log        *zap.Logger
	Clock      Clock
}

// CreateComplaintInput mirrors the submission form, including the legacy field aliases.
type CreateComplaintInput struct {
	Title             string
	Description       string
	Category          string
	CenterType        string
	ContactPreference string
	ContactMethod     string
	AllowWebReply     *bool
	ReplyInWeb        *bool
	Files             []Upload
}

// complaintForm is the canonical, validated shape after aliases are resolved.
type complaintForm struct {
	Title             string                   `validate:"required,max=200"`
	Description       string                   `validate:"required,max=5000"`
	Category          string                   `validate:"required"`
	CenterType        models.CenterType        `validate:"oneof=online brocamp hybrid other"`
	ContactPreference models.ContactPreference `validate:"oneof=call whatsapp email in_web"`
	AllowWebReply     bool
}

func (s *Complaints) Create(ctx context.Context, actor Actor, meta RequestMeta, in CreateComplaintInput) (models.Complaint, error) {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	if in.Category == "" || in.Description == "" {
		return models.Complaint{}, ErrBadRequest("Category and description are required")
	}
	category, err := s.Categories.ResolveActive(ctx, in.Category)
	if err != nil {
		return models.Complaint{}, err
	}

	form := complaintForm{
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		Category:          category.Name,
		CenterType:        models.CenterType(strings.TrimSpace(in.CenterType)),
		ContactPreference: models.ContactPreference(firstNonEmpty(in.ContactPreference, in.ContactMethod, string(models.ContactInWeb))),
		AllowWebReply:     firstBool(in.AllowWebReply, in.ReplyInWeb, true),
	}
	if form.Title == "" {
		form.Title = category.Name + " Complaint"
	}
	if form.CenterType == "" {
		form.CenterType = models.CenterOnline
	}
	if err := Validate(form); err != nil {
		return models.Complaint{}, err
	}

	attachments, err := s.saveFiles(ctx, in.Files)
	if err != nil {
		return models.Complaint{}, err
	}

	now := s.Clock.Now()
	c := models.Complaint{
		ID:                uuid.NewString(),
		Title:             form.Title,
		Description:       form.Description,
		Category:          form.Category,
		CenterType:        form.CenterType,
		ContactPreference: form.ContactPreference,
		AllowWebReply:     form.AllowWebReply,
		Status:            models.StatusOpen,
		Attachments:       attachments,
		RaisedBy:          actor.Summary(),
		CreatedAt:         now,
		UpdatedAt:         now,
		Replies:           []models.Message{},
	}
	if err := s.Store.CreateComplaint(ctx, &c); err != nil {
		return models.Complaint{}, WrapError(err, "create complaint")
	}
	if created, err := s.Store.ComplaintByID(ctx, c.ID); err == nil {
		created.Replies = []models.Message{}
		c = created
	}
	s.Audit.Record(ctx, actor, meta, "create", "complaint", c.ID, models.Details{"category": c.Category})
	s.Notifier.ComplaintCreated(c)
	return c, nil
}

func (s *Complaints) saveFiles(ctx context.Context, files []Upload) (models.Attachments, error) {
	if len(files) > MaxAttachments {
		files = files[:MaxAttachments]
	}
	attachments := models.Attachments{}
	for _, file := range files {
		obj, err := s.Files.Save(ctx, storage.FolderFiles, file.Filename, file.ContentType, file.Body)
		if errors.Is(err, storage.ErrEmptyFile) {
			return nil, ErrBadRequest("Uploaded file is empty")
		}
		if err != nil {
			return nil, WrapError(err, "save attachment")
		}
		attachments = append(attachments, models.Attachment{
			Filename: obj.Filename,
			URL:      obj.URL,
			Mimetype: file.ContentType,
		})
	}
	return attachments, nil
}

// List applies the caller's visibility: students only ever see their own complaints.
func (s *Complaints) List(ctx context.Context, actor Actor, f models.ComplaintFilter) ([]models.Complaint, int, error) {
	if !actor.IsStaff() {
		f.RaisedBy = actor.ID
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	items, total, err := s.Store.ListComplaints(ctx, f)
	if err != nil {
		return nil, 0, WrapError(err, "list complaints")
	}
	for i := range items {
		items[i].Replies = []models.Message{}
	}
	return items, total, nil
}

// Get loads a complaint the actor may see, with the legacy replies projection attached.
func (s *Complaints) Get(ctx context.Context, actor Actor, id string) (models.Complaint, error) {
	c, err := s.load(ctx, actor, id)
	if err != nil {
		return models.Complaint{}, err
	}
	replies, err := s.Replies.ListMessages(ctx, c.ID, models.ViewLegacyReplies)
	if err != nil {
		return models.Complaint{}, WrapError(err, "load replies")
	}
	c.Replies = replies
	return c, nil
}

func (s *Complaints) load(ctx context.Context, actor Actor, id string) (models.Complaint, error) {
	c, err := s.Store.ComplaintByID(ctx, id)
	if err != nil {
		return models.Complaint{}, notFoundAs(err, "Complaint not found")
	}
	if !canAccess(actor, c) {
		return models.Complaint{}, ErrForbidden("Unauthorized")
	}
	return c, nil
}

// ChangeStatus validates and applies one lifecycle transition. The write is
// conditional on the status the decision was made against; losing a race
// yields 409 with nothing changed.
func (s *Complaints) ChangeStatus(ctx context.Context, actor Actor, meta RequestMeta, id string, to models.Status, route Route) (models.Complaint, error) {
	c, err := s.Store.ComplaintByID(ctx, id)
	if err != nil {
		return models.Complaint{}, notFoundAs(err, "Complaint not found")
	}
	isOwner := c.RaisedBy.ID == actor.ID
	if err := Transition(actor.Role, isOwner, c.Status, to, route); err != nil {
		return models.Complaint{}, err
	}

	now := s.Clock.Now()
	change := models.StatusChange{ComplaintID: c.ID, From: c.Status, To: to, At: now}
	if to == models.StatusResolved {
		assignee := actor.ID
		change.AssignedTo = &assignee
		change.ResolvedAt = &now
	}
	if err := s.Store.UpdateComplaintStatus(ctx, change); err != nil {
		switch {
		case errors.Is(err, models.ErrStale):
			return models.Complaint{}, ErrConflict("Complaint status changed, reload and try again")
		case errors.Is(err, models.ErrNotFound):
			return models.Complaint{}, ErrNotFound("Complaint not found")
		}
		return models.Complaint{}, WrapError(err, "update status")
	}

	updated, err := s.Store.ComplaintByID(ctx, c.ID)
	if err != nil {
		return models.Complaint{}, WrapError(err, "reload complaint")
	}

	action := "status_update"
	switch route {
	case RouteClose:
		action = "close"
	case RouteSolve:
		action = "solve"
	}
	s.Audit.Record(ctx, actor, meta, action, "complaint", c.ID, models.Details{
		"previousStatus": string(c.Status),
		"newStatus":      string(to),
	})

	if route != RouteClose && !isOwner {
		s.Notifier.StatusChanged(ctx, updated, to)
	}
	if to == models.StatusResolved {
		s.Notifier.ComplaintResolved(updated)
	}

	replies, err := s.Replies.ListMessages(ctx, c.ID, models.ViewLegacyReplies)
	if err != nil {
		s.Log.Warn("load replies after status change", zap.String("complaint_id", c.ID), zap.Error(err))
		replies = []models.Message{}
	}
	updated.Replies = replies
	return updated, nil
}

type RatingInput struct {
	Score   int    `validate:"gte=1,lte=5"`
	Comment string `validate:"max=1000"`
}

var ratableStatuses = []models.Status{models.StatusResolved, models.StatusClosed}

// Rate records the owner's satisfaction score. A second rating overwrites the first.
func (s *Complaints) Rate(ctx context.Context, actor Actor, meta RequestMeta, id string, in RatingInput) (models.Complaint, error) {
	c, err := s.Store.ComplaintByID(ctx, id)
	if err != nil {
		return models.Complaint{}, notFoundAs(err, "Complaint not found")
	}
	if actor.IsStaff() {
		return models.Complaint{}, ErrForbidden("Only students can rate complaints")
	}
	if c.RaisedBy.ID != actor.ID {
		return models.Complaint{}, ErrForbidden("Unauthorized")
	}
	if c.Status != models.StatusResolved && c.Status != models.StatusClosed {
		return models.Complaint{}, ErrBadRequest("Can only rate resolved or closed complaints")
	}
	if in.Score < 1 || in.Score > 5 {
		return models.Complaint{}, ErrBadRequest("Rating must be between 1 and 5")
	}
	in.Comment = strings.TrimSpace(in.Comment)
	if err := Validate(in); err != nil {
		return models.Complaint{}, err
	}

	rating := models.Rating{Score: in.Score, At: s.Clock.Now()}
	if in.Comment != "" {
		comment := in.Comment
		rating.Comment = &comment
	}
	if err := s.Store.RateComplaint(ctx, c.ID, ratableStatuses, rating); err != nil {
		if errors.Is(err, models.ErrStale) {
			return models.Complaint{}, ErrBadRequest("Can only rate resolved or closed complaints")
		}
		return models.Complaint{}, WrapError(err, "rate complaint")
	}
	s.Audit.Record(ctx, actor, meta, "rate", "complaint", c.ID, models.Details{"score": in.Score})
	return s.Get(ctx, actor, c.ID)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func firstBool(values ...interface{}) bool {
	for _, value := range values {
		switch v := value.(type) {
		case *bool:
			if v != nil {
				return *v
			}
		case bool:
			return v
		}
	}
	return false
}
