// Package notify fans complaint events out to recipients.
//
// In-app notices are written synchronously, one row per recipient. Email and
// WhatsApp delivery happens in the background and never fails the caller.
package notify

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"brosolve-backend-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	StaffUserIDs(ctx context.Context) ([]string, error)
}

// Pusher delivers a live event to a connected user, if any.
type Pusher interface {
	Push(userID, event string, payload interface{})
}

var statusBodies = map[models.Status]string{
	models.StatusInReview: "Your complaint is now under review",
	models.StatusResolved: "Your complaint has been resolved",
	models.StatusClosed:   "Your complaint has been closed",
}

type Options struct {
	// StaffEmail additionally receives new-complaint mail when set.
	StaffEmail      string
	DeliveryTimeout time.Duration
}

type Notifier struct {
	store    Store
	pusher   Pusher
	mailer   Mailer
	whatsapp WhatsApp
	log      *zap.Logger
	opts     Options
	now      func() time.Time
	wg       sync.WaitGroup
}

func New(store Store, pusher Pusher, mailer Mailer, whatsapp WhatsApp, log *zap.Logger, opts Options) *Notifier {
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = 30 * time.Second
	}
	return &Notifier{
		store:    store,
		pusher:   pusher,
		mailer:   mailer,
		whatsapp: whatsapp,
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

// MessagePosted notifies the other side of a new message: every staff user for
// a student message, the complaint owner for a staff message.
func (n *Notifier) MessagePosted(ctx context.Context, c models.Complaint, m models.Message) {
	var recipients []string
	body := fmt.Sprintf("Admin replied to \"%s\"", c.Title)
	if m.Sender == models.SideStudent {
		ids, err := n.store.StaffUserIDs(ctx)
		if err != nil {
			n.log.Error("load staff recipients", zap.String("complaint_id", c.ID), zap.Error(err))
			return
		}
		recipients = ids
		name := c.RaisedBy.Name
		if name == "" {
			name = "Student"
		}
		body = fmt.Sprintf("%s sent a message in \"%s\"", name, c.Title)
	} else {
		recipients = []string{c.RaisedBy.ID}
	}
	messageID := m.ID
	for _, userID := range recipients {
		n.persist(ctx, models.Notification{
			UserID:      userID,
			Type:        models.NotificationNewMessage,
			ComplaintID: c.ID,
			MessageID:   &messageID,
			Title:       "New message",
			Body:        body,
		})
	}
}

// StatusChanged tells the owner about a move into in_review, resolved or closed.
func (n *Notifier) StatusChanged(ctx context.Context, c models.Complaint, status models.Status) {
	body, ok := statusBodies[status]
	if !ok {
		return
	}
	n.persist(ctx, models.Notification{
		UserID:      c.RaisedBy.ID,
		Type:        models.NotificationStatusChange,
		ComplaintID: c.ID,
		Title:       "Status updated",
		Body:        body,
	})
}

func (n *Notifier) persist(ctx context.Context, notice models.Notification) {
	notice.ID = uuid.NewString()
	notice.CreatedAt = n.now().UTC()
	if err := n.store.CreateNotification(ctx, &notice); err != nil {
		n.log.Warn("notification write failed",
			zap.String("user_id", notice.UserID),
			zap.String("complaint_id", notice.ComplaintID),
			zap.String("type", string(notice.Type)),
			zap.Error(err))
		return
	}
	if n.pusher != nil {
		n.pusher.Push(notice.UserID, "notification", notice)
	}
}

func (n *Notifier) ComplaintCreated(c models.Complaint) {
	subject := "New Complaint: " + c.Title
	body := fmt.Sprintf(`<h2>New Complaint Created</h2>
<p><strong>Title:</strong> %s</p>
<p><strong>Category:</strong> %s</p>
<p><strong>Description:</strong> %s</p>
<p><strong>Raised by:</strong> %s (%s)</p>`,
		html.EscapeString(c.Title), html.EscapeString(c.Category), html.EscapeString(c.Description),
		html.EscapeString(c.RaisedBy.Name), html.EscapeString(c.RaisedBy.Email))
	n.deliver(c, "created", func(ctx context.Context) {
		n.mail(ctx, c, c.RaisedBy.Email, subject, body)
		if n.opts.StaffEmail != "" {
			n.mail(ctx, c, n.opts.StaffEmail, subject, body)
		}
		n.text(ctx, c, "New complaint created: "+c.Title)
	})
}

func (n *Notifier) ComplaintResolved(c models.Complaint) {
	subject := "Complaint Resolved: " + c.Title
	body := fmt.Sprintf(`<h2>Your Complaint Has Been Resolved</h2>
<p><strong>Title:</strong> %s</p>
<p><strong>Status:</strong> Resolved</p>
<p>Thank you for using BROSolve!</p>`, html.EscapeString(c.Title))
	n.deliver(c, "resolved", func(ctx context.Context) {
		n.mail(ctx, c, c.RaisedBy.Email, subject, body)
		n.text(ctx, c, fmt.Sprintf("Your complaint \"%s\" has been resolved.", c.Title))
	})
}

func (n *Notifier) deliver(c models.Complaint, event string, fn func(ctx context.Context)) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.log.Error("notification delivery panicked", zap.String("complaint_id", c.ID), zap.String("event", event), zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), n.opts.DeliveryTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (n *Notifier) mail(ctx context.Context, c models.Complaint, to, subject, body string) {
	if n.mailer == nil {
		return
	}
	result, err := n.mailer.Send(ctx, to, subject, body)
	if err != nil {
		n.log.Warn("email delivery failed", zap.String("complaint_id", c.ID), zap.Error(err))
		return
	}
	if !result.Sent {
		n.log.Debug("email skipped", zap.String("complaint_id", c.ID), zap.String("reason", result.Reason))
	}
}

func (n *Notifier) text(ctx context.Context, c models.Complaint, body string) {
	if n.whatsapp == nil || c.RaisedBy.Phone == "" {
		return
	}
	result, err := n.whatsapp.Send(ctx, c.RaisedBy.Phone, body)
	if err != nil {
		n.log.Warn("whatsapp delivery failed", zap.String("complaint_id", c.ID), zap.Error(err))
		return
	}
	if !result.Sent {
		n.log.Debug("whatsapp skipped", zap.String("complaint_id", c.ID), zap.String("reason", result.Reason))
	}
}

// Wait blocks until background deliveries finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
