package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"brosolve-backend-go/internal/memstore"
	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/storage"
	"brosolve-backend-go/internal/typing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type notifierCall struct {
	kind      string
	complaint string
	message   string
	status    models.Status
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
}

func (n *recordingNotifier) record(call notifierCall) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, call)
}

func (n *recordingNotifier) MessagePosted(ctx context.Context, c models.Complaint, m models.Message) {
	n.record(notifierCall{kind: "message", complaint: c.ID, message: m.ID})
}

func (n *recordingNotifier) StatusChanged(ctx context.Context, c models.Complaint, status models.Status) {
	n.record(notifierCall{kind: "status", complaint: c.ID, status: status})
}

func (n *recordingNotifier) ComplaintCreated(c models.Complaint) {
	n.record(notifierCall{kind: "created", complaint: c.ID})
}

func (n *recordingNotifier) ComplaintResolved(c models.Complaint) {
	n.record(notifierCall{kind: "resolved", complaint: c.ID})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := []string{}
	for _, call := range n.calls {
		out = append(out, call.kind)
	}
	return out
}

type fixture struct {
	store        *memstore.Store
	notifier     *recordingNotifier
	identity     *Identity
	categories   *Categories
	complaints   *Complaints
	chat         *Chat
	analytics    *Analytics
	exports      *Exports
	quickReplies *QuickReplies
	notices      *Notifications
	audit        *Audit

	student Actor
	other   Actor
	admin   Actor
	super   Actor
}

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	clock := Clock(func() time.Time { return fixedNow })
	log := zap.NewNop()
	notifier := &recordingNotifier{}

	audit := &Audit{Store: store, Log: log, Clock: clock}
	categories := &Categories{Store: store, Audit: audit, Clock: clock}
	complaints := &Complaints{
		Store:      store,
		Replies:    store,
		Categories: categories,
		Files:      files,
		Notifier:   notifier,
		Audit:      audit,
		Log:        log,
		Clock:      clock,
	}
	f := &fixture{
		store:      store,
		notifier:   notifier,
		identity:   &Identity{Users: store, Tokens: TokenService{Secret: []byte("test-secret"), TTL: time.Hour, BcryptCost: 4}, Audit: audit, Log: log, Clock: clock},
		categories: categories,
		complaints: complaints,
		chat: &Chat{
			Complaints: complaints,
			Messages:   store,
			Typing:     typing.NewMemory(),
			Files:      files,
			Notifier:   notifier,
			Audit:      audit,
			Log:        log,
			Clock:      clock,
		},
		analytics:    &Analytics{Store: store, Categories: categories, Clock: clock},
		exports:      &Exports{Complaints: store, Audit: audit},
		quickReplies: &QuickReplies{Store: store, Clock: clock},
		notices:      &Notifications{Store: store},
		audit:        audit,
	}
	f.student = f.addUser(t, "Asha", "asha@example.com", models.RoleStudent)
	f.other = f.addUser(t, "Ravi", "ravi@example.com", models.RoleStudent)
	f.admin = f.addUser(t, "Meera", "meera@example.com", models.RoleAdmin)
	f.super = f.addUser(t, "Root", "root@example.com", models.RoleSuperadmin)

	_, err = categories.Create(context.Background(), f.super, RequestMeta{}, CategoryInput{Name: "Infrastructure"})
	require.NoError(t, err)
	_, err = categories.Create(context.Background(), f.super, RequestMeta{}, CategoryInput{Name: "Mentor Support"})
	require.NoError(t, err)
	return f
}

func (f *fixture) addUser(t *testing.T, name, email string, role models.Role) Actor {
	t.Helper()
	u := models.User{ID: memstore.NewID(), Name: name, Email: email, PasswordHash: "x", Role: role, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	require.NoError(t, f.store.CreateUser(context.Background(), &u))
	return ActorFrom(u)
}

func (f *fixture) newComplaint(t *testing.T, owner Actor) models.Complaint {
	t.Helper()
	c, err := f.complaints.Create(context.Background(), owner, RequestMeta{}, CreateComplaintInput{
		Category:    "Infrastructure",
		Description: "Wifi drops every hour",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) setStatus(t *testing.T, id string, status models.Status) {
	t.Helper()
	c, err := f.store.ComplaintByID(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateComplaintStatus(context.Background(), models.StatusChange{
		ComplaintID: id, From: c.Status, To: status, At: fixedNow,
	}))
}

func upload(name, contentType, body string) Upload {
	return Upload{Filename: name, ContentType: contentType, Body: strings.NewReader(body)}
}
