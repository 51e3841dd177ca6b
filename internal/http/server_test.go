package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"brosolve-backend-go/internal/config"
	"brosolve-backend-go/internal/memstore"
	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/notify"
	"brosolve-backend-go/internal/services"
	"brosolve-backend-go/internal/storage"
	"brosolve-backend-go/internal/typing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	store  *memstore.Store
	tokens services.TokenService
	router http.Handler
}

func newTestEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	store := memstore.New()
	uploadDir := t.TempDir()
	files, err := storage.NewLocal(uploadDir)
	require.NoError(t, err)
	log := zap.NewNop()
	hub := services.NewHub()
	tokens := services.TokenService{Secret: []byte("test-secret"), TTL: time.Hour, BcryptCost: 4}

	notifier := notify.New(store, hub, notify.NewSMTPMailer(notify.SMTPConfig{}), notify.NewTwilioWhatsApp(notify.TwilioConfig{}), log, notify.Options{})
	t.Cleanup(notifier.Wait)
	audit := &services.Audit{Store: store, Log: log}
	categories := &services.Categories{Store: store, Audit: audit}
	complaints := &services.Complaints{
		Store:      store,
		Replies:    store,
		Categories: categories,
		Files:      files,
		Notifier:   notifier,
		Audit:      audit,
		Log:        log,
	}
	if cfg.LoginRatePerMinute == 0 {
		cfg.LoginRatePerMinute = 1000
	}
	server := &Server{
		Config:     cfg,
		Log:        log,
		Tokens:     tokens,
		Identity:   &services.Identity{Users: store, Tokens: tokens, Audit: audit, Log: log},
		Categories: categories,
		Complaints: complaints,
		Chat: &services.Chat{
			Complaints: complaints,
			Messages:   store,
			Typing:     typing.NewMemory(),
			Files:      files,
			Notifier:   notifier,
			Audit:      audit,
			Log:        log,
		},
		Notifications: &services.Notifications{Store: store},
		Audit:         audit,
		Analytics:     &services.Analytics{Store: store, Categories: categories},
		Exports:       &services.Exports{Complaints: store, Audit: audit},
		QuickReplies:  &services.QuickReplies{Store: store},
		Metrics:       services.NewMetrics(store, uploadDir),
		Hub:           hub,
		UploadDir:     uploadDir,
	}

	now := time.Now().UTC()
	require.NoError(t, store.CreateCategory(context.Background(), &models.Category{
		ID: memstore.NewID(), Name: "Infrastructure", Slug: "infrastructure", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}))
	return &testEnv{store: store, tokens: tokens, router: server.Router(context.Background())}
}

func (e *testEnv) addUser(t *testing.T, name, email string, role models.Role) (models.User, string) {
	t.Helper()
	hash, err := e.tokens.HashPassword("secret1")
	require.NoError(t, err)
	now := time.Now().UTC()
	u := models.User{ID: memstore.NewID(), Name: name, Email: email, PasswordHash: hash, Role: role, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, e.store.CreateUser(context.Background(), &u))
	token, err := e.tokens.Issue(u)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) call(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return e.send(req, token)
}

type filePart struct {
	field       string
	name        string
	contentType string
	body        string
}

func (e *testEnv) multipart(t *testing.T, path, token string, fields map[string]string, files []filePart) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	for _, f := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.name))
		header.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.send(req, token)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func (e *testEnv) createComplaint(t *testing.T, token string) ComplaintDTO {
	t.Helper()
	rec := e.multipart(t, "/api/complaints", token, map[string]string{
		"category":    "infrastructure",
		"description": "Projector in lab 2 is broken",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp ComplaintResponse
	decode(t, rec, &resp)
	return resp.Complaint
}

func TestRegisterLoginAndMe(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	rec := env.call(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Asha", "email": "asha@example.com", "password": "secret1", "role": "superadmin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var registered RegisterResponse
	decode(t, rec, &registered)
	assert.Equal(t, models.RoleStudent, registered.User.Role)

	rec = env.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "asha@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ASHA@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login LoginResponse
	decode(t, rec, &login)
	require.NotEmpty(t, login.Token)

	rec = env.call(http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me MeResponse
	decode(t, rec, &me)
	assert.Equal(t, "asha@example.com", me.User.Email)
	assert.Equal(t, models.RoleStudent, me.User.Role)
}

func TestAuthenticationFailures(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	rec := env.call(http.MethodGet, "/api/complaints", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "No token provided")

	rec = env.call(http.MethodGet, "/api/complaints", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	student, token := env.addUser(t, "Asha", "asha@example.com", models.RoleStudent)
	env.store.DeleteUser(student.ID)
	rec = env.call(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStoredRoleOverridesTokenRole(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	_, studentToken := env.addUser(t, "Asha", "asha@example.com", models.RoleStudent)
	admin, adminToken := env.addUser(t, "Meera", "meera@example.com", models.RoleAdmin)
	c := env.createComplaint(t, studentToken)

	require.NoError(t, env.store.UpdateUserRole(context.Background(), admin.ID, models.RoleStudent))
	rec := env.call(http.MethodPatch, "/api/complaints/"+c.ID+"/solve", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.call(http.MethodGet, "/api/users", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestComplaintLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	_, studentToken := env.addUser(t, "Asha", "asha@example.com", models.RoleStudent)
	_, otherToken := env.addUser(t, "Ravi", "ravi@example.com", models.RoleStudent)
	_, adminToken := env.addUser(t, "Meera", "meera@example.com", models.RoleAdmin)

	rec := env.multipart(t, "/api/complaints", studentToken, map[string]string{
		"category":      "Infrastructure",
		"description":   "Wifi drops every hour",
		"contactMethod": "email",
		"replyInWeb":    "false",
	}, []filePart{
		{field: "file0", name: "photo one.txt", contentType: "text/plain", body: "first"},
		{field: "file1", name: "b.txt", contentType: "text/plain", body: "second"},
		{field: "file2", name: "c.txt", contentType: "text/plain", body: "third"},
		{field: "file3", name: "d.txt", contentType: "text/plain", body: "fourth"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created ComplaintResponse
	decode(t, rec, &created)
	c := created.Complaint
	assert.Equal(t, "Infrastructure Complaint", c.Title)
	assert.Equal(t, models.ContactEmail, c.ContactPreference)
	assert.False(t, c.AllowWebReply)
	assert.Equal(t, models.CenterOnline, c.CenterType)
	assert.Equal(t, models.StatusOpen, c.Status)
	require.Len(t, c.Attachments, 3)
	assert.True(t, strings.HasSuffix(c.Attachments[0].URL, "-photo_one.txt"))

	rec = env.send(httptest.NewRequest(http.MethodGet, c.Attachments[0].URL, nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "first", rec.Body.String())

	rec = env.call(http.MethodGet, "/api/complaints/"+c.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(http.MethodGet, "/api/complaints?limit=5", otherToken, nil)
	var others ComplaintListResponse
	decode(t, rec, &others)
	assert.Empty(t, others.Complaints)
	assert.Equal(t, Pagination{Page: 1, Limit: 5, Total: 0, Pages: 0}, others.Pagination)

	rec = env.call(http.MethodPatch, "/api/complaints/"+c.ID+"/status", adminToken, map[string]string{"status": "in_review"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.call(http.MethodPatch, "/api/complaints/"+c.ID+"/status", studentToken, map[string]string{"status": "resolved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(http.MethodPatch, "/api/complaints/"+c.ID+"/status", adminToken, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.call(http.MethodPatch, "/api/complaints/"+c.ID+"/solve", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.call(http.MethodPost, "/api/complaints/"+c.ID+"/rating", studentToken, map[string]int{"score": 4})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.call(http.MethodPatch, "/api/complaints/"+c.ID+"/status", adminToken, map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var solved ComplaintResponse
	decode(t, rec, &solved)
	assert.Equal(t, models.StatusResolved, solved.Complaint.Status)
	require.NotNil(t, solved.Complaint.AssignedTo)
	assert.Equal(t, "Meera", solved.Complaint.AssignedTo.Name)
	assert.NotNil(t, solved.Complaint.ResolvedAt)
	rec = env.call(http.MethodPatch, "/api/complaints/"+c.ID+"/solve", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.call(http.MethodPatch, "/api/complaints/"+c.ID+"/status", studentToken, map[string]string{"status": "in_review"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(http.MethodPatch, "/api/complaints/"+c.ID+"/close", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(http.MethodPatch, "/api/complaints/"+c.ID+"/close", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(http.MethodPatch, "/api/complaints/"+c.ID+"/close", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.call(http.MethodPost, "/api/complaints/"+c.ID+"/rating", studentToken, map[string]interface{}{"score": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.call(http.MethodPost, "/api/complaints/"+c.ID+"/rating", studentToken, map[string]interface{}{"score": 4.5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.call(http.MethodPost, "/api/complaints/"+c.ID+"/rating", studentToken, map[string]interface{}{"score": 5, "comment": "Fixed fast"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rated ComplaintResponse
	decode(t, rec, &rated)
	assert.Equal(t, models.StatusClosed, rated.Complaint.Status)
	require.NotNil(t, rated.Complaint.RatingScore)
	assert.Equal(t, 5, *rated.Complaint.RatingScore)

	rec = env.call(http.MethodGet, "/api/notifications", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var notices NotificationListResponse
	decode(t, rec, &notices)
	assert.Equal(t, 2, notices.UnreadCount)

	rec = env.call(http.MethodPatch, "/api/notifications/complaint/"+c.ID+"/read", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.call(http.MethodGet, "/api/notifications", studentToken, nil)
	decode(t, rec, &notices)
	assert.Zero(t, notices.UnreadCount)

	rec = env.call(http.MethodGet, "/api/audit/logs?entityType=complaint", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs AuditLogListResponse
	decode(t, rec, &logs)
	assert.GreaterOrEqual(t, logs.Pagination.Total, 5)
}

func TestConversationOverHTTP(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	_, studentToken := env.addUser(t, "Asha", "asha@example.com", models.RoleStudent)
	_, adminToken := env.addUser(t, "Meera", "meera@example.com", models.RoleAdmin)
	c := env.createComplaint(t, studentToken)

	rec := env.call(http.MethodPost, "/api/complaints/"+c.ID+"/messages", studentToken, map[string]string{
		"message": "Any update?",
		"sender":  "admin",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var posted PostMessageResponse
	decode(t, rec, &posted)
	assert.Equal(t, models.SideStudent, posted.NewMessage.Sender)
	assert.True(t, posted.NewMessage.SeenByStudent)
	assert.False(t, posted.NewMessage.SeenByAdmin)

	rec = env.call(http.MethodPost, "/api/complaints/"+c.ID+"/messages", studentToken, map[string]string{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.call(http.MethodGet, "/api/complaints/"+c.ID+"/messages", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var thread ThreadResponse
	decode(t, rec, &thread)
	require.Len(t, thread.Messages, 1)
	assert.Equal(t, 1, thread.UnreadCount)
	assert.True(t, thread.Messages[0].SeenByAdmin)

	rec = env.call(http.MethodGet, "/api/notifications", adminToken, nil)
	var notices NotificationListResponse
	decode(t, rec, &notices)
	require.Len(t, notices.Notifications, 1)
	assert.Equal(t, models.NotificationNewMessage, notices.Notifications[0].Type)

	reactPath := "/api/complaints/" + c.ID + "/messages/" + posted.NewMessage.ObjectID + "/react"
	rec = env.call(http.MethodPost, reactPath, adminToken, map[string]string{"emoji": "👍"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reacted ReactResponse
	decode(t, rec, &reacted)
	assert.Len(t, reacted.Reactions, 1)
	rec = env.call(http.MethodPost, reactPath, adminToken, map[string]string{"emoji": "👍"})
	decode(t, rec, &reacted)
	assert.Empty(t, reacted.Reactions)
	rec = env.call(http.MethodPost, "/api/complaints/"+c.ID+"/messages/missing/react", adminToken, map[string]string{"emoji": "👍"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.call(http.MethodPost, "/api/complaints/"+c.ID+"/typing", studentToken, map[string]bool{"isTyping": true})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.call(http.MethodGet, "/api/complaints/"+c.ID+"/typing", adminToken, nil)
	var status typing.Status
	decode(t, rec, &status)
	assert.True(t, status.StudentTyping)
	assert.False(t, status.AdminTyping)
}

func TestVoiceNotesAndReplyLedger(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	_, studentToken := env.addUser(t, "Asha", "asha@example.com", models.RoleStudent)
	_, adminToken := env.addUser(t, "Meera", "meera@example.com", models.RoleAdmin)
	c := env.createComplaint(t, studentToken)
	audioPath := "/api/replies/complaint/" + c.ID + "/audio"

	rec := env.multipart(t, audioPath, studentToken, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.multipart(t, audioPath, studentToken, nil, []filePart{{field: "audio", name: "note.txt", contentType: "text/plain", body: "x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid audio format")

	rec = env.multipart(t, audioPath, studentToken, nil, []filePart{{field: "audio", name: "note.webm", contentType: "audio/webm", body: "RIFF"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw, "reply")
	assert.Contains(t, raw, "newMessage")
	var voice VoiceResponse
	decode(t, rec, &voice)
	assert.True(t, voice.Success)
	assert.Equal(t, models.MessageAudio, voice.NewMessage.Type)
	require.NotNil(t, voice.NewMessage.AudioURL)
	assert.Contains(t, *voice.NewMessage.AudioURL, "/uploads/audio/")
	assert.Equal(t, voice.NewMessage.ObjectID, voice.Reply.ObjectID)
	assert.Equal(t, c.ID, voice.Reply.ComplaintID)
	require.NotNil(t, voice.Reply.By)
	assert.Equal(t, "Asha", voice.Reply.By.Name)

	rec = env.multipart(t, "/api/replies/complaint/"+c.ID, adminToken, map[string]string{"text": "Technician booked"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.call(http.MethodGet, "/api/replies/complaint/"+c.ID, studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ledger RepliesResponse
	decode(t, rec, &ledger)
	assert.Len(t, ledger.Replies, 2)

	rec = env.call(http.MethodGet, "/api/complaints/"+c.ID, studentToken, nil)
	var detail ComplaintDTO
	decode(t, rec, &detail)
	require.Len(t, detail.Replies, 1)
	assert.Equal(t, "Technician booked", detail.Replies[0].Text)

	rec = env.call(http.MethodPost, "/api/complaints/"+c.ID+"/reply", studentToken, map[string]string{"text": "me too"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(http.MethodPost, "/api/complaints/"+c.ID+"/messages/audio", studentToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryAdministration(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	_, studentToken := env.addUser(t, "Asha", "asha@example.com", models.RoleStudent)
	_, superToken := env.addUser(t, "Root", "root@example.com", models.RoleSuperadmin)

	rec := env.call(http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Success bool          `json:"success"`
		Data    []CategoryDTO `json:"data"`
	}
	decode(t, rec, &list)
	assert.True(t, list.Success)
	assert.Len(t, list.Data, 1)

	rec = env.call(http.MethodPost, "/api/categories", studentToken, map[string]string{"name": "Hostel"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.call(http.MethodPost, "/api/categories", superToken, map[string]string{"name": "Hostel"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Success bool        `json:"success"`
		Data    CategoryDTO `json:"data"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "hostel", created.Data.Slug)

	rec = env.call(http.MethodPost, "/api/categories", superToken, map[string]string{"name": "hostel"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)

	rec = env.call(http.MethodDelete, "/api/categories/"+created.Data.ID, superToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.multipart(t, "/api/complaints", studentToken, map[string]string{"category": "Hostel", "description": "Leak"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid category")
}

func TestExportAndDashboards(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	_, studentToken := env.addUser(t, "Asha", "asha@example.com", models.RoleStudent)
	_, adminToken := env.addUser(t, "Meera", "meera@example.com", models.RoleAdmin)
	env.createComplaint(t, studentToken)
	env.createComplaint(t, studentToken)

	rec := env.call(http.MethodGet, "/api/exports/complaints", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(http.MethodGet, "/api/exports/complaints", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "complaints-")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Title,Category,Status,Center Type,Raised By,Assigned To,Created At", lines[0])

	rec = env.call(http.MethodGet, "/api/analytics/dashboard/trends/7days", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trend []DayCountDTO
	decode(t, rec, &trend)
	require.Len(t, trend, 7)
	assert.Equal(t, 2, trend[6].Count)

	rec = env.call(http.MethodGet, "/api/analytics/dashboard/by-status", adminToken, nil)
	var byStatus []map[string]interface{}
	decode(t, rec, &byStatus)
	require.Len(t, byStatus, 3)
	assert.Equal(t, "open", byStatus[0]["status"])
	assert.Equal(t, float64(2), byStatus[0]["count"])

	rec = env.call(http.MethodGet, "/api/public/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats PublicStatsResponse
	decode(t, rec, &stats)
	assert.Equal(t, PublicStatsResponse{Total: 2, Solved: 0, Today: 2, Percent: 0}, stats)

	rec = env.call(http.MethodGet, "/api/public/analytics?days=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var public PublicAnalyticsResponse
	decode(t, rec, &public)
	assert.Len(t, public.PerDayCounts, 3)
	require.Len(t, public.CategoryBreakdown, 1)
	assert.Equal(t, "Infrastructure", public.CategoryBreakdown[0]["category"])
}

func TestQuickRepliesAndAdmins(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	_, adminToken := env.addUser(t, "Meera", "meera@example.com", models.RoleAdmin)
	_, superToken := env.addUser(t, "Root", "root@example.com", models.RoleSuperadmin)

	rec := env.call(http.MethodPost, "/api/quick-replies", adminToken, map[string]string{"label": "Ack", "text": "On it"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created QuickReplyResponse
	decode(t, rec, &created)
	assert.Equal(t, models.ScopePersonal, created.QuickReply.Scope)

	rec = env.call(http.MethodPatch, "/api/quick-replies/"+created.QuickReply.ObjectID, superToken, map[string]string{"text": "Hijack"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(http.MethodDelete, "/api/quick-replies/"+created.QuickReply.ObjectID, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := map[string]string{"name": "New Admin", "email": "new@example.com", "password": "secret1"}
	rec = env.call(http.MethodPost, "/api/admins/create", adminToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(http.MethodPost, "/api/admins/create", superToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var admin CreateAdminResponse
	decode(t, rec, &admin)
	assert.Equal(t, models.RoleAdmin, admin.Admin.Role)

	rec = env.call(http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users UserListResponse
	decode(t, rec, &users)
	assert.Len(t, users.Users, 3)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.call(http.MethodGet, "/api/admin/metrics/history", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(http.MethodGet, "/api/admin/metrics/history", superToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t, config.Config{LoginRatePerMinute: 2})
	body := map[string]string{"email": "nobody@example.com", "password": "secret1"}
	for i := 0; i < 2; i++ {
		rec := env.call(http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
	rec := env.call(http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	for i := 0; i < 5; i++ {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec = env.send(req, "")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	}
}

func TestLoginLimitFollowsTrustedProxyHeader(t *testing.T) {
	env := newTestEnv(t, config.Config{LoginRatePerMinute: 1, TrustedProxies: []string{"192.0.2.0/24"}})
	body, _ := json.Marshal(map[string]string{"email": "nobody@example.com", "password": "secret1"})
	login := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", client)
		return env.send(req, "").Code
	}

	assert.Equal(t, http.StatusNotFound, login("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, login("198.51.100.1"))
	assert.Equal(t, http.StatusNotFound, login("198.51.100.2"))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	rec := env.send(httptest.NewRequest(http.MethodGet, "/", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}
