// Package memstore is an in-memory implementation of the store contracts the
// services depend on. It backs service and HTTP tests and single-process
// demos; it mirrors the Postgres store's conditional-write semantics.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"brosolve-backend-go/internal/models"

	"github.com/google/uuid"
)

type Store struct {
	mu            sync.Mutex
	users         []models.User
	categories    []models.Category
	complaints    []models.Complaint
	messages      []models.Message
	reactions     []models.Reaction
	notifications []models.Notification
	audit         []models.AuditLog
	quickReplies  []models.QuickReply
	samples       []models.MetricSample
}

func New() *Store {
	return &Store{}
}

func (s *Store) summary(id string) models.UserSummary {
	for _, u := range s.users {
		if u.ID == id {
			return u.Summary()
		}
	}
	return models.UserSummary{ID: id}
}

// Users

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) || existing.ID == u.ID {
			return models.ErrDuplicate
		}
	}
	s.users = append(s.users, *u)
	return nil
}

func (s *Store) UserByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (s *Store) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for i := len(s.users) - 1; i >= 0; i-- {
		out = append(out, s.users[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) StaffUserIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []string{}
	for _, u := range s.users {
		if u.Role.IsStaff() {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (s *Store) SetLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			stamp := at
			s.users[i].LastLoginAt = &stamp
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *Store) UpdateUserRole(_ context.Context, id string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Role = role
			s.users[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return models.ErrNotFound
}

// DeleteUser has no Postgres counterpart; tests use it to simulate an account removed out of band.
func (s *Store) DeleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return
		}
	}
}

// Categories

func (s *Store) categoryClash(c *models.Category) bool {
	for _, existing := range s.categories {
		if existing.ID == c.ID {
			continue
		}
		if existing.Name == c.Name || existing.Slug == c.Slug {
			return true
		}
	}
	return false
}

func (s *Store) CreateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryClash(c) {
		return models.ErrDuplicate
	}
	s.categories = append(s.categories, *c)
	return nil
}

func (s *Store) CategoryByID(_ context.Context, id string) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Category{}, models.ErrNotFound
}

func (s *Store) ActiveCategory(_ context.Context, value string) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.IsActive && (c.Name == value || c.Slug == strings.ToLower(value)) {
			return c, nil
		}
	}
	return models.Category{}, models.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context, filter models.CategoryFilter) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	out := []models.Category{}
	for _, c := range s.categories {
		if !filter.IncludeInactive && !c.IsActive {
			continue
		}
		if q != "" && !containsAny(q, c.Name, c.Slug, c.Description) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryClash(c) {
		return models.ErrDuplicate
	}
	for i := range s.categories {
		if s.categories[i].ID == c.ID {
			s.categories[i] = *c
			return nil
		}
	}
	return models.ErrNotFound
}

// Complaints

func (s *Store) hydrate(c models.Complaint) models.Complaint {
	c.RaisedBy = s.summary(c.RaisedBy.ID)
	if c.AssignedTo != nil {
		assignee := s.summary(c.AssignedTo.ID)
		assignee.Phone = ""
		c.AssignedTo = &assignee
	}
	c.Attachments = append(models.Attachments{}, c.Attachments...)
	c.Replies = nil
	return c
}

func (s *Store) CreateComplaint(_ context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *c
	stored.RaisedBy = models.UserSummary{ID: c.RaisedBy.ID}
	stored.UpdatedAt = stored.CreatedAt
	s.complaints = append(s.complaints, stored)
	return nil
}

func (s *Store) ComplaintByID(_ context.Context, id string) (models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.complaints {
		if c.ID == id {
			return s.hydrate(c), nil
		}
	}
	return models.Complaint{}, models.ErrNotFound
}

func matchComplaint(c models.Complaint, f models.ComplaintFilter) bool {
	switch {
	case f.RaisedBy != "" && c.RaisedBy.ID != f.RaisedBy:
		return false
	case f.Category != "" && c.Category != f.Category:
		return false
	case f.Status != "" && c.Status != f.Status:
		return false
	case f.CenterType != "" && c.CenterType != f.CenterType:
		return false
	case f.From != nil && c.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && c.CreatedAt.After(*f.To):
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return containsAny(q, c.Title, c.Description, c.Category)
	}
	return true
}

func (s *Store) ListComplaints(_ context.Context, f models.ComplaintFilter) ([]models.Complaint, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []models.Complaint{}
	for i := len(s.complaints) - 1; i >= 0; i-- {
		if matchComplaint(s.complaints[i], f) {
			matched = append(matched, s.hydrate(s.complaints[i]))
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	if f.Limit > 0 {
		start := f.Offset()
		if start > total {
			start = total
		}
		end := start + f.Limit
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (s *Store) CountComplaints(_ context.Context, f models.ComplaintFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.complaints {
		if matchComplaint(c, f) {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateComplaintStatus(_ context.Context, change models.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.complaints {
		c := &s.complaints[i]
		if c.ID != change.ComplaintID {
			continue
		}
		if c.Status != change.From {
			return models.ErrStale
		}
		c.Status = change.To
		if change.AssignedTo != nil {
			c.AssignedTo = &models.UserSummary{ID: *change.AssignedTo}
		}
		if change.ResolvedAt != nil {
			at := *change.ResolvedAt
			c.ResolvedAt = &at
		}
		c.UpdatedAt = change.At
		return nil
	}
	return models.ErrNotFound
}

func (s *Store) RateComplaint(_ context.Context, id string, allowed []models.Status, rating models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.complaints {
		c := &s.complaints[i]
		if c.ID != id {
			continue
		}
		ok := false
		for _, status := range allowed {
			if c.Status == status {
				ok = true
			}
		}
		if !ok {
			return models.ErrStale
		}
		score, at := rating.Score, rating.At
		c.RatingScore = &score
		c.RatingComment = rating.Comment
		c.RatedAt = &at
		c.UpdatedAt = at
		return nil
	}
	return models.ErrNotFound
}

// SetComplaintTimes rewrites timestamps so analytics tests can place complaints on given days.
func (s *Store) SetComplaintTimes(id string, createdAt time.Time, resolvedAt *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.complaints {
		if s.complaints[i].ID == id {
			s.complaints[i].CreatedAt = createdAt
			s.complaints[i].ResolvedAt = resolvedAt
		}
	}
}

// Messages

func inView(m models.Message, view models.MessageView) bool {
	switch view {
	case models.ViewLedger:
		return m.Channel == models.ChannelReply || m.Type == models.MessageAudio
	case models.ViewLegacyReplies:
		return m.Channel == models.ChannelReply && m.Type == models.MessageText
	default:
		return m.Channel == models.ChannelChat
	}
}

func (s *Store) CreateMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *m
	stored.Reactions = nil
	s.messages = append(s.messages, stored)
	return nil
}

func (s *Store) ListMessages(_ context.Context, complaintID string, view models.MessageView) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if m.ComplaintID != complaintID || !inView(m, view) {
			continue
		}
		m.Author = s.summary(m.Author.ID)
		m.Author.Phone = ""
		m.Reactions = s.reactionsFor(m.ID)
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) reactionsFor(messageID string) []models.Reaction {
	out := []models.Reaction{}
	for _, r := range s.reactions {
		if r.MessageID == messageID {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) MarkMessagesSeen(_ context.Context, complaintID string, viewer models.Side) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		m := &s.messages[i]
		if m.ComplaintID != complaintID || m.Channel != models.ChannelChat || m.Sender != viewer.Opposite() {
			continue
		}
		if viewer == models.SideAdmin {
			m.SeenByAdmin = true
		} else {
			m.SeenByStudent = true
		}
	}
	return nil
}

func (s *Store) ApplyReaction(_ context.Context, complaintID, messageID, userID, emoji string, at time.Time) ([]models.Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, m := range s.messages {
		if m.ID == messageID && m.ComplaintID == complaintID {
			found = true
			break
		}
	}
	if !found {
		return nil, models.ErrNotFound
	}
	idx := -1
	for i, r := range s.reactions {
		if r.MessageID == messageID && r.UserID == userID {
			idx = i
			break
		}
	}
	var existing *models.Reaction
	if idx >= 0 {
		existing = &s.reactions[idx]
	}
	switch models.ResolveReaction(existing, emoji) {
	case models.ReactionAdd:
		s.reactions = append(s.reactions, models.Reaction{MessageID: messageID, UserID: userID, Emoji: emoji, CreatedAt: at})
	case models.ReactionReplace:
		s.reactions[idx].Emoji = emoji
		s.reactions[idx].CreatedAt = at
	case models.ReactionRemove:
		s.reactions = append(s.reactions[:idx], s.reactions[idx+1:]...)
	}
	return s.reactionsFor(messageID), nil
}

// Notifications

func (s *Store) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Notification{}
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].UserID == userID {
			out = append(out, s.notifications[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountUnreadNotifications(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, notice := range s.notifications {
		if notice.UserID == userID && !notice.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, userID, id string) (models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].UserID == userID {
			s.notifications[i].IsRead = true
			return s.notifications[i], nil
		}
	}
	return models.Notification{}, models.ErrNotFound
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	return s.markRead(func(n models.Notification) bool { return n.UserID == userID })
}

func (s *Store) MarkComplaintNotificationsRead(ctx context.Context, userID, complaintID string) error {
	return s.markRead(func(n models.Notification) bool { return n.UserID == userID && n.ComplaintID == complaintID })
}

func (s *Store) markRead(match func(models.Notification) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if match(s.notifications[i]) {
			s.notifications[i].IsRead = true
		}
	}
	return nil
}

// Audit

func (s *Store) CreateAuditLog(_ context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, *entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, f models.AuditFilter) ([]models.AuditLog, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []models.AuditLog{}
	for i := len(s.audit) - 1; i >= 0; i-- {
		entry := s.audit[i]
		if (f.Action != "" && entry.Action != f.Action) ||
			(f.EntityType != "" && entry.EntityType != f.EntityType) ||
			(f.UserID != "" && entry.PerformedBy.ID != f.UserID) {
			continue
		}
		performer := s.summary(entry.PerformedBy.ID)
		performer.Phone = ""
		entry.PerformedBy = performer
		matched = append(matched, entry)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	start := 0
	if f.Page > 1 {
		start = (f.Page - 1) * f.Limit
	}
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && start+f.Limit < total {
		end = start + f.Limit
	}
	return matched[start:end], total, nil
}

// Quick replies

func (s *Store) ListQuickReplies(_ context.Context, userID string) ([]models.QuickReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.QuickReply{}
	for _, q := range s.quickReplies {
		if q.Scope == models.ScopeGlobal || q.CreatedBy == userID {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

func (s *Store) CreateQuickReply(_ context.Context, q *models.QuickReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *q
	stored.UpdatedAt = stored.CreatedAt
	s.quickReplies = append(s.quickReplies, stored)
	return nil
}

func (s *Store) QuickReplyByID(_ context.Context, id string) (models.QuickReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quickReplies {
		if q.ID == id {
			return q, nil
		}
	}
	return models.QuickReply{}, models.ErrNotFound
}

func (s *Store) UpdateQuickReply(_ context.Context, q *models.QuickReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.quickReplies {
		if s.quickReplies[i].ID == q.ID {
			s.quickReplies[i].Label = q.Label
			s.quickReplies[i].Text = q.Text
			s.quickReplies[i].Scope = q.Scope
			s.quickReplies[i].UpdatedAt = q.UpdatedAt
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *Store) DeleteQuickReply(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.quickReplies {
		if s.quickReplies[i].ID == id {
			s.quickReplies = append(s.quickReplies[:i], s.quickReplies[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

// Analytics

func (s *Store) ComplaintsPerDay(_ context.Context, since, until time.Time) ([]models.DayCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, c := range s.complaints {
		if c.CreatedAt.Before(since) || !c.CreatedAt.Before(until) {
			continue
		}
		counts[c.CreatedAt.UTC().Format("2006-01-02")]++
	}
	out := make([]models.DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, models.DayCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *Store) ComplaintsGroupedBy(_ context.Context, field models.GroupField) ([]models.KeyCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, c := range s.complaints {
		switch field {
		case models.GroupByCategory:
			counts[c.Category]++
		case models.GroupByStatus:
			counts[string(c.Status)]++
		case models.GroupByCenterType:
			counts[string(c.CenterType)]++
		default:
			return nil, fmt.Errorf("unsupported group field %q", field)
		}
	}
	out := make([]models.KeyCount, 0, len(counts))
	for key, n := range counts {
		out = append(out, models.KeyCount{Key: key, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func (s *Store) TopRaisers(_ context.Context, limit int) ([]models.UserCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, c := range s.complaints {
		counts[c.RaisedBy.ID]++
	}
	out := make([]models.UserCount, 0, len(counts))
	for id, n := range counts {
		u := s.summary(id)
		if u.Name == "" {
			u.Name, u.Email = "Unknown", "N/A"
		}
		out = append(out, models.UserCount{UserID: id, Name: u.Name, Email: u.Email, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ResolutionTimes(_ context.Context) (models.ResolutionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats models.ResolutionStats
	total := 0.0
	for _, c := range s.complaints {
		if c.Status != models.StatusResolved {
			continue
		}
		end := c.UpdatedAt
		if c.ResolvedAt != nil {
			end = *c.ResolvedAt
		}
		hours := end.Sub(c.CreatedAt).Hours()
		if hours < 0 {
			continue
		}
		if stats.Count == 0 || hours < stats.MinHours {
			stats.MinHours = hours
		}
		if hours > stats.MaxHours {
			stats.MaxHours = hours
		}
		total += hours
		stats.Count++
	}
	if stats.Count > 0 {
		stats.AvgHours = total / float64(stats.Count)
	}
	return stats, nil
}

// Metrics

func (s *Store) InsertMetricSample(_ context.Context, sample models.MetricSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
	return nil
}

func (s *Store) LatestMetricSamples(_ context.Context, limit int) ([]models.MetricSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if limit > 0 && len(s.samples) > limit {
		start = len(s.samples) - limit
	}
	return append([]models.MetricSample{}, s.samples[start:]...), nil
}

func containsAny(q string, values ...string) bool {
	for _, value := range values {
		if strings.Contains(strings.ToLower(value), q) {
			return true
		}
	}
	return false
}

// NewID is exposed so fixtures can mint ids the same way the services do.
func NewID() string {
	return uuid.NewString()
}
