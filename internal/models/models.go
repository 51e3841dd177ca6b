package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// IsStaff is true for admin and superadmin.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// Side is the conversational side of a complaint thread.
type Side string

const (
	SideStudent Side = "student"
	SideAdmin   Side = "admin"
)

func SideOf(role Role) Side {
	if role.IsStaff() {
		return SideAdmin
	}
	return SideStudent
}

func (s Side) Opposite() Side {
	if s == SideAdmin {
		return SideStudent
	}
	return SideAdmin
}

type Status string

const (
	StatusOpen     Status = "open"
	StatusInReview Status = "in_review"
	StatusResolved Status = "resolved"
	StatusClosed   Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInReview, StatusResolved, StatusClosed:
		return true
	}
	return false
}

type CenterType string

const (
	CenterOnline  CenterType = "online"
	CenterBrocamp CenterType = "brocamp"
	CenterHybrid  CenterType = "hybrid"
	CenterOther   CenterType = "other"
)

type ContactPreference string

const (
	ContactCall     ContactPreference = "call"
	ContactWhatsApp ContactPreference = "whatsapp"
	ContactEmail    ContactPreference = "email"
	ContactInWeb    ContactPreference = "in_web"
)

type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelReply Channel = "reply"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageAudio MessageType = "audio"
)

// MessageView selects a projection of the complaint message log.
type MessageView int

const (
	// ViewChat is the live conversation thread.
	ViewChat MessageView = iota
	// ViewLedger is the reply ledger: reply-channel entries and voice notes.
	ViewLedger
	// ViewLegacyReplies is the inline complaint.replies list: reply-channel text entries.
	ViewLegacyReplies
)

type NotificationType string

const (
	NotificationNewMessage   NotificationType = "new_message"
	NotificationStatusChange NotificationType = "status_change"
)

type QuickReplyScope string

const (
	ScopeGlobal   QuickReplyScope = "global"
	ScopePersonal QuickReplyScope = "personal"
)

type User struct {
	ID           string     `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Role         Role       `db:"role"`
	IsHead       bool       `db:"is_head"`
	Phone        *string    `db:"phone"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (u User) Summary() UserSummary {
	summary := UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
	if u.Phone != nil {
		summary.Phone = *u.Phone
	}
	return summary
}

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID    string
	Name  string
	Email string
	Role  Role
	Phone string
}

type Category struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Slug        string    `db:"slug"`
	Description string    `db:"description"`
	IsActive    bool      `db:"is_active"`
	CreatedBy   *string   `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type CategoryFilter struct {
	Query           string
	IncludeInactive bool
}

type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Mimetype string `json:"mimetype"`
}

// Attachments is stored as a jsonb array.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *Attachments) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Attachments{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("attachments: unsupported type %T", src)
	}
	items := Attachments{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*a = items
	return nil
}

type Complaint struct {
	ID                string
	Title             string
	Description       string
	Category          string
	CenterType        CenterType
	ContactPreference ContactPreference
	AllowWebReply     bool
	Status            Status
	RatingScore       *int
	RatingComment     *string
	RatedAt           *time.Time
	Attachments       Attachments
	RaisedBy          UserSummary
	AssignedTo        *UserSummary
	ResolvedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	// Replies is the legacy inline projection, filled only on detail reads.
	Replies []Message
}

type ComplaintFilter struct {
	RaisedBy   string
	Category   string
	Status     Status
	CenterType CenterType
	From       *time.Time
	To         *time.Time
	Query      string
	Page       int
	Limit      int
}

// Offset returns the row offset for a 1-based page.
func (f ComplaintFilter) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// StatusChange is a conditional status write: it only applies while the complaint is still in From.
type StatusChange struct {
	ComplaintID string
	From        Status
	To          Status
	AssignedTo  *string
	ResolvedAt  *time.Time
	At          time.Time
}

type Rating struct {
	Score   int
	Comment *string
	At      time.Time
}

type Message struct {
	ID            string
	ComplaintID   string
	Author        UserSummary
	Sender        Side
	Channel       Channel
	Body          string
	Type          MessageType
	AudioURL      *string
	Attachments   Attachments
	SeenByAdmin   bool
	SeenByStudent bool
	Reactions     []Reaction
	CreatedAt     time.Time
}

type Reaction struct {
	MessageID string    `db:"message_id"`
	UserID    string    `db:"user_id"`
	Emoji     string    `db:"emoji"`
	CreatedAt time.Time `db:"created_at"`
}

type Notification struct {
	ID          string           `db:"id"`
	UserID      string           `db:"user_id"`
	Type        NotificationType `db:"type"`
	ComplaintID string           `db:"complaint_id"`
	MessageID   *string          `db:"message_id"`
	Title       string           `db:"title"`
	Body        string           `db:"body"`
	IsRead      bool             `db:"is_read"`
	CreatedAt   time.Time        `db:"created_at"`
}

// Details is free-form audit context stored as jsonb.
type Details map[string]interface{}

func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

func (d *Details) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = Details{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("details: unsupported type %T", src)
	}
	out := Details{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*d = out
	return nil
}

type AuditLog struct {
	ID          string
	Action      string
	EntityType  string
	EntityID    *string
	PerformedBy UserSummary
	Details     Details
	IPAddress   string
	UserAgent   string
	CreatedAt   time.Time
}

type AuditFilter struct {
	Action     string
	EntityType string
	UserID     string
	Page       int
	Limit      int
}

type QuickReply struct {
	ID        string          `db:"id"`
	Label     string          `db:"label"`
	Text      string          `db:"text"`
	Scope     QuickReplyScope `db:"scope"`
	CreatedBy string          `db:"created_by"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// GroupField is a complaint column analytics can group by.
type GroupField string

const (
	GroupByCategory   GroupField = "category"
	GroupByStatus     GroupField = "status"
	GroupByCenterType GroupField = "center_type"
)

type KeyCount struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

type DayCount struct {
	Date  string `db:"day"`
	Count int    `db:"count"`
}

type UserCount struct {
	UserID string `db:"user_id"`
	Name   string `db:"name"`
	Email  string `db:"email"`
	Count  int    `db:"count"`
}

type ResolutionStats struct {
	Count    int     `db:"count"`
	AvgHours float64 `db:"avg_hours"`
	MinHours float64 `db:"min_hours"`
	MaxHours float64 `db:"max_hours"`
}

type MetricSample struct {
	CapturedAt        time.Time `db:"captured_at" json:"capturedAt"`
	ProcessRSSBytes   int64     `db:"process_rss_bytes" json:"processRssBytes"`
	SystemMemoryTotal int64     `db:"system_memory_total_bytes" json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `db:"system_memory_used_bytes" json:"systemMemoryUsedBytes"`
	DiskTotalBytes    int64     `db:"disk_total_bytes" json:"diskTotalBytes"`
	DiskUsedBytes     int64     `db:"disk_used_bytes" json:"diskUsedBytes"`
	ProcessCPULoad    float64   `db:"process_cpu_load" json:"processCpuLoad"`
	SystemCPULoad     float64   `db:"system_cpu_load" json:"systemCpuLoad"`
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	// ErrStale is returned by conditional writes whose precondition no longer holds.
	ErrStale = errors.New("stale write")
)
