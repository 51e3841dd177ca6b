package httpapi

import (
	"time"

	"brosolve-backend-go/internal/models"
)

// Response shapes keep the field names the web client already reads,
// including the document-style "_id".

type UserRefDTO struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role,omitempty"`
}

type UserDTO struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
	IsHead      bool        `json:"isHead"`
	Phone       *string     `json:"phone"`
	LastLoginAt *time.Time  `json:"lastLoginAt"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type ComplaintDTO struct {
	ObjectID          string                   `json:"_id"`
	ID                string                   `json:"id"`
	Title             string                   `json:"title"`
	Description       string                   `json:"description"`
	Category          string                   `json:"category"`
	CenterType        models.CenterType        `json:"centerType"`
	ContactPreference models.ContactPreference `json:"contactPreference"`
	AllowWebReply     bool                     `json:"allowWebReply"`
	Status            models.Status            `json:"status"`
	RatingScore       *int                     `json:"ratingScore"`
	RatingComment     *string                  `json:"ratingComment"`
	RatedAt           *time.Time               `json:"ratedAt"`
	Attachments       []models.Attachment      `json:"attachments"`
	RaisedBy          *UserRefDTO              `json:"raisedBy"`
	AssignedTo        *UserRefDTO              `json:"assignedTo"`
	ResolvedAt        *time.Time               `json:"resolvedAt"`
	Replies           []LegacyReplyDTO         `json:"replies"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
}

type LegacyReplyDTO struct {
	Text      string      `json:"text"`
	By        *UserRefDTO `json:"by"`
	CreatedAt time.Time   `json:"createdAt"`
}

type ReactionDTO struct {
	User      string    `json:"user"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
}

type MessageDTO struct {
	ObjectID      string             `json:"_id"`
	Sender        models.Side        `json:"sender"`
	Message       string             `json:"message"`
	Type          models.MessageType `json:"type"`
	AudioURL      *string            `json:"audioUrl"`
	Attachments   []string           `json:"attachments"`
	Reactions     []ReactionDTO      `json:"reactions"`
	SeenByAdmin   bool               `json:"seenByAdmin"`
	SeenByStudent bool               `json:"seenByStudent"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// ReplyDTO is a reply-ledger entry. Voice notes appear with type audio.
type ReplyDTO struct {
	ObjectID    string              `json:"_id"`
	ComplaintID string              `json:"complaintId"`
	Text        string              `json:"text"`
	Type        models.MessageType  `json:"type"`
	AudioURL    *string             `json:"audioUrl,omitempty"`
	By          *UserRefDTO         `json:"by"`
	Attachments []models.Attachment `json:"attachments"`
	CreatedAt   time.Time           `json:"createdAt"`
}

type CategoryDTO struct {
	ObjectID    string    `json:"_id"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedBy   *string   `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type NotificationDTO struct {
	ObjectID    string                  `json:"_id"`
	UserID      string                  `json:"userId"`
	Type        models.NotificationType `json:"type"`
	ComplaintID string                  `json:"complaintId"`
	MessageID   *string                 `json:"messageId"`
	Title       string                  `json:"title"`
	Body        string                  `json:"body"`
	IsRead      bool                    `json:"isRead"`
	CreatedAt   time.Time               `json:"createdAt"`
}

type AuditLogDTO struct {
	ObjectID    string         `json:"_id"`
	Action      string         `json:"action"`
	EntityType  string         `json:"entityType"`
	EntityID    *string        `json:"entityId"`
	PerformedBy *UserRefDTO    `json:"performedBy"`
	Details     models.Details `json:"details"`
	IPAddress   string         `json:"ipAddress"`
	UserAgent   string         `json:"userAgent"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type QuickReplyDTO struct {
	ObjectID  string                 `json:"_id"`
	Label     string                 `json:"label"`
	Text      string                 `json:"text"`
	Scope     models.QuickReplyScope `json:"scope"`
	CreatedBy string                 `json:"createdBy"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

func toUserRef(u models.UserSummary) *UserRefDTO {
	if u.ID == "" {
		return nil
	}
	return &UserRefDTO{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toUserDTO(u models.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		IsHead:      u.IsHead,
		Phone:       u.Phone,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func toComplaintDTO(c models.Complaint) ComplaintDTO {
	dto := ComplaintDTO{
		ObjectID:          c.ID,
		ID:                c.ID,
		Title:             c.Title,
		Description:       c.Description,
		Category:          c.Category,
		CenterType:        c.CenterType,
		ContactPreference: c.ContactPreference,
		AllowWebReply:     c.AllowWebReply,
		Status:            c.Status,
		RatingScore:       c.RatingScore,
		RatingComment:     c.RatingComment,
		RatedAt:           c.RatedAt,
		Attachments:       []models.Attachment(c.Attachments),
		RaisedBy:          toUserRef(c.RaisedBy),
		ResolvedAt:        c.ResolvedAt,
		Replies:           make([]LegacyReplyDTO, 0, len(c.Replies)),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if dto.Attachments == nil {
		dto.Attachments = []models.Attachment{}
	}
	if c.AssignedTo != nil {
		dto.AssignedTo = toUserRef(*c.AssignedTo)
	}
	for _, m := range c.Replies {
		dto.Replies = append(dto.Replies, LegacyReplyDTO{Text: m.Body, By: toUserRef(m.Author), CreatedAt: m.CreatedAt})
	}
	return dto
}

func toComplaintDTOs(items []models.Complaint) []ComplaintDTO {
	out := make([]ComplaintDTO, 0, len(items))
	for _, c := range items {
		out = append(out, toComplaintDTO(c))
	}
	return out
}

func toReactionDTOs(items []models.Reaction) []ReactionDTO {
	out := make([]ReactionDTO, 0, len(items))
	for _, r := range items {
		out = append(out, ReactionDTO{User: r.UserID, Emoji: r.Emoji, CreatedAt: r.CreatedAt})
	}
	return out
}

func toMessageDTO(m models.Message) MessageDTO {
	urls := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		urls = append(urls, a.URL)
	}
	return MessageDTO{
		ObjectID:      m.ID,
		Sender:        m.Sender,
		Message:       m.Body,
		Type:          m.Type,
		AudioURL:      m.AudioURL,
		Attachments:   urls,
		Reactions:     toReactionDTOs(m.Reactions),
		SeenByAdmin:   m.SeenByAdmin,
		SeenByStudent: m.SeenByStudent,
		CreatedAt:     m.CreatedAt,
	}
}

func toMessageDTOs(items []models.Message) []MessageDTO {
	out := make([]MessageDTO, 0, len(items))
	for _, m := range items {
		out = append(out, toMessageDTO(m))
	}
	return out
}

func toReplyDTO(m models.Message) ReplyDTO {
	by := toUserRef(m.Author)
	if by != nil {
		by.Role = m.Author.Role
	}
	attachments := []models.Attachment(m.Attachments)
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	return ReplyDTO{
		ObjectID:    m.ID,
		ComplaintID: m.ComplaintID,
		Text:        m.Body,
		Type:        m.Type,
		AudioURL:    m.AudioURL,
		By:          by,
		Attachments: attachments,
		CreatedAt:   m.CreatedAt,
	}
}

func toCategoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{
		ObjectID:    c.ID,
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ObjectID:    n.ID,
		UserID:      n.UserID,
		Type:        n.Type,
		ComplaintID: n.ComplaintID,
		MessageID:   n.MessageID,
		Title:       n.Title,
		Body:        n.Body,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
}

func toAuditLogDTO(a models.AuditLog) AuditLogDTO {
	by := toUserRef(a.PerformedBy)
	if by != nil {
		by.Role = a.PerformedBy.Role
	}
	details := a.Details
	if details == nil {
		details = models.Details{}
	}
	return AuditLogDTO{
		ObjectID:    a.ID,
		Action:      a.Action,
		EntityType:  a.EntityType,
		EntityID:    a.EntityID,
		PerformedBy: by,
		Details:     details,
		IPAddress:   a.IPAddress,
		UserAgent:   a.UserAgent,
		CreatedAt:   a.CreatedAt,
	}
}

func toQuickReplyDTO(q models.QuickReply) QuickReplyDTO {
	return QuickReplyDTO{
		ObjectID:  q.ID,
		Label:     q.Label,
		Text:      q.Text,
		Scope:     q.Scope,
		CreatedBy: q.CreatedBy,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}

func pagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
