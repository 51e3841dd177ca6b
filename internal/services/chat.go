package services

import (
	"context"
	"errors"
	"mime"
	"strings"
	"time"

	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/storage"
	"brosolve-backend-go/internal/typing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MessageStore interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, complaintID string, view models.MessageView) ([]models.Message, error)
	MarkMessagesSeen(ctx context.Context, complaintID string, viewer models.Side) error
	ApplyReaction(ctx context.Context, complaintID, messageID, userID, emoji string, at time.Time) ([]models.Reaction, error)
}

// Chat is the conversation side of a complaint: the chat thread, voice notes,
// reactions, typing presence and the reply ledger. Every conversational event
// is a single append to the message log.
type Chat struct {
	Complaints *Complaints
	Messages   MessageStore
	Typing     typing.Tracker
	Files      storage.Storage
	Notifier   Notifier
	Audit      *Audit
	Log        *zap.Logger
	Clock      Clock
}

var audioTypes = map[string]bool{
	"audio/webm":  true,
	"audio/wav":   true,
	"audio/mpeg":  true,
	"audio/ogg":   true,
	"audio/mp3":   true,
	"audio/mp4":   true,
	"audio/x-m4a": true,
	"audio/m4a":   true,
}

// AllowedAudio reports whether contentType (parameters ignored) is an accepted voice format.
func AllowedAudio(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return audioTypes[strings.ToLower(mediaType)]
}

type Thread struct {
	Messages    []models.Message
	UnreadCount int
	Complaint   models.Complaint
}

// PostMessage appends a chat message. The sender side comes from the actor's role only.
func (s *Chat) PostMessage(ctx context.Context, actor Actor, meta RequestMeta, complaintID, text string, files []Upload) (models.Complaint, models.Message, error) {
	c, err := s.Complaints.load(ctx, actor, complaintID)
	if err != nil {
		return models.Complaint{}, models.Message{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" && len(files) == 0 {
		return models.Complaint{}, models.Message{}, ErrBadRequest("Message or attachment is required")
	}
	attachments, err := s.Complaints.saveFiles(ctx, files)
	if err != nil {
		return models.Complaint{}, models.Message{}, err
	}

	m := s.newMessage(actor, c.ID, models.ChannelChat, models.MessageText)
	m.Body = text
	m.Attachments = attachments
	if err := s.Messages.CreateMessage(ctx, &m); err != nil {
		return models.Complaint{}, models.Message{}, WrapError(err, "create message")
	}
	s.Audit.Record(ctx, actor, meta, "message", "complaint", c.ID, models.Details{
		"messageId":   m.ID,
		"sender":      string(m.Sender),
		"attachments": len(m.Attachments),
	})
	s.Notifier.MessagePosted(ctx, c, m)

	full, err := s.Complaints.Get(ctx, actor, c.ID)
	if err != nil {
		return models.Complaint{}, models.Message{}, err
	}
	return full, m, nil
}

// ListMessages marks the opposite side's messages as seen by the caller and
// returns the chat thread. UnreadCount counts every message from the
// opposite side, seen or not.
func (s *Chat) ListMessages(ctx context.Context, actor Actor, complaintID string) (Thread, error) {
	c, err := s.Complaints.load(ctx, actor, complaintID)
	if err != nil {
		return Thread{}, err
	}
	viewer := actor.Side()
	if err := s.Messages.MarkMessagesSeen(ctx, c.ID, viewer); err != nil {
		return Thread{}, WrapError(err, "mark messages seen")
	}
	messages, err := s.Messages.ListMessages(ctx, c.ID, models.ViewChat)
	if err != nil {
		return Thread{}, WrapError(err, "list messages")
	}
	unread := 0
	for _, m := range messages {
		if m.Sender == viewer.Opposite() {
			unread++
		}
	}
	return Thread{Messages: messages, UnreadCount: unread, Complaint: c}, nil
}

// PostVoice stores an audio upload and appends it as a chat message of type audio.
func (s *Chat) PostVoice(ctx context.Context, actor Actor, meta RequestMeta, complaintID string, audio *Upload) (models.Message, error) {
	if audio == nil {
		return models.Message{}, ErrBadRequest("Audio file is required")
	}
	if !AllowedAudio(audio.ContentType) {
		return models.Message{}, ErrBadRequest("Invalid audio format")
	}
	c, err := s.Complaints.load(ctx, actor, complaintID)
	if err != nil {
		return models.Message{}, err
	}
	obj, err := s.Files.Save(ctx, storage.FolderAudio, audio.Filename, audio.ContentType, audio.Body)
	if errors.Is(err, storage.ErrEmptyFile) {
		return models.Message{}, ErrBadRequest("Audio file is required")
	}
	if err != nil {
		return models.Message{}, WrapError(err, "save audio")
	}

	m := s.newMessage(actor, c.ID, models.ChannelChat, models.MessageAudio)
	url := obj.URL
	m.AudioURL = &url
	if err := s.Messages.CreateMessage(ctx, &m); err != nil {
		return models.Message{}, WrapError(err, "create voice message")
	}
	s.Audit.Record(ctx, actor, meta, "voice_message", "complaint", c.ID, models.Details{"messageId": m.ID})
	s.Notifier.MessagePosted(ctx, c, m)
	return m, nil
}

// React toggles the actor's emoji on a message and returns the message's reactions.
func (s *Chat) React(ctx context.Context, actor Actor, complaintID, messageID, emoji string) ([]models.Reaction, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, ErrBadRequest("Emoji is required")
	}
	c, err := s.Complaints.load(ctx, actor, complaintID)
	if err != nil {
		return nil, err
	}
	reactions, err := s.Messages.ApplyReaction(ctx, c.ID, messageID, actor.ID, emoji, s.Clock.Now())
	if err != nil {
		return nil, notFoundAs(err, "Message not found")
	}
	return reactions, nil
}

func (s *Chat) SetTyping(ctx context.Context, actor Actor, complaintID string, isTyping bool) error {
	c, err := s.Complaints.load(ctx, actor, complaintID)
	if err != nil {
		return err
	}
	if err := s.Typing.Set(ctx, c.ID, actor.Side(), isTyping); err != nil {
		return WrapError(err, "set typing")
	}
	return nil
}

func (s *Chat) GetTyping(ctx context.Context, actor Actor, complaintID string) (typing.Status, error) {
	c, err := s.Complaints.load(ctx, actor, complaintID)
	if err != nil {
		return typing.Status{}, err
	}
	status, err := s.Typing.Get(ctx, c.ID)
	if err != nil {
		return typing.Status{}, WrapError(err, "get typing")
	}
	return status, nil
}

// PostReply appends a reply-ledger entry. Ledger replies do not notify.
func (s *Chat) PostReply(ctx context.Context, actor Actor, meta RequestMeta, complaintID, text string, files []Upload) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrBadRequest("Reply text is required")
	}
	c, err := s.Complaints.load(ctx, actor, complaintID)
	if err != nil {
		return models.Message{}, err
	}
	attachments, err := s.Complaints.saveFiles(ctx, files)
	if err != nil {
		return models.Message{}, err
	}
	m := s.newMessage(actor, c.ID, models.ChannelReply, models.MessageText)
	m.Body = text
	m.Attachments = attachments
	if err := s.Messages.CreateMessage(ctx, &m); err != nil {
		return models.Message{}, WrapError(err, "create reply")
	}
	s.Audit.Record(ctx, actor, meta, "reply", "complaint", c.ID, models.Details{"messageId": m.ID})
	return m, nil
}

// ListReplies returns the reply ledger: reply-channel entries and voice notes.
func (s *Chat) ListReplies(ctx context.Context, actor Actor, complaintID string) ([]models.Message, error) {
	c, err := s.Complaints.load(ctx, actor, complaintID)
	if err != nil {
		return nil, err
	}
	replies, err := s.Messages.ListMessages(ctx, c.ID, models.ViewLedger)
	if err != nil {
		return nil, WrapError(err, "list replies")
	}
	return replies, nil
}

func (s *Chat) newMessage(actor Actor, complaintID string, channel models.Channel, kind models.MessageType) models.Message {
	side := actor.Side()
	return models.Message{
		ID:            uuid.NewString(),
		ComplaintID:   complaintID,
		Author:        actor.Summary(),
		Sender:        side,
		Channel:       channel,
		Type:          kind,
		Attachments:   models.Attachments{},
		SeenByAdmin:   side == models.SideAdmin,
		SeenByStudent: side == models.SideStudent,
		Reactions:     []models.Reaction{},
		CreatedAt:     s.Clock.Now(),
	}
}
