package services

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"brosolve-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostMessageSenderComesFromRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newComplaint(t, f.student)

	_, m, err := f.chat.PostMessage(ctx, f.super, RequestMeta{}, c.ID, "On it", nil)
	require.NoError(t, err)
	assert.Equal(t, models.SideAdmin, m.Sender)
	assert.True(t, m.SeenByAdmin)
	assert.False(t, m.SeenByStudent)

	complaint, m, err := f.chat.PostMessage(ctx, f.student, RequestMeta{}, c.ID, "Thanks", nil)
	require.NoError(t, err)
	assert.Equal(t, models.SideStudent, m.Sender)
	assert.True(t, m.SeenByStudent)
	assert.False(t, m.SeenByAdmin)
	assert.Equal(t, c.ID, complaint.ID)
	assert.Equal(t, []string{"created", "message", "message"}, f.notifier.kinds())
}

func TestPostMessageIsAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newComplaint(t, f.student)

	_, m, err := f.chat.PostMessage(ctx, f.admin, RequestMeta{IP: "10.1.2.3", UserAgent: "test"}, c.ID, "Looking into it", nil)
	require.NoError(t, err)

	logs, total, err := f.store.ListAuditLogs(ctx, models.AuditFilter{Action: "message"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	entry := logs[0]
	assert.Equal(t, "complaint", entry.EntityType)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, c.ID, *entry.EntityID)
	assert.Equal(t, f.admin.ID, entry.PerformedBy.ID)
	assert.Equal(t, "10.1.2.3", entry.IPAddress)
	assert.Equal(t, m.ID, entry.Details["messageId"])
	assert.Equal(t, "admin", entry.Details["sender"])
}

func TestPostMessageValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newComplaint(t, f.student)

	_, _, err := f.chat.PostMessage(ctx, f.student, RequestMeta{}, c.ID, "   ", nil)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, _, err = f.chat.PostMessage(ctx, f.other, RequestMeta{}, c.ID, "hello", nil)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, m, err := f.chat.PostMessage(ctx, f.student, RequestMeta{}, c.ID, "", []Upload{
		upload("1.png", "image/png", "1"),
		upload("2.png", "image/png", "2"),
		upload("3.png", "image/png", "3"),
		upload("4.png", "image/png", "4"),
	})
	require.NoError(t, err)
	assert.Len(t, m.Attachments, 3)
}

func TestListMessagesMarksOppositeSideSeen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newComplaint(t, f.student)
	_, _, err := f.chat.PostMessage(ctx, f.student, RequestMeta{}, c.ID, "one", nil)
	require.NoError(t, err)
	_, _, err = f.chat.PostMessage(ctx, f.student, RequestMeta{}, c.ID, "two", nil)
	require.NoError(t, err)
	_, _, err = f.chat.PostMessage(ctx, f.admin, RequestMeta{}, c.ID, "reply", nil)
	require.NoError(t, err)

	thread, err := f.chat.ListMessages(ctx, f.admin, c.ID)
	require.NoError(t, err)
	require.Len(t, thread.Messages, 3)
	assert.Equal(t, 2, thread.UnreadCount)
	for _, m := range thread.Messages {
		assert.True(t, m.SeenByAdmin, m.Body)
	}
	assert.False(t, thread.Messages[2].SeenByStudent)

	thread, err = f.chat.ListMessages(ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, thread.UnreadCount)
	assert.True(t, thread.Messages[2].SeenByStudent)
	assert.Equal(t, "one", thread.Messages[0].Body)
}

func TestReactionToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newComplaint(t, f.student)
	_, m, err := f.chat.PostMessage(ctx, f.admin, RequestMeta{}, c.ID, "Fixed?", nil)
	require.NoError(t, err)

	reactions, err := f.chat.React(ctx, f.student, c.ID, m.ID, "👍")
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, "👍", reactions[0].Emoji)

	reactions, err = f.chat.React(ctx, f.student, c.ID, m.ID, "❤️")
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, "❤️", reactions[0].Emoji)

	reactions, err = f.chat.React(ctx, f.admin, c.ID, m.ID, "❤️")
	require.NoError(t, err)
	assert.Len(t, reactions, 2)

	reactions, err = f.chat.React(ctx, f.student, c.ID, m.ID, "❤️")
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, f.admin.ID, reactions[0].UserID)

	_, err = f.chat.React(ctx, f.student, c.ID, "missing", "👍")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
	_, err = f.chat.React(ctx, f.student, c.ID, m.ID, " ")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestConcurrentReactionsKeepOnePerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newComplaint(t, f.student)
	_, m, err := f.chat.PostMessage(ctx, f.admin, RequestMeta{}, c.ID, "Fixed?", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, emoji := range []string{"👍", "❤️", "🎉", "👍", "❤️"} {
		wg.Add(1)
		go func(emoji string) {
			defer wg.Done()
			_, _ = f.chat.React(ctx, f.student, c.ID, m.ID, emoji)
		}(emoji)
	}
	wg.Wait()

	thread, err := f.chat.ListMessages(ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(thread.Messages[0].Reactions), 1)
}

func TestPostVoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newComplaint(t, f.student)

	_, err := f.chat.PostVoice(ctx, f.student, RequestMeta{}, c.ID, nil)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	bad := upload("note.txt", "text/plain", "hi")
	_, err = f.chat.PostVoice(ctx, f.student, RequestMeta{}, c.ID, &bad)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	voice := upload("note.webm", "audio/webm;codecs=opus", "OggS")
	m, err := f.chat.PostVoice(ctx, f.student, RequestMeta{}, c.ID, &voice)
	require.NoError(t, err)
	assert.Equal(t, models.MessageAudio, m.Type)
	assert.Equal(t, models.ChannelChat, m.Channel)
	assert.Empty(t, m.Body)
	require.NotNil(t, m.AudioURL)
	assert.Contains(t, *m.AudioURL, "/uploads/audio/")

	thread, err := f.chat.ListMessages(ctx, f.admin, c.ID)
	require.NoError(t, err)
	assert.Len(t, thread.Messages, 1)
	ledger, err := f.chat.ListReplies(ctx, f.admin, c.ID)
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
	assert.Equal(t, []string{"created", "message"}, f.notifier.kinds())
}

func TestAllowedAudio(t *testing.T) {
	for _, ct := range []string{"audio/webm", "audio/wav", "audio/mpeg", "audio/ogg", "audio/mp3", "audio/mp4", "audio/x-m4a", "audio/m4a", "AUDIO/OGG; codecs=opus"} {
		assert.True(t, AllowedAudio(ct), ct)
	}
	for _, ct := range []string{"", "audio/flac", "video/webm", "text/plain"} {
		assert.False(t, AllowedAudio(ct), ct)
	}
}

func TestTypingPresence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newComplaint(t, f.student)

	require.NoError(t, f.chat.SetTyping(ctx, f.super, c.ID, true))
	status, err := f.chat.GetTyping(ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.True(t, status.AdminTyping)
	assert.False(t, status.StudentTyping)

	err = f.chat.SetTyping(ctx, f.other, c.ID, true)
	assert.Equal(t, http.StatusForbidden, statusOf(err))
}

func TestReplyLedgerProjections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newComplaint(t, f.student)

	_, err := f.chat.PostReply(ctx, f.student, RequestMeta{}, c.ID, "", nil)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	reply, err := f.chat.PostReply(ctx, f.admin, RequestMeta{}, c.ID, "Technician assigned", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelReply, reply.Channel)
	_, _, err = f.chat.PostMessage(ctx, f.student, RequestMeta{}, c.ID, "chat only", nil)
	require.NoError(t, err)

	ledger, err := f.chat.ListReplies(ctx, f.student, c.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, "Technician assigned", ledger[0].Body)

	thread, err := f.chat.ListMessages(ctx, f.student, c.ID)
	require.NoError(t, err)
	require.Len(t, thread.Messages, 1)
	assert.Equal(t, "chat only", thread.Messages[0].Body)

	got, err := f.complaints.Get(ctx, f.student, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, "Meera", got.Replies[0].Author.Name)
}
