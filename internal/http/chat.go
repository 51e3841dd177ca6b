package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type PostMessageResponse struct {
	Message    string       `json:"message"`
	Complaint  ComplaintDTO `json:"complaint"`
	NewMessage MessageDTO   `json:"newMessage"`
}

type ThreadResponse struct {
	Messages    []MessageDTO `json:"messages"`
	UnreadCount int          `json:"unreadCount"`
	Complaint   ComplaintDTO `json:"complaint"`
}

type ReactRequest struct {
	Emoji string `json:"emoji"`
}

type ReactResponse struct {
	Message   string        `json:"message"`
	Reactions []ReactionDTO `json:"reactions"`
}

type TypingRequest struct {
	IsTyping bool `json:"isTyping"`
}

type ReplyResponse struct {
	Message string   `json:"message"`
	Reply   ReplyDTO `json:"reply"`
}

type RepliesResponse struct {
	Replies []ReplyDTO `json:"replies"`
}

// VoiceResponse carries the note in both shapes: the staff view reads reply,
// the student view reads newMessage.
type VoiceResponse struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	Reply      ReplyDTO   `json:"reply"`
	NewMessage MessageDTO `json:"newMessage"`
}

// PostMessage ignores any "sender" field in the body; the side is derived
// from the caller's stored role.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	defer form.Close()

	complaint, message, err := s.Chat.PostMessage(r.Context(), CurrentActor(r), requestMeta(r), chi.URLParam(r, "id"), form.Value("message"), form.Files())
	if err != nil {
		s.fail(w, r, err, "Error sending message")
		return
	}
	WriteJSON(w, http.StatusOK, PostMessageResponse{
		Message:    "Message sent successfully",
		Complaint:  toComplaintDTO(complaint),
		NewMessage: toMessageDTO(message),
	})
}

func (s *Server) ListMessages(w http.ResponseWriter, r *http.Request) {
	thread, err := s.Chat.ListMessages(r.Context(), CurrentActor(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "Error fetching messages")
		return
	}
	WriteJSON(w, http.StatusOK, ThreadResponse{
		Messages:    toMessageDTOs(thread.Messages),
		UnreadCount: thread.UnreadCount,
		Complaint:   toComplaintDTO(thread.Complaint),
	})
}

func (s *Server) ReactToMessage(w http.ResponseWriter, r *http.Request) {
	var req ReactRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Emoji is required")
		return
	}
	reactions, err := s.Chat.React(r.Context(), CurrentActor(r), chi.URLParam(r, "id"), chi.URLParam(r, "messageId"), req.Emoji)
	if err != nil {
		s.fail(w, r, err, "Error updating reaction")
		return
	}
	WriteJSON(w, http.StatusOK, ReactResponse{Message: "Reaction updated", Reactions: toReactionDTOs(reactions)})
}

func (s *Server) SetTyping(w http.ResponseWriter, r *http.Request) {
	var req TypingRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := s.Chat.SetTyping(r.Context(), CurrentActor(r), chi.URLParam(r, "id"), req.IsTyping); err != nil {
		s.fail(w, r, err, "Error updating typing status")
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Typing status updated"})
}

func (s *Server) GetTyping(w http.ResponseWriter, r *http.Request) {
	status, err := s.Chat.GetTyping(r.Context(), CurrentActor(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "Error fetching typing status")
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

func (s *Server) PostReply(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	defer form.Close()

	reply, err := s.Chat.PostReply(r.Context(), CurrentActor(r), requestMeta(r), chi.URLParam(r, "id"), form.Value("text"), form.Files())
	if err != nil {
		s.fail(w, r, err, "Error adding reply")
		return
	}
	WriteJSON(w, http.StatusCreated, ReplyResponse{Message: "Reply added", Reply: toReplyDTO(reply)})
}

func (s *Server) ListReplies(w http.ResponseWriter, r *http.Request) {
	items, err := s.Chat.ListReplies(r.Context(), CurrentActor(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "Error fetching replies")
		return
	}
	out := make([]ReplyDTO, 0, len(items))
	for _, m := range items {
		out = append(out, toReplyDTO(m))
	}
	WriteJSON(w, http.StatusOK, RepliesResponse{Replies: out})
}

func (s *Server) PostVoice(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Audio file is required")
		return
	}
	defer form.Close()

	message, err := s.Chat.PostVoice(r.Context(), CurrentActor(r), requestMeta(r), chi.URLParam(r, "id"), form.File("audio"))
	if err != nil {
		s.fail(w, r, err, "Error uploading voice message")
		return
	}
	WriteJSON(w, http.StatusCreated, VoiceResponse{
		Success:    true,
		Message:    "Voice message sent",
		Reply:      toReplyDTO(message),
		NewMessage: toMessageDTO(message),
	})
}

// DisabledVoiceRoute keeps the retired chat audio path answering with a pointer
// to the reply ledger route.
func DisabledVoiceRoute(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "This endpoint is disabled. Use /api/replies/complaint/:id/audio instead")
}
