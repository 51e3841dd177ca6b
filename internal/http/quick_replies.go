package httpapi

import (
	"net/http"

	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type QuickReplyRequest struct {
	Label *string                 `json:"label"`
	Text  *string                 `json:"text"`
	Scope *models.QuickReplyScope `json:"scope"`
}

type QuickReplyListResponse struct {
	QuickReplies []QuickReplyDTO `json:"quickReplies"`
}

type QuickReplyResponse struct {
	Message    string        `json:"message"`
	QuickReply QuickReplyDTO `json:"quickReply"`
}

func (s *Server) ListQuickReplies(w http.ResponseWriter, r *http.Request) {
	items, err := s.QuickReplies.List(r.Context(), CurrentActor(r))
	if err != nil {
		s.fail(w, r, err, "Error fetching quick replies")
		return
	}
	out := make([]QuickReplyDTO, 0, len(items))
	for _, q := range items {
		out = append(out, toQuickReplyDTO(q))
	}
	WriteJSON(w, http.StatusOK, QuickReplyListResponse{QuickReplies: out})
}

func (s *Server) CreateQuickReply(w http.ResponseWriter, r *http.Request) {
	var req QuickReplyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	in := services.QuickReplyInput{}
	if req.Label != nil {
		in.Label = *req.Label
	}
	if req.Text != nil {
		in.Text = *req.Text
	}
	if req.Scope != nil {
		in.Scope = *req.Scope
	}
	q, err := s.QuickReplies.Create(r.Context(), CurrentActor(r), in)
	if err != nil {
		s.fail(w, r, err, "Error creating quick reply")
		return
	}
	WriteJSON(w, http.StatusOK, QuickReplyResponse{Message: "Quick reply created", QuickReply: toQuickReplyDTO(q)})
}

func (s *Server) UpdateQuickReply(w http.ResponseWriter, r *http.Request) {
	var req QuickReplyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	q, err := s.QuickReplies.Update(r.Context(), CurrentActor(r), chi.URLParam(r, "id"), services.QuickReplyPatch{
		Label: req.Label,
		Text:  req.Text,
		Scope: req.Scope,
	})
	if err != nil {
		s.fail(w, r, err, "Error updating quick reply")
		return
	}
	WriteJSON(w, http.StatusOK, QuickReplyResponse{Message: "Quick reply updated", QuickReply: toQuickReplyDTO(q)})
}

func (s *Server) DeleteQuickReply(w http.ResponseWriter, r *http.Request) {
	if err := s.QuickReplies.Delete(r.Context(), CurrentActor(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "Error deleting quick reply")
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Quick reply deleted"})
}
