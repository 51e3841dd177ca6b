package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type ComplaintResponse struct {
	Message   string       `json:"message"`
	Complaint ComplaintDTO `json:"complaint"`
}

type ComplaintListResponse struct {
	Complaints []ComplaintDTO `json:"complaints"`
	Pagination Pagination     `json:"pagination"`
}

type StatusRequest struct {
	Status models.Status `json:"status"`
}

type RatingRequest struct {
	Score   json.Number `json:"score"`
	Comment string      `json:"comment"`
}

type LegacyReplyRequest struct {
	Text string `json:"text"`
}

func (s *Server) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	defer form.Close()

	complaint, err := s.Complaints.Create(r.Context(), CurrentActor(r), requestMeta(r), services.CreateComplaintInput{
		Title:             form.Value("title"),
		Description:       form.Value("description"),
		Category:          form.Value("category"),
		CenterType:        form.Value("centerType"),
		ContactPreference: form.Value("contactPreference"),
		ContactMethod:     form.Value("contactMethod"),
		AllowWebReply:     form.Bool("allowWebReply"),
		ReplyInWeb:        form.Bool("replyInWeb"),
		Files:             form.Files(),
	})
	if err != nil {
		s.fail(w, r, err, "Error submitting complaint")
		return
	}
	WriteJSON(w, http.StatusCreated, ComplaintResponse{Message: "Complaint submitted", Complaint: toComplaintDTO(complaint)})
}

func (s *Server) ListComplaints(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.ComplaintFilter{
		Category:   strings.TrimSpace(query.Get("category")),
		Status:     models.Status(strings.TrimSpace(query.Get("status"))),
		CenterType: models.CenterType(strings.TrimSpace(query.Get("centerType"))),
		Query:      strings.TrimSpace(query.Get("q")),
		Page:       parseInt(query.Get("page"), 1),
		Limit:      parseInt(query.Get("limit"), 10),
	}
	if from, ok := parseDate(query.Get("from"), false); ok {
		filter.From = &from
	}
	if to, ok := parseDate(query.Get("to"), true); ok {
		filter.To = &to
	}
	items, total, err := s.Complaints.List(r.Context(), CurrentActor(r), filter)
	if err != nil {
		s.fail(w, r, err, "Error fetching complaints")
		return
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	WriteJSON(w, http.StatusOK, ComplaintListResponse{
		Complaints: toComplaintDTOs(items),
		Pagination: pagination(filter.Page, filter.Limit, total),
	})
}

func (s *Server) GetComplaint(w http.ResponseWriter, r *http.Request) {
	complaint, err := s.Complaints.Get(r.Context(), CurrentActor(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "Error fetching complaint")
		return
	}
	WriteJSON(w, http.StatusOK, toComplaintDTO(complaint))
}

func (s *Server) UpdateComplaintStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	s.changeStatus(w, r, req.Status, services.RouteStatus, "Status updated successfully", "Error updating status")
}

func (s *Server) CloseComplaint(w http.ResponseWriter, r *http.Request) {
	s.changeStatus(w, r, models.StatusClosed, services.RouteClose, "Complaint closed successfully", "Error closing complaint")
}

func (s *Server) SolveComplaint(w http.ResponseWriter, r *http.Request) {
	s.changeStatus(w, r, models.StatusResolved, services.RouteSolve, "Complaint marked as solved", "Error solving complaint")
}

func (s *Server) changeStatus(w http.ResponseWriter, r *http.Request, to models.Status, route services.Route, ok, failed string) {
	complaint, err := s.Complaints.ChangeStatus(r.Context(), CurrentActor(r), requestMeta(r), chi.URLParam(r, "id"), to, route)
	if err != nil {
		s.fail(w, r, err, failed)
		return
	}
	WriteJSON(w, http.StatusOK, ComplaintResponse{Message: ok, Complaint: toComplaintDTO(complaint)})
}

func (s *Server) RateComplaint(w http.ResponseWriter, r *http.Request) {
	var req RatingRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	score, err := strconv.Atoi(req.Score.String())
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	complaint, err := s.Complaints.Rate(r.Context(), CurrentActor(r), requestMeta(r), chi.URLParam(r, "id"), services.RatingInput{
		Score:   score,
		Comment: req.Comment,
	})
	if err != nil {
		s.fail(w, r, err, "Error submitting rating")
		return
	}
	WriteJSON(w, http.StatusOK, ComplaintResponse{Message: "Rating submitted successfully", Complaint: toComplaintDTO(complaint)})
}

// LegacyReply is the staff-only inline reply route. It writes a reply-ledger
// entry, which then shows up in complaint.replies.
func (s *Server) LegacyReply(w http.ResponseWriter, r *http.Request) {
	var req LegacyReplyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Reply text is required")
		return
	}
	actor := CurrentActor(r)
	id := chi.URLParam(r, "id")
	if _, err := s.Chat.PostReply(r.Context(), actor, requestMeta(r), id, req.Text, nil); err != nil {
		s.fail(w, r, err, "Error adding reply")
		return
	}
	complaint, err := s.Complaints.Get(r.Context(), actor, id)
	if err != nil {
		s.fail(w, r, err, "Error adding reply")
		return
	}
	WriteJSON(w, http.StatusOK, ComplaintResponse{Message: "Reply added", Complaint: toComplaintDTO(complaint)})
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value < 1 {
		return fallback
	}
	return value
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain date used as
// an upper bound covers the whole day.
func parseDate(raw string, endOfDay bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}
