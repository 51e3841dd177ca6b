package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/services"
)

type CreateAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type CreateAdminResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Admin   SessionUser `json:"admin"`
}

type UserListResponse struct {
	Users []UserDTO `json:"users"`
}

type AuditLogListResponse struct {
	Logs       []AuditLogDTO `json:"logs"`
	Pagination Pagination    `json:"pagination"`
}

type MetricsHistoryResponse struct {
	Items []models.MetricSample `json:"items"`
}

func (s *Server) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req CreateAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Missing fields: name, email, password")
		return
	}
	admin, err := s.Identity.CreateAdmin(r.Context(), CurrentActor(r), requestMeta(r), services.AccountInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		s.fail(w, r, err, "Server error")
		return
	}
	WriteJSON(w, http.StatusCreated, CreateAdminResponse{Success: true, Message: "Admin created successfully", Admin: sessionUser(admin)})
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Identity.ListUsers(r.Context())
	if err != nil {
		s.fail(w, r, err, "Error fetching users")
		return
	}
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	WriteJSON(w, http.StatusOK, UserListResponse{Users: out})
}

func (s *Server) AuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.AuditFilter{
		Action:     strings.TrimSpace(query.Get("action")),
		EntityType: strings.TrimSpace(query.Get("entityType")),
		UserID:     strings.TrimSpace(query.Get("userId")),
		Page:       parseInt(query.Get("page"), 1),
		Limit:      parseInt(query.Get("limit"), 50),
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	items, total, err := s.Audit.List(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err, "Error fetching audit logs")
		return
	}
	out := make([]AuditLogDTO, 0, len(items))
	for _, entry := range items {
		out = append(out, toAuditLogDTO(entry))
	}
	WriteJSON(w, http.StatusOK, AuditLogListResponse{Logs: out, Pagination: pagination(filter.Page, filter.Limit, total)})
}

// ExportComplaints renders the whole file before writing so a failed query
// still produces a JSON error instead of a truncated download.
func (s *Server) ExportComplaints(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.ComplaintFilter{
		Category:   strings.TrimSpace(query.Get("category")),
		Status:     models.Status(strings.TrimSpace(query.Get("status"))),
		CenterType: models.CenterType(strings.TrimSpace(query.Get("centerType"))),
	}
	var buf bytes.Buffer
	if _, err := s.Exports.ComplaintsCSV(r.Context(), CurrentActor(r), requestMeta(r), filter, &buf); err != nil {
		s.fail(w, r, err, "Error exporting complaints")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="complaints-%d.csv"`, time.Now().UnixMilli()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.Metrics.History(r.Context(), parseInt(r.URL.Query().Get("limit"), 120))
	if err != nil {
		s.fail(w, r, err, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, MetricsHistoryResponse{Items: items})
}
