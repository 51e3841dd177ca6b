package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type NotificationListResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
	UnreadCount   int               `json:"unreadCount"`
}

type NotificationResponse struct {
	Message      string          `json:"message"`
	Notification NotificationDTO `json:"notification"`
}

func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	items, unread, err := s.Notifications.List(r.Context(), CurrentActor(r).ID)
	if err != nil {
		s.fail(w, r, err, "Error fetching notifications")
		return
	}
	out := make([]NotificationDTO, 0, len(items))
	for _, n := range items {
		out = append(out, toNotificationDTO(n))
	}
	WriteJSON(w, http.StatusOK, NotificationListResponse{Notifications: out, UnreadCount: unread})
}

func (s *Server) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.Notifications.MarkRead(r.Context(), CurrentActor(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "Error updating notification")
		return
	}
	WriteJSON(w, http.StatusOK, NotificationResponse{Message: "Notification marked as read", Notification: toNotificationDTO(n)})
}

func (s *Server) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := s.Notifications.MarkAllRead(r.Context(), CurrentActor(r).ID); err != nil {
		s.fail(w, r, err, "Error updating notifications")
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "All notifications marked as read"})
}

func (s *Server) MarkComplaintNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := s.Notifications.MarkComplaintRead(r.Context(), CurrentActor(r).ID, chi.URLParam(r, "complaintId")); err != nil {
		s.fail(w, r, err, "Error updating notifications")
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Complaint notifications marked as read"})
}
