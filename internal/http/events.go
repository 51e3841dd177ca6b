package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Events upgrades to a websocket that receives "notification" events for the
// caller and, for staff, "metrics" samples. Browsers cannot set headers on the
// upgrade request, so the token travels in the query string.
func (s *Server) Events(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "No token provided")
		return
	}
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	user, err := s.Identity.Authoritative(r.Context(), claims.ID)
	if err != nil {
		if !mapServiceError(w, err) {
			WriteError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.allowedOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	s.Hub.Add(conn, user.ID, user.Role.IsStaff())
	defer func() {
		s.Hub.Remove(conn)
		_ = conn.Close()
	}()

	// Client frames are ignored; reading only detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.Config.CorsOrigins) == 0 {
		return true
	}
	for _, allowed := range s.Config.CorsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
