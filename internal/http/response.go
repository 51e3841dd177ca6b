package httpapi

import (
	"encoding/json"
	"net/http"

	"brosolve-backend-go/internal/services"

	"go.uber.org/zap"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

func mapServiceError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	if serr, ok := err.(services.ServiceError); ok {
		WriteError(w, serr.Status, serr.Message)
		return true
	}
	return false
}

// fail writes a ServiceError as-is; anything else becomes a 500 carrying
// message plus the underlying error text.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	if mapServiceError(w, err) {
		return
	}
	s.Log.Error(message,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: message, Error: err.Error()})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
