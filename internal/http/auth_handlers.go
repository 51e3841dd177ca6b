package httpapi

import (
	"net/http"

	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/services"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionUser struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type RegisterResponse struct {
	Message string      `json:"message"`
	User    SessionUser `json:"user"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

type MeResponse struct {
	User SessionUser `json:"user"`
}

func sessionUser(u models.User) SessionUser {
	return SessionUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	// The request has no role field; registration always yields a student.
	user, err := s.Identity.Register(r.Context(), services.AccountInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		s.fail(w, r, err, "Server error")
		return
	}
	WriteJSON(w, http.StatusCreated, RegisterResponse{Message: "Registered", User: sessionUser(user)})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Missing fields")
		return
	}
	token, user, err := s.Identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err, "Server error")
		return
	}
	WriteJSON(w, http.StatusOK, LoginResponse{Token: token, User: sessionUser(user)})
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	user, err := s.Identity.Authoritative(r.Context(), CurrentActor(r).ID)
	if err != nil {
		s.fail(w, r, err, "Server error")
		return
	}
	WriteJSON(w, http.StatusOK, MeResponse{User: sessionUser(user)})
}
