package httpapi

import (
	"net/http"
	"strings"

	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Category routes answer in the {success, data} envelope the admin panel uses.
type CategoryEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type CategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

func (s *Server) categoryFail(w http.ResponseWriter, r *http.Request, err error) {
	if serr, ok := err.(services.ServiceError); ok {
		WriteJSON(w, serr.Status, CategoryEnvelope{Success: false, Message: serr.Message})
		return
	}
	s.Log.Error("category request failed", zap.Error(err), zap.String("path", r.URL.Path))
	WriteJSON(w, http.StatusInternalServerError, CategoryEnvelope{Success: false, Message: "Server error"})
}

func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	items, err := s.Categories.List(r.Context(), models.CategoryFilter{
		Query:           strings.TrimSpace(query.Get("q")),
		IncludeInactive: query.Get("includeInactive") == "true",
	})
	if err != nil {
		s.categoryFail(w, r, err)
		return
	}
	out := make([]CategoryDTO, 0, len(items))
	for _, c := range items {
		out = append(out, toCategoryDTO(c))
	}
	WriteJSON(w, http.StatusOK, CategoryEnvelope{Success: true, Data: out})
}

func (s *Server) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.Categories.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.categoryFail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, CategoryEnvelope{Success: true, Data: toCategoryDTO(c)})
}

func (s *Server) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		WriteJSON(w, http.StatusBadRequest, CategoryEnvelope{Success: false, Message: "Category name required"})
		return
	}
	in := services.CategoryInput{Name: *req.Name}
	if req.Description != nil {
		in.Description = *req.Description
	}
	c, err := s.Categories.Create(r.Context(), CurrentActor(r), requestMeta(r), in)
	if err != nil {
		s.categoryFail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, CategoryEnvelope{Success: true, Data: toCategoryDTO(c)})
}

func (s *Server) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteJSON(w, http.StatusBadRequest, CategoryEnvelope{Success: false, Message: "Invalid payload"})
		return
	}
	c, err := s.Categories.Update(r.Context(), CurrentActor(r), requestMeta(r), chi.URLParam(r, "id"), services.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		s.categoryFail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, CategoryEnvelope{Success: true, Data: toCategoryDTO(c)})
}

func (s *Server) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.Categories.Deactivate(r.Context(), CurrentActor(r), requestMeta(r), chi.URLParam(r, "id"))
	if err != nil {
		s.categoryFail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, CategoryEnvelope{Success: true, Message: "Category deleted", Data: toCategoryDTO(c)})
}

func (s *Server) RestoreCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.Categories.Restore(r.Context(), CurrentActor(r), requestMeta(r), chi.URLParam(r, "id"))
	if err != nil {
		s.categoryFail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, CategoryEnvelope{Success: true, Message: "Category restored", Data: toCategoryDTO(c)})
}
