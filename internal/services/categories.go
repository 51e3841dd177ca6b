package services

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"brosolve-backend-go/internal/models"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type CategoryStore interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	CategoryByID(ctx context.Context, id string) (models.Category, error)
	ActiveCategory(ctx context.Context, value string) (models.Category, error)
	ListCategories(ctx context.Context, filter models.CategoryFilter) ([]models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error
}

type Categories struct {
	Store CategoryStore
	Audit *Audit
	Clock Clock
}

func NewCategories(store CategoryStore, audit *Audit) *Categories {
	return &Categories{Store: store, Audit: audit}
}

// Slugify lowercases, folds accents, drops anything outside [a-z0-9 -] and
// joins whitespace runs with a dash.
func Slugify(value string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err != nil {
		folded = value
	}
	lower := strings.ToLower(strings.TrimSpace(folded))
	var b strings.Builder
	pendingDash := false
	for _, r := range lower {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			if pendingDash && b.Len() > 0 {
				b.WriteRune('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return b.String()
}

type CategoryInput struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=500"`
}

type CategoryPatch struct {
	Name        *string
	Description *string
	IsActive    *bool
}

func (s *Categories) List(ctx context.Context, filter models.CategoryFilter) ([]models.Category, error) {
	items, err := s.Store.ListCategories(ctx, filter)
	if err != nil {
		return nil, WrapError(err, "list categories")
	}
	return items, nil
}

func (s *Categories) Get(ctx context.Context, id string) (models.Category, error) {
	c, err := s.Store.CategoryByID(ctx, id)
	if err != nil {
		return models.Category{}, notFoundAs(err, "Category not found")
	}
	return c, nil
}

// ResolveActive finds the active category a complaint names, by name or slug.
func (s *Categories) ResolveActive(ctx context.Context, value string) (models.Category, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return models.Category{}, ErrBadRequest("Invalid category")
	}
	c, err := s.Store.ActiveCategory(ctx, value)
	if errors.Is(err, models.ErrNotFound) {
		c, err = s.Store.ActiveCategory(ctx, Slugify(value))
	}
	if errors.Is(err, models.ErrNotFound) {
		return models.Category{}, ErrBadRequest("Invalid category")
	}
	if err != nil {
		return models.Category{}, WrapError(err, "resolve category")
	}
	return c, nil
}

func (s *Categories) Create(ctx context.Context, actor Actor, meta RequestMeta, in CategoryInput) (models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return models.Category{}, ErrBadRequest("Category name is required")
	}
	if err := Validate(in); err != nil {
		return models.Category{}, err
	}
	slug := Slugify(in.Name)
	if slug == "" {
		return models.Category{}, ErrBadRequest("Category name must contain letters or digits")
	}
	now := s.Clock.Now()
	createdBy := actor.ID
	c := models.Category{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		IsActive:    true,
		CreatedBy:   &createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.CreateCategory(ctx, &c); err != nil {
		return models.Category{}, categoryWriteErr(err)
	}
	s.Audit.Record(ctx, actor, meta, "create", "category", c.ID, models.Details{"name": c.Name})
	return c, nil
}

func (s *Categories) Update(ctx context.Context, actor Actor, meta RequestMeta, id string, patch CategoryPatch) (models.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return models.Category{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Category{}, ErrBadRequest("Category name is required")
		}
		slug := Slugify(name)
		if slug == "" {
			return models.Category{}, ErrBadRequest("Category name must contain letters or digits")
		}
		c.Name = name
		c.Slug = slug
	}
	if patch.Description != nil {
		c.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.IsActive != nil {
		c.IsActive = *patch.IsActive
	}
	if err := Validate(CategoryInput{Name: c.Name, Description: c.Description}); err != nil {
		return models.Category{}, err
	}
	c.UpdatedAt = s.Clock.Now()
	if err := s.Store.UpdateCategory(ctx, &c); err != nil {
		return models.Category{}, categoryWriteErr(err)
	}
	s.Audit.Record(ctx, actor, meta, "update", "category", c.ID, models.Details{"name": c.Name})
	return c, nil
}

// Deactivate soft-deletes: the row stays so existing complaints keep their category name.
func (s *Categories) Deactivate(ctx context.Context, actor Actor, meta RequestMeta, id string) (models.Category, error) {
	return s.setActive(ctx, actor, meta, id, false, "delete")
}

func (s *Categories) Restore(ctx context.Context, actor Actor, meta RequestMeta, id string) (models.Category, error) {
	return s.setActive(ctx, actor, meta, id, true, "restore")
}

func (s *Categories) setActive(ctx context.Context, actor Actor, meta RequestMeta, id string, active bool, action string) (models.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return models.Category{}, err
	}
	c.IsActive = active
	c.UpdatedAt = s.Clock.Now()
	if err := s.Store.UpdateCategory(ctx, &c); err != nil {
		return models.Category{}, categoryWriteErr(err)
	}
	s.Audit.Record(ctx, actor, meta, action, "category", c.ID, models.Details{"name": c.Name})
	return c, nil
}

func categoryWriteErr(err error) error {
	switch {
	case errors.Is(err, models.ErrDuplicate):
		return ErrBadRequest("Category with same name or slug already exists")
	case errors.Is(err, models.ErrNotFound):
		return ErrNotFound("Category not found")
	}
	return WrapError(err, "save category")
}
