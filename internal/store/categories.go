package store

import (
	"context"
	"strings"

	"brosolve-backend-go/internal/models"
)

const categoryColumns = `id, name, slug, description, is_active, created_by, created_at, updated_at`

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO categories (id, name, slug, description, is_active, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, c.ID, c.Name, c.Slug, c.Description, c.IsActive, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
	return mapErr(err)
}

func (s *Store) CategoryByID(ctx context.Context, id string) (models.Category, error) {
	var c models.Category
	if !validID(id) {
		return c, models.ErrNotFound
	}
	err := s.DB.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return c, mapErr(err)
}

// ActiveCategory finds an active category whose name or slug equals value.
func (s *Store) ActiveCategory(ctx context.Context, value string) (models.Category, error) {
	var c models.Category
	err := s.DB.GetContext(ctx, &c, `
SELECT `+categoryColumns+`
FROM categories
WHERE is_active AND (name = $1 OR slug = $2)
LIMIT 1
`, value, strings.ToLower(value))
	return c, mapErr(err)
}

func (s *Store) ListCategories(ctx context.Context, filter models.CategoryFilter) ([]models.Category, error) {
	w := &where{}
	if !filter.IncludeInactive {
		w.add("is_active")
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		p := w.arg(likePattern(q))
		w.add("(name ILIKE " + p + " OR slug ILIKE " + p + " OR description ILIKE " + p + ")")
	}
	items := []models.Category{}
	err := s.DB.SelectContext(ctx, &items, `SELECT `+categoryColumns+` FROM categories`+w.String()+` ORDER BY name`, w.args...)
	return items, err
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := s.DB.ExecContext(ctx, `
UPDATE categories
SET name = $1, slug = $2, description = $3, is_active = $4, updated_at = $5
WHERE id = $6
`, c.Name, c.Slug, c.Description, c.IsActive, c.UpdatedAt, c.ID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
