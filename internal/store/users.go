package store

import (
	"context"
	"strings"
	"time"

	"brosolve-backend-go/internal/models"
)

const userColumns = `id, name, email, password_hash, role, is_head, phone, last_login_at, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO users (id, name, email, password_hash, role, is_head, phone, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.IsHead, u.Phone, u.CreatedAt, u.UpdatedAt)
	return mapErr(err)
}

func (s *Store) UserByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	if !validID(id) {
		return u, models.ErrNotFound
	}
	err := s.DB.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return u, mapErr(err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.DB.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, strings.ToLower(email))
	return u, mapErr(err)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.DB.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	return users, err
}

func (s *Store) StaffUserIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := s.DB.SelectContext(ctx, &ids, `SELECT id FROM users WHERE role IN ('admin', 'superadmin') ORDER BY created_at`)
	return ids, err
}

func (s *Store) UpdateUserRole(ctx context.Context, id string, role models.Role) error {
	if !validID(id) {
		return models.ErrNotFound
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET role = $1, updated_at = now() WHERE id = $2`, role, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return models.ErrNotFound
	}
	_, err := s.DB.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, id)
	return err
}
