package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"brosolve-backend-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}

// Identity owns accounts, credentials and the authoritative role lookup.
type Identity struct {
	Users  UserStore
	Tokens TokenService
	Audit  *Audit
	Log    *zap.Logger
	Clock  Clock
}

func NewIdentity(users UserStore, tokens TokenService, audit *Audit, log *zap.Logger) *Identity {
	return &Identity{Users: users, Tokens: tokens, Audit: audit, Log: log}
}

type AccountInput struct {
	Name     string `validate:"required,max=120"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Phone    string `validate:"omitempty,max=32"`
}

func (in *AccountInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
}

// Register creates a student account. The role is never taken from the request.
func (s *Identity) Register(ctx context.Context, in AccountInput) (models.User, error) {
	in.normalize()
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return models.User{}, ErrBadRequest("Name, email and password are required")
	}
	if err := Validate(in); err != nil {
		return models.User{}, err
	}
	existing, err := s.Users.UserByEmail(ctx, in.Email)
	switch {
	case err == nil && existing.Role.IsStaff():
		return models.User{}, ErrBadRequest("Email already registered as admin")
	case err == nil:
		return models.User{}, ErrBadRequest("Email already registered")
	case !errors.Is(err, models.ErrNotFound):
		return models.User{}, WrapError(err, "lookup user")
	}
	return s.create(ctx, in, models.RoleStudent)
}

// CreateAdmin provisions an admin account. Superadmins are only created out of band.
func (s *Identity) CreateAdmin(ctx context.Context, actor Actor, meta RequestMeta, in AccountInput) (models.User, error) {
	if actor.Role != models.RoleSuperadmin {
		return models.User{}, ErrForbidden("Only superadmins can create admins")
	}
	in.normalize()
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return models.User{}, ErrBadRequest("Name, email and password are required")
	}
	if err := Validate(in); err != nil {
		return models.User{}, err
	}
	user, err := s.create(ctx, in, models.RoleAdmin)
	if err != nil {
		return models.User{}, err
	}
	s.Audit.Record(ctx, actor, meta, "create", "user", user.ID, models.Details{"role": string(models.RoleAdmin)})
	return user, nil
}

func (s *Identity) create(ctx context.Context, in AccountInput, role models.Role) (models.User, error) {
	hash, err := s.Tokens.HashPassword(in.Password)
	if err != nil {
		return models.User{}, WrapError(err, "hash password")
	}
	now := s.Clock.Now()
	user := models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Phone != "" {
		phone := in.Phone
		user.Phone = &phone
	}
	if err := s.Users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return models.User{}, ErrBadRequest("Email already registered")
		}
		return models.User{}, WrapError(err, "create user")
	}
	return user, nil
}

// Login checks credentials and issues a token for the freshly read user.
func (s *Identity) Login(ctx context.Context, email, password string) (string, models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", models.User{}, ErrBadRequest("Email and password are required")
	}
	user, err := s.Users.UserByEmail(ctx, email)
	if err != nil {
		return "", models.User{}, notFoundAs(err, "User not found")
	}
	if !s.Tokens.VerifyPassword(password, user.PasswordHash) {
		return "", models.User{}, ErrUnauthorized("Invalid credentials")
	}
	if err := s.Users.SetLastLogin(ctx, user.ID, s.Clock.Now()); err != nil && s.Log != nil {
		s.Log.Warn("last login update failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	fresh, err := s.Authoritative(ctx, user.ID)
	if err != nil {
		return "", models.User{}, err
	}
	token, err := s.Tokens.Issue(fresh)
	if err != nil {
		return "", models.User{}, WrapError(err, "issue token")
	}
	return token, fresh, nil
}

// Authoritative re-reads the user so role decisions never trust token claims.
func (s *Identity) Authoritative(ctx context.Context, userID string) (models.User, error) {
	user, err := s.Users.UserByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return models.User{}, ErrUnauthorized("User no longer exists")
	}
	if err != nil {
		return models.User{}, WrapError(err, "load user")
	}
	return user, nil
}

func (s *Identity) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.Users.ListUsers(ctx)
	if err != nil {
		return nil, WrapError(err, "list users")
	}
	return users, nil
}
