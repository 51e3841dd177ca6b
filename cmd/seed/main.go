// Command seed provisions the superadmin account and the default complaint
// categories. It is safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"brosolve-backend-go/internal/config"
	"brosolve-backend-go/internal/db"
	"brosolve-backend-go/internal/logging"
	"brosolve-backend-go/internal/migrations"
	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/services"
	"brosolve-backend-go/internal/store"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadSeed()
	logger, cleanup, err := logging.New(false, "", 0)
	if err != nil {
		panic(err)
	}
	defer cleanup()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer database.Close()
	if _, err := migrations.Apply(database, migrations.Files()); err != nil {
		logger.Fatal("migrations", zap.Error(err))
	}
	st := store.New(database)
	audit := services.NewAudit(st, logger)
	s := &seeder{
		users:      st,
		categories: services.NewCategories(st, audit),
		tokens:     services.TokenService{BcryptCost: cfg.BcryptCost},
		log:        logger,
	}
	if err := s.run(ctx, cfg); err != nil {
		logger.Error("seed failed", zap.Error(err))
		os.Exit(1)
	}
}

type userStore interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUserRole(ctx context.Context, id string, role models.Role) error
}

type seeder struct {
	users      userStore
	categories *services.Categories
	tokens     services.TokenService
	log        *zap.Logger
	now        func() time.Time
}

func (s *seeder) run(ctx context.Context, cfg config.SeedConfig) error {
	admin, err := s.superadmin(ctx, cfg.SuperadminName, cfg.SuperadminEmail, cfg.SuperadminPass)
	if err != nil {
		return err
	}
	created, skipped, err := s.seedCategories(ctx, services.ActorFrom(admin), cfg.DefaultCategories)
	if err != nil {
		return err
	}
	s.log.Info("categories seeded", zap.Int("created", created), zap.Int("skipped", skipped))
	return nil
}

// superadmin creates the account, or promotes an existing account with the
// same email. An existing password is left as it is.
func (s *seeder) superadmin(ctx context.Context, name, email, password string) (models.User, error) {
	if err := services.Validate(services.AccountInput{Name: name, Email: email, Password: password}); err != nil {
		return models.User{}, err
	}
	existing, err := s.users.UserByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.RoleSuperadmin {
			if err := s.users.UpdateUserRole(ctx, existing.ID, models.RoleSuperadmin); err != nil {
				return models.User{}, err
			}
			existing.Role = models.RoleSuperadmin
		}
		s.log.Info("superadmin ready", zap.String("email", email), zap.Bool("created", false))
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.User{}, err
	}

	hash, err := s.tokens.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	now := time.Now().UTC()
	if s.now != nil {
		now = s.now()
	}
	user := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleSuperadmin,
		IsHead:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		return models.User{}, err
	}
	s.log.Info("superadmin ready", zap.String("email", email), zap.Bool("created", true))
	return user, nil
}

// seedCategories creates every named category whose name or slug is not
// taken yet, active or not.
func (s *seeder) seedCategories(ctx context.Context, actor services.Actor, names []string) (int, int, error) {
	existing, err := s.categories.Store.ListCategories(ctx, models.CategoryFilter{IncludeInactive: true})
	if err != nil {
		return 0, 0, err
	}
	taken := map[string]bool{}
	for _, c := range existing {
		taken[c.Name] = true
		taken[c.Slug] = true
	}

	created, skipped := 0, 0
	meta := services.RequestMeta{UserAgent: "seed"}
	for _, name := range names {
		slug := services.Slugify(name)
		if taken[name] || taken[slug] {
			skipped++
			continue
		}
		c, err := s.categories.Create(ctx, actor, meta, services.CategoryInput{Name: name})
		if err != nil {
			return created, skipped, err
		}
		taken[c.Name] = true
		taken[c.Slug] = true
		created++
	}
	return created, skipped, nil
}
