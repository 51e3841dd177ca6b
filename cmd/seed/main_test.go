package main

import (
	"context"
	"testing"
	"time"

	"brosolve-backend-go/internal/config"
	"brosolve-backend-go/internal/memstore"
	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSeeder(store *memstore.Store) *seeder {
	log := zap.NewNop()
	return &seeder{
		users:      store,
		categories: services.NewCategories(store, services.NewAudit(store, log)),
		tokens:     services.TokenService{BcryptCost: 4},
		log:        log,
	}
}

func TestSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	s := newSeeder(store)
	cfg := config.SeedConfig{
		SuperadminName:    "Super Admin",
		SuperadminEmail:   "root@example.com",
		SuperadminPass:    "changeme1",
		DefaultCategories: []string{"Infrastructure", "Hostel & Food"},
	}

	require.NoError(t, s.run(ctx, cfg))
	require.NoError(t, s.run(ctx, cfg))

	admin, err := store.UserByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperadmin, admin.Role)
	assert.True(t, admin.IsHead)
	assert.True(t, s.tokens.VerifyPassword("changeme1", admin.PasswordHash))

	categories, err := store.ListCategories(ctx, models.CategoryFilter{IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "hostel-food", categories[0].Slug)
}

func TestSeedPromotesExistingAccount(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	s := newSeeder(store)
	hash, err := s.tokens.HashPassword("original1")
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, &models.User{
		ID: memstore.NewID(), Name: "Meera", Email: "meera@example.com", PasswordHash: hash,
		Role: models.RoleAdmin, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))

	user, err := s.superadmin(ctx, "Meera", "meera@example.com", "another1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperadmin, user.Role)

	stored, err := store.UserByEmail(ctx, "meera@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperadmin, stored.Role)
	assert.True(t, s.tokens.VerifyPassword("original1", stored.PasswordHash))
}

func TestSeedSkipsInactiveCategories(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	s := newSeeder(store)
	require.NoError(t, store.CreateCategory(ctx, &models.Category{ID: memstore.NewID(), Name: "Other", Slug: "other"}))

	created, skipped, err := s.seedCategories(ctx, services.Actor{ID: "root", Role: models.RoleSuperadmin}, []string{"Other", "Administration"})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, skipped)
}

func TestSeedRejectsWeakPassword(t *testing.T) {
	s := newSeeder(memstore.New())
	_, err := s.superadmin(context.Background(), "Root", "root@example.com", "123")
	assert.Error(t, err)
}
