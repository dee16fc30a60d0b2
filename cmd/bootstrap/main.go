package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/warddesk/backend/internal/adapters/database"
	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/clients/postgres"
	"github.com/civicworks/warddesk/backend/pkg/config"
	"github.com/civicworks/warddesk/backend/pkg/password"
)

// Creates the initial admin account if none exists yet. Safe to run on every
// deploy: an existing account is left untouched.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	email := strings.ToLower(strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL")))
	plain := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")
	if email == "" || plain == "" {
		log.Fatal("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set")
	}
	if len(plain) < 8 {
		log.Fatal("BOOTSTRAP_ADMIN_PASSWORD must be at least 8 characters")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()

	userAdapter := database.NewUserAdapter(pgClient)
	profileAdapter := database.NewUserProfileAdapter(pgClient)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := userAdapter.GetByEmail(ctx, email)
	if err != nil {
		log.Fatalf("Failed to look up %s: %v", email, err)
	}
	if existing != nil {
		log.Printf("Admin account %s already exists, nothing to do", email)
		return
	}

	hash, err := password.Hash(plain, password.DefaultParams())
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	now := time.Now()
	user := &entities.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         entities.UserRoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := userAdapter.Create(ctx, user); err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	fullName := os.Getenv("BOOTSTRAP_ADMIN_NAME")
	if fullName == "" {
		fullName = "Administrator"
	}
	profile := &entities.UserProfile{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		FullName:  fullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := profileAdapter.Create(ctx, profile); err != nil {
		log.Fatalf("Failed to create admin profile: %v", err)
	}

	log.Printf("Admin account %s created", email)
}
