package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sweetshop/internal/auth"
	"sweetshop/internal/model"
)

// SeedParams holds the bootstrap admin credentials.
type SeedParams struct {
	AdminEmail    string
	AdminName     string
	AdminPassword string
}

// Seed creates the bootstrap admin account and a handful of sample sweets.
// It is idempotent: an existing admin account skips the whole seed.
func Seed(ctx context.Context, db *sql.DB, params SeedParams) error {
	queries := New(db)

	// Check if the admin user already exists
	_, err := queries.GetUserByEmail(ctx, params.AdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(params.AdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        params.AdminEmail,
		PasswordHash: passwordHash,
		Name:         params.AdminName,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created admin user", "id", user.ID, "email", user.Email)

	samples := []CreateSweetParams{
		{Name: "Chocolate Bar", Category: "Chocolate", Price: 2.50, Quantity: 50,
			Description: sql.NullString{String: "Classic milk chocolate bar", Valid: true}},
		{Name: "Gummy Bears", Category: "Candy", Price: 1.75, Quantity: 120},
		{Name: "Salted Caramel Fudge", Category: "Fudge", Price: 4.20, Quantity: 30},
	}

	for _, s := range samples {
		s.CreatedAt = now
		s.UpdatedAt = now
		if _, err := queries.CreateSweet(ctx, s); err != nil {
			return fmt.Errorf("creating sample sweet %q: %w", s.Name, err)
		}
	}

	slog.Info("seeded sample sweets", "count", len(samples))
	return nil
}
