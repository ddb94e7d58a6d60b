// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sweetshop/internal/auth"
	"sweetshop/internal/model"
	"sweetshop/internal/store"
)

// Auth implements registration, login, and token issuance.
type Auth struct {
	queries *store.Queries
	tokens  *auth.TokenManager
	logger  *slog.Logger
}

// NewAuth creates an Auth service.
func NewAuth(db *sql.DB, tokens *auth.TokenManager, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auth{
		queries: store.New(db),
		tokens:  tokens,
		logger:  logger,
	}
}

// Register creates a new account with role "user" and issues a token.
// Returns ErrEmailExists when the email is already taken.
func (s *Auth) Register(ctx context.Context, email, password, name string) (model.User, string, error) {
	_, err := s.queries.GetUserByEmail(ctx, email)
	if err == nil {
		return model.User{}, "", ErrEmailExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, "", fmt.Errorf("checking email: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, "", fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// The UNIQUE constraint is the authoritative uniqueness check: a
		// concurrent registration can slip past the lookup above.
		if isUniqueViolation(err) {
			return model.User{}, "", ErrEmailExists
		}
		return model.User{}, "", fmt.Errorf("creating user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return model.User{}, "", fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user registered", "category", "auth", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Auth) Login(ctx context.Context, email, password string) (model.User, string, error) {
	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, "", ErrInvalidCredentials
		}
		return model.User{}, "", fmt.Errorf("looking up user: %w", err)
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return model.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return model.User{}, "", fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user logged in", "category", "auth", "user_id", user.ID)
	return user, token, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
