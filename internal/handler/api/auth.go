// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"sweetshop/internal/model"
	"sweetshop/internal/service"
)

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 8

// RegisterRequest is the request body for POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := make(map[string]string)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fieldErrors["email"] = "A valid email address is required"
	}
	if len(req.Password) < MinPasswordLength {
		fieldErrors["password"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	if req.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			WriteBadRequest(w, service.ErrEmailExists.Error(), nil)
			return
		}
		slog.Error("registration failed", "category", "auth", "error", err)
		WriteInternalError(w, "Internal Server Error")
		return
	}

	WriteJSON(w, http.StatusCreated, AuthResponse{
		User:  user.Public(),
		Token: token,
	})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Email == "" || req.Password == "" {
		WriteValidationError(w, map[string]string{
			"credentials": "Email and password are required",
		})
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(req.Email); locked {
			WriteError(w, http.StatusTooManyRequests, "account_locked",
				fmt.Sprintf("Account temporarily locked. Try again in %s.", remaining.Round(time.Second)), nil)
			return
		}
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			if h.loginProtection != nil {
				h.loginProtection.RecordFailedAttempt(req.Email)
			}
			WriteUnauthorized(w, service.ErrInvalidCredentials.Error())
			return
		}
		slog.Error("login failed", "category", "auth", "error", err)
		WriteInternalError(w, "Internal Server Error")
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(req.Email)
	}

	WriteJSON(w, http.StatusOK, AuthResponse{
		User:  user.Public(),
		Token: token,
	})
}
