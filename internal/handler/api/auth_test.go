// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"
	"time"
)

func TestRegister(t *testing.T) {
	api, cleanup := newTestAPI(t)
	defer cleanup()

	rec := api.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:    "new@example.com",
		Password: "password123",
		Name:     "New User",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp AuthResponse
	decodeBody(t, rec, &resp)

	if resp.User.Email != "new@example.com" {
		t.Errorf("Email = %q, want %q", resp.User.Email, "new@example.com")
	}
	if resp.User.Role != "user" {
		t.Errorf("Role = %q, want %q", resp.User.Role, "user")
	}
	if resp.Token == "" {
		t.Error("token should be issued at registration")
	}

	// The issued token works against protected routes
	listRec := api.do(t, http.MethodGet, "/api/sweets", resp.Token, nil)
	if listRec.Code != http.StatusOK {
		t.Errorf("list with new token: status = %d, want %d", listRec.Code, http.StatusOK)
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	api, cleanup := newTestAPI(t)
	defer cleanup()

	rec := api.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:    "  MiXeD@Example.COM  ",
		Password: "password123",
		Name:     "Mixed Case",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp AuthResponse
	decodeBody(t, rec, &resp)
	if resp.User.Email != "mixed@example.com" {
		t.Errorf("Email = %q, want lowercased trimmed form", resp.User.Email)
	}
}

func TestRegister_Validation(t *testing.T) {
	api, cleanup := newTestAPI(t)
	defer cleanup()

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"invalid email", RegisterRequest{Email: "not-an-email", Password: "password123", Name: "X"}, "email"},
		{"missing email", RegisterRequest{Password: "password123", Name: "X"}, "email"},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short", Name: "X"}, "password"},
		{"missing name", RegisterRequest{Email: "a@example.com", Password: "password123"}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/auth/register", "", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}

			errResp := decodeError(t, rec)
			if errResp.Error.Code != "validation_error" {
				t.Errorf("code = %q, want %q", errResp.Error.Code, "validation_error")
			}
			if _, ok := errResp.Error.Details[tt.field]; !ok {
				t.Errorf("details missing field %q: %v", tt.field, errResp.Error.Details)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	api, cleanup := newTestAPI(t)
	defer cleanup()

	req := RegisterRequest{Email: "dup@example.com", Password: "password123", Name: "First"}
	if rec := api.do(t, http.MethodPost, "/api/auth/register", "", req); rec.Code != http.StatusCreated {
		t.Fatalf("first register: status = %d", rec.Code)
	}

	rec := api.do(t, http.MethodPost, "/api/auth/register", "", req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLogin(t *testing.T) {
	api, cleanup := newTestAPI(t)
	defer cleanup()

	rec := api.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "user@example.com",
		Password: "user-password-123",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp AuthResponse
	decodeBody(t, rec, &resp)
	if resp.Token == "" {
		t.Error("token should be issued at login")
	}
	if resp.User.Email != "user@example.com" {
		t.Errorf("Email = %q, want %q", resp.User.Email, "user@example.com")
	}
}

// Wrong password and unknown email must produce identical responses.
func TestLogin_InvalidCredentials(t *testing.T) {
	api, cleanup := newTestAPI(t)
	defer cleanup()

	wrongPassword := api.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "user@example.com",
		Password: "wrong-password",
	})
	unknownEmail := api.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "ghost@example.com",
		Password: "wrong-password",
	})

	for _, rec := range []*struct {
		name string
		code int
		body string
	}{
		{"wrong password", wrongPassword.Code, wrongPassword.Body.String()},
		{"unknown email", unknownEmail.Code, unknownEmail.Body.String()},
	} {
		if rec.code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want %d", rec.name, rec.code, http.StatusUnauthorized)
		}
	}

	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Errorf("responses differ: %q vs %q", wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}

func TestLogin_MissingFields(t *testing.T) {
	api, cleanup := newTestAPI(t)
	defer cleanup()

	rec := api.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// lockingGuard locks every account unconditionally.
type lockingGuard struct{}

func (lockingGuard) IsAccountLocked(string) (bool, time.Duration)    { return true, time.Minute }
func (lockingGuard) RecordFailedAttempt(string) (bool, time.Duration) { return false, 0 }
func (lockingGuard) RecordSuccessfulLogin(string)                     {}

func TestLogin_AccountLocked(t *testing.T) {
	api, cleanup := newTestAPIWithGuard(t, lockingGuard{})
	defer cleanup()

	rec := api.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "user@example.com",
		Password: "user-password-123",
	})

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	errResp := decodeError(t, rec)
	if errResp.Error.Code != "account_locked" {
		t.Errorf("code = %q, want %q", errResp.Error.Code, "account_locked")
	}
}

// countingGuard records how often failures and successes are reported.
type countingGuard struct {
	failed    int
	succeeded int
}

func (g *countingGuard) IsAccountLocked(string) (bool, time.Duration)     { return false, 0 }
func (g *countingGuard) RecordFailedAttempt(string) (bool, time.Duration) { g.failed++; return false, 0 }
func (g *countingGuard) RecordSuccessfulLogin(string)                     { g.succeeded++ }

func TestLogin_ReportsToGuard(t *testing.T) {
	guard := &countingGuard{}
	api, cleanup := newTestAPIWithGuard(t, guard)
	defer cleanup()

	api.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "user@example.com",
		Password: "wrong-password",
	})
	if guard.failed != 1 {
		t.Errorf("failed = %d, want 1", guard.failed)
	}

	api.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "user@example.com",
		Password: "user-password-123",
	})
	if guard.succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", guard.succeeded)
	}
}
