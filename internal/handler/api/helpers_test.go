// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"sweetshop/internal/auth"
	"sweetshop/internal/middleware"
	"sweetshop/internal/model"
	"sweetshop/internal/service"
	"sweetshop/internal/store"
	"sweetshop/internal/testutil"
)

// testAPI bundles the wired router and tokens for handler tests.
type testAPI struct {
	router     *chi.Mux
	tokens     *auth.TokenManager
	sweets     *service.Sweets
	adminToken string
	userToken  string
}

// newTestAPI builds a full API stack over a temporary database, with one
// admin and one regular user account.
func newTestAPI(t *testing.T) (*testAPI, func()) {
	t.Helper()
	return newTestAPIWithGuard(t, nil)
}

// newTestAPIWithGuard is newTestAPI with login protection attached.
func newTestAPIWithGuard(t *testing.T, guard LoginGuard) (*testAPI, func()) {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	logger := testutil.TestLogger()

	tokens := auth.NewTokenManager("test-secret-key-32-bytes-long!!!", time.Hour)
	authService := service.NewAuth(db, tokens, logger)
	sweetService := service.NewSweets(db, logger, 5)

	handler := NewHandler(authService, sweetService)
	if guard != nil {
		handler.SetLoginGuard(guard)
	}

	// Seed an admin account directly; registration only creates user roles
	ctx := context.Background()
	passwordHash, err := auth.HashPassword("admin-password-123!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	now := time.Now()
	admin, err := store.New(db).CreateUser(ctx, store.CreateUserParams{
		Email:        "admin@sweetshop.local",
		PasswordHash: passwordHash,
		Name:         "Admin",
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("creating admin: %v", err)
	}
	adminToken, err := tokens.Generate(admin.ID, admin.Email, admin.Role)
	if err != nil {
		t.Fatalf("generating admin token: %v", err)
	}

	_, userToken, err := authService.Register(ctx, "user@example.com", "user-password-123", "Regular User")
	if err != nil {
		t.Fatalf("registering user: %v", err)
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", handler.Status)
		r.Post("/auth/register", handler.Register)
		r.Post("/auth/login", handler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens))

			r.Get("/sweets", handler.ListSweets)
			r.Get("/sweets/search", handler.SearchSweets)
			r.Get("/sweets/{id}", handler.GetSweet)
			r.Post("/sweets/{id}/purchase", handler.PurchaseSweet)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())

				r.Post("/sweets", handler.CreateSweet)
				r.Put("/sweets/{id}", handler.UpdateSweet)
				r.Delete("/sweets/{id}", handler.DeleteSweet)
				r.Post("/sweets/{id}/restock", handler.RestockSweet)
			})
		})
	})

	api := &testAPI{
		router:     r,
		tokens:     tokens,
		sweets:     sweetService,
		adminToken: adminToken,
		userToken:  userToken,
	}
	return api, cleanup
}

// do performs a request against the test router. A non-empty token is sent
// as a bearer credential.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// createSweet creates a sweet through the admin API and returns its response.
func (a *testAPI) createSweet(t *testing.T, name, category string, price float64, quantity int64) SweetResponse {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/sweets", a.adminToken, CreateSweetRequest{
		Name:     name,
		Category: category,
		Price:    price,
		Quantity: quantity,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("creating sweet: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var sweet SweetResponse
	decodeBody(t, rec, &sweet)
	return sweet
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var errResp ErrorResponse
	decodeBody(t, rec, &errResp)
	return errResp
}
