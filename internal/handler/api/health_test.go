// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sweetshop/internal/auth"
	"sweetshop/internal/model"
	"sweetshop/internal/testutil"
)

func newTestHealthHandler(t *testing.T) (*HealthHandler, *auth.TokenManager, func()) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	tokens := auth.NewTokenManager("test-secret-key-32-bytes-long!!!", time.Hour)
	return NewHealthHandler(db, tokens), tokens, cleanup
}

func healthRequest(t *testing.T, h http.HandlerFunc, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHealth_Unauthenticated(t *testing.T) {
	handler, _, cleanup := newTestHealthHandler(t)
	defer cleanup()

	rec := healthRequest(t, handler.Health, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	// Unauthenticated callers only see the overall status
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", resp["status"])
	}
	if _, ok := resp["checks"]; ok {
		t.Error("unauthenticated response should not include checks")
	}
	if _, ok := resp["uptime"]; ok {
		t.Error("unauthenticated response should not include uptime")
	}
}

func TestHealth_AuthenticatedUser(t *testing.T) {
	handler, tokens, cleanup := newTestHealthHandler(t)
	defer cleanup()

	token, err := tokens.Generate(1, "user@example.com", model.RoleUser)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rec := healthRequest(t, handler.Health, "/health", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var status HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", status.Status)
	}
	if status.Uptime == "" {
		t.Error("Uptime should be set for authenticated callers")
	}
	if status.Checks != nil {
		t.Error("non-admin response should not include check details")
	}
}

func TestHealth_Admin(t *testing.T) {
	handler, tokens, cleanup := newTestHealthHandler(t)
	defer cleanup()

	token, err := tokens.Generate(1, "admin@sweetshop.local", model.RoleAdmin)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rec := healthRequest(t, handler.Health, "/health", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var status HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	dbCheck, ok := status.Checks["database"]
	if !ok {
		t.Fatal("admin response should include database check")
	}
	if dbCheck.Status != "healthy" {
		t.Errorf("database check status = %q, want healthy", dbCheck.Status)
	}
	if status.System != nil {
		t.Error("system info should require verbose=true")
	}
}

func TestHealth_AdminVerbose(t *testing.T) {
	handler, tokens, cleanup := newTestHealthHandler(t)
	defer cleanup()

	token, err := tokens.Generate(1, "admin@sweetshop.local", model.RoleAdmin)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rec := healthRequest(t, handler.Health, "/health?verbose=true", token)

	var status HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if status.System == nil {
		t.Fatal("verbose admin response should include system info")
	}
	if status.System.GoVersion == "" {
		t.Error("GoVersion should be set")
	}
	if status.System.NumCPU < 1 {
		t.Errorf("NumCPU = %d, want >= 1", status.System.NumCPU)
	}
}

func TestHealth_InvalidTokenTreatedAsAnonymous(t *testing.T) {
	handler, _, cleanup := newTestHealthHandler(t)
	defer cleanup()

	rec := healthRequest(t, handler.Health, "/health", "not-a-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if _, ok := resp["uptime"]; ok {
		t.Error("invalid token should get the minimal response")
	}
}

func TestLiveness(t *testing.T) {
	handler, _, cleanup := newTestHealthHandler(t)
	defer cleanup()

	rec := healthRequest(t, handler.Liveness, "/health/live", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "alive" {
		t.Errorf("status = %q, want alive", resp["status"])
	}
}

func TestReadiness(t *testing.T) {
	handler, _, cleanup := newTestHealthHandler(t)
	defer cleanup()

	rec := healthRequest(t, handler.Readiness, "/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "ready" {
		t.Errorf("status = %q, want ready", resp["status"])
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes uint64
		want  string
	}{
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1073741824, "1.00 GB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
