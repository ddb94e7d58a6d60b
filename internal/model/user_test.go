// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleAdmin, true},
		{RoleUser, false},
		{"", false},
		{"Admin", false},
	}

	for _, tt := range tests {
		u := User{Role: tt.role}
		if got := u.IsAdmin(); got != tt.want {
			t.Errorf("IsAdmin() with role %q = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestUser_PasswordHashNeverMarshaled(t *testing.T) {
	u := User{
		ID:           1,
		Email:        "user@example.com",
		PasswordHash: "$argon2id$secret",
		Name:         "Test User",
		Role:         RoleUser,
	}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "argon2id") {
		t.Errorf("serialized user leaks password hash: %s", data)
	}
}

func TestUser_Public(t *testing.T) {
	u := User{
		ID:           7,
		Email:        "user@example.com",
		PasswordHash: "$argon2id$secret",
		Name:         "Test User",
		Role:         RoleUser,
	}

	pub := u.Public()
	if pub.ID != u.ID || pub.Email != u.Email || pub.Name != u.Name || pub.Role != u.Role {
		t.Errorf("Public() = %+v, want fields from %+v", pub, u)
	}

	data, err := json.Marshal(pub)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "argon2id") || strings.Contains(string(data), "password") {
		t.Errorf("public user leaks credentials: %s", data)
	}
}
