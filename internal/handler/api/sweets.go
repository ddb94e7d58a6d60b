// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sweetshop/internal/model"
	"sweetshop/internal/service"
)

// SweetResponse represents a sweet in API responses.
type SweetResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Quantity    int64     `json:"quantity"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateSweetRequest is the request body for creating a sweet.
type CreateSweetRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Quantity    int64   `json:"quantity"`
	Description *string `json:"description,omitempty"`
}

// UpdateSweetRequest is the request body for a partial sweet update.
type UpdateSweetRequest struct {
	Name        *string  `json:"name,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Quantity    *int64   `json:"quantity,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// QuantityRequest is the request body for purchase and restock.
type QuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// AdjustmentResponse is returned by purchase and restock.
type AdjustmentResponse struct {
	Message string        `json:"message"`
	Sweet   SweetResponse `json:"sweet"`
}

// sweetToResponse converts a model.Sweet to SweetResponse.
func sweetToResponse(s model.Sweet) SweetResponse {
	resp := SweetResponse{
		ID:        s.ID,
		Name:      s.Name,
		Category:  s.Category,
		Price:     s.Price,
		Quantity:  s.Quantity,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Description.Valid {
		resp.Description = &s.Description.String
	}
	return resp
}

func sweetsToResponse(sweets []model.Sweet) []SweetResponse {
	out := make([]SweetResponse, 0, len(sweets))
	for _, s := range sweets {
		out = append(out, sweetToResponse(s))
	}
	return out
}

// ListSweets handles GET /api/sweets.
func (h *Handler) ListSweets(w http.ResponseWriter, r *http.Request) {
	sweets, err := h.sweets.List(r.Context())
	if err != nil {
		slog.Error("failed to list sweets", "error", err)
		WriteInternalError(w, "Failed to list sweets")
		return
	}
	WriteJSON(w, http.StatusOK, sweetsToResponse(sweets))
}

// SearchSweets handles GET /api/sweets/search.
// Query parameters: name, category, minPrice, maxPrice — all optional.
func (h *Handler) SearchSweets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := model.SweetFilters{
		Name:     strings.TrimSpace(q.Get("name")),
		Category: strings.TrimSpace(q.Get("category")),
	}

	if v := q.Get("minPrice"); v != "" {
		minPrice, err := strconv.ParseFloat(v, 64)
		if err != nil {
			WriteBadRequest(w, "Invalid minPrice", nil)
			return
		}
		filters.MinPrice = &minPrice
	}
	if v := q.Get("maxPrice"); v != "" {
		maxPrice, err := strconv.ParseFloat(v, 64)
		if err != nil {
			WriteBadRequest(w, "Invalid maxPrice", nil)
			return
		}
		filters.MaxPrice = &maxPrice
	}

	sweets, err := h.sweets.Search(r.Context(), filters)
	if err != nil {
		slog.Error("failed to search sweets", "error", err)
		WriteInternalError(w, "Failed to search sweets")
		return
	}
	WriteJSON(w, http.StatusOK, sweetsToResponse(sweets))
}

// GetSweet handles GET /api/sweets/{id}.
func (h *Handler) GetSweet(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid sweet ID", nil)
		return
	}

	sweet, err := h.sweets.Get(r.Context(), id)
	if err != nil {
		writeSweetError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sweetToResponse(sweet))
}

// CreateSweet handles POST /api/sweets (admin only).
func (h *Handler) CreateSweet(w http.ResponseWriter, r *http.Request) {
	var req CreateSweetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)

	fieldErrors := make(map[string]string)
	if req.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if req.Category == "" {
		fieldErrors["category"] = "Category is required"
	}
	if req.Price < 0 {
		fieldErrors["price"] = "Price must be non-negative"
	}
	if req.Quantity < 0 {
		fieldErrors["quantity"] = "Quantity must be non-negative"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	sweet, err := h.sweets.Create(r.Context(), service.CreateSweetInput{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Description: req.Description,
	})
	if err != nil {
		slog.Error("failed to create sweet", "error", err)
		WriteInternalError(w, "Failed to create sweet")
		return
	}
	WriteJSON(w, http.StatusCreated, sweetToResponse(sweet))
}

// UpdateSweet handles PUT /api/sweets/{id} (admin only).
func (h *Handler) UpdateSweet(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid sweet ID", nil)
		return
	}

	var req UpdateSweetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := make(map[string]string)
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		fieldErrors["name"] = "Name must not be empty"
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) == "" {
		fieldErrors["category"] = "Category must not be empty"
	}
	if req.Price != nil && *req.Price < 0 {
		fieldErrors["price"] = "Price must be non-negative"
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		fieldErrors["quantity"] = "Quantity must be non-negative"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	sweet, err := h.sweets.Update(r.Context(), id, service.UpdateSweetInput{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Description: req.Description,
	})
	if err != nil {
		writeSweetError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sweetToResponse(sweet))
}

// DeleteSweet handles DELETE /api/sweets/{id} (admin only).
func (h *Handler) DeleteSweet(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid sweet ID", nil)
		return
	}

	if err := h.sweets.Delete(r.Context(), id); err != nil {
		writeSweetError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Sweet deleted successfully"})
}

// PurchaseSweet handles POST /api/sweets/{id}/purchase.
func (h *Handler) PurchaseSweet(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid sweet ID", nil)
		return
	}

	var req QuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sweet, err := h.sweets.Purchase(r.Context(), id, req.Quantity)
	if err != nil {
		writeSweetError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, AdjustmentResponse{
		Message: "Purchase successful",
		Sweet:   sweetToResponse(sweet),
	})
}

// RestockSweet handles POST /api/sweets/{id}/restock (admin only).
func (h *Handler) RestockSweet(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid sweet ID", nil)
		return
	}

	var req QuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sweet, err := h.sweets.Restock(r.Context(), id, req.Quantity)
	if err != nil {
		writeSweetError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, AdjustmentResponse{
		Message: "Restock successful",
		Sweet:   sweetToResponse(sweet),
	})
}
