// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sweetshop/internal/model"
	"sweetshop/internal/store"
	"sweetshop/internal/webhook"
)

// Sweets implements sweet CRUD, search, and the stock adjustments.
type Sweets struct {
	queries           *store.Queries
	logger            *slog.Logger
	dispatcher        *webhook.Dispatcher
	lowStockThreshold int64
}

// NewSweets creates a Sweets service.
func NewSweets(db *sql.DB, logger *slog.Logger, lowStockThreshold int64) *Sweets {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweets{
		queries:           store.New(db),
		logger:            logger,
		lowStockThreshold: lowStockThreshold,
	}
}

// SetDispatcher sets the webhook dispatcher for event notifications.
func (s *Sweets) SetDispatcher(d *webhook.Dispatcher) {
	s.dispatcher = d
}

// CreateSweetInput holds the fields for creating a sweet. All validation of
// shape and range happens at the request boundary before this is built.
type CreateSweetInput struct {
	Name        string
	Category    string
	Price       float64
	Quantity    int64
	Description *string
}

// UpdateSweetInput holds the optional fields for a partial update.
type UpdateSweetInput struct {
	Name        *string
	Category    *string
	Price       *float64
	Quantity    *int64
	Description *string
}

// List returns all sweets, most recently created first.
func (s *Sweets) List(ctx context.Context) ([]model.Sweet, error) {
	return s.queries.ListSweets(ctx)
}

// Search returns sweets matching the given filters.
func (s *Sweets) Search(ctx context.Context, filters model.SweetFilters) ([]model.Sweet, error) {
	return s.queries.SearchSweets(ctx, filters)
}

// Get returns one sweet by id, or ErrSweetNotFound.
func (s *Sweets) Get(ctx context.Context, id int64) (model.Sweet, error) {
	sweet, err := s.queries.GetSweetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Sweet{}, ErrSweetNotFound
		}
		return model.Sweet{}, fmt.Errorf("getting sweet: %w", err)
	}
	return sweet, nil
}

// Create stores a new sweet.
func (s *Sweets) Create(ctx context.Context, input CreateSweetInput) (model.Sweet, error) {
	now := time.Now()
	sweet, err := s.queries.CreateSweet(ctx, store.CreateSweetParams{
		Name:        input.Name,
		Category:    input.Category,
		Price:       input.Price,
		Quantity:    input.Quantity,
		Description: nullString(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Sweet{}, fmt.Errorf("creating sweet: %w", err)
	}

	s.logger.Info("sweet created", "category", "sweet", "sweet_id", sweet.ID, "name", sweet.Name)
	s.dispatchSweetEvent(ctx, webhook.EventSweetCreated, sweet)
	return sweet, nil
}

// Update applies a partial update, or returns ErrSweetNotFound.
func (s *Sweets) Update(ctx context.Context, id int64, input UpdateSweetInput) (model.Sweet, error) {
	params := store.UpdateSweetParams{
		Name:      input.Name,
		Category:  input.Category,
		Price:     input.Price,
		Quantity:  input.Quantity,
		UpdatedAt: time.Now(),
	}
	if input.Description != nil {
		desc := nullString(input.Description)
		params.Description = &desc
	}

	sweet, err := s.queries.UpdateSweet(ctx, id, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Sweet{}, ErrSweetNotFound
		}
		return model.Sweet{}, fmt.Errorf("updating sweet: %w", err)
	}

	s.logger.Info("sweet updated", "category", "sweet", "sweet_id", sweet.ID)
	s.dispatchSweetEvent(ctx, webhook.EventSweetUpdated, sweet)
	return sweet, nil
}

// Delete removes a sweet, or returns ErrSweetNotFound.
func (s *Sweets) Delete(ctx context.Context, id int64) error {
	sweet, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.queries.DeleteSweet(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSweetNotFound
		}
		return fmt.Errorf("deleting sweet: %w", err)
	}

	s.logger.Info("sweet deleted", "category", "sweet", "sweet_id", id)
	s.dispatchSweetEvent(ctx, webhook.EventSweetDeleted, sweet)
	return nil
}

// Purchase decrements stock by quantity. The decrement and its availability
// check run as one conditional statement against the store, so two
// simultaneous purchases can never drive stock negative; no application-level
// lock exists.
func (s *Sweets) Purchase(ctx context.Context, id, quantity int64) (model.Sweet, error) {
	if quantity < 1 {
		return model.Sweet{}, ErrInvalidQuantity
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return model.Sweet{}, err
	}

	if current.Quantity < quantity {
		return model.Sweet{}, ErrInsufficientStock
	}

	sweet, err := s.queries.PurchaseSweet(ctx, id, quantity, time.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The guard rejected the decrement: a concurrent purchase
			// depleted the stock between the check and the update.
			return model.Sweet{}, ErrStockConflict
		}
		return model.Sweet{}, fmt.Errorf("applying purchase: %w", err)
	}

	s.logger.Info("sweet purchased",
		"category", "inventory",
		"sweet_id", sweet.ID,
		"quantity", quantity,
		"remaining", sweet.Quantity)

	if sweet.Quantity <= s.lowStockThreshold {
		s.logger.Warn("sweet stock low",
			"category", "inventory",
			"sweet_id", sweet.ID,
			"name", sweet.Name,
			"remaining", sweet.Quantity,
			"threshold", s.lowStockThreshold)
		s.dispatchLowStock(ctx, sweet)
	}

	return sweet, nil
}

// Restock increments stock by quantity. The increment is unconditional and
// race-free on its own; only the item's existence is checked.
func (s *Sweets) Restock(ctx context.Context, id, quantity int64) (model.Sweet, error) {
	if quantity < 1 {
		return model.Sweet{}, ErrInvalidQuantity
	}

	sweet, err := s.queries.RestockSweet(ctx, id, quantity, time.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Sweet{}, ErrSweetNotFound
		}
		return model.Sweet{}, fmt.Errorf("applying restock: %w", err)
	}

	s.logger.Info("sweet restocked",
		"category", "inventory",
		"sweet_id", sweet.ID,
		"quantity", quantity,
		"available", sweet.Quantity)

	return sweet, nil
}

// dispatchSweetEvent dispatches a sweet lifecycle webhook event.
func (s *Sweets) dispatchSweetEvent(ctx context.Context, eventType string, sweet model.Sweet) {
	if s.dispatcher == nil {
		return
	}

	data := webhook.SweetEventData{
		ID:       sweet.ID,
		Name:     sweet.Name,
		Category: sweet.Category,
		Price:    sweet.Price,
		Quantity: sweet.Quantity,
	}

	if err := s.dispatcher.DispatchEvent(ctx, eventType, data); err != nil {
		s.logger.Error("failed to dispatch webhook event",
			"error", err,
			"event_type", eventType,
			"sweet_id", sweet.ID)
	}
}

// dispatchLowStock dispatches a sweet.low_stock webhook event.
func (s *Sweets) dispatchLowStock(ctx context.Context, sweet model.Sweet) {
	if s.dispatcher == nil {
		return
	}

	data := webhook.LowStockEventData{
		ID:        sweet.ID,
		Name:      sweet.Name,
		Quantity:  sweet.Quantity,
		Threshold: s.lowStockThreshold,
	}

	if err := s.dispatcher.DispatchEvent(ctx, webhook.EventSweetLowStock, data); err != nil {
		s.logger.Error("failed to dispatch webhook event",
			"error", err,
			"event_type", webhook.EventSweetLowStock,
			"sweet_id", sweet.ID)
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
