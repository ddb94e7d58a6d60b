// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook delivers signed inventory event notifications to
// configured HTTP endpoints.
package webhook

import "time"

// Event types dispatched by the inventory and sweet services.
const (
	EventSweetCreated  = "sweet.created"
	EventSweetUpdated  = "sweet.updated"
	EventSweetDeleted  = "sweet.deleted"
	EventSweetLowStock = "sweet.low_stock"
)

// Envelope is the JSON body POSTed to webhook endpoints.
type Envelope struct {
	UUID      string    `json:"uuid"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// SweetEventData is the payload for sweet lifecycle events.
type SweetEventData struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// LowStockEventData is the payload for sweet.low_stock events.
type LowStockEventData struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Threshold int64  `json:"threshold"`
}
