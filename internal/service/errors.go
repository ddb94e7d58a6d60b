// Package service implements the application logic: authentication, sweet
// CRUD and search, and the purchase/restock stock adjustments.
package service

import "errors"

// Sentinel errors surfaced to the request boundary, which maps each kind to
// an HTTP status.
var (
	// ErrInvalidQuantity rejects non-positive purchase/restock quantities
	// before any store access.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrSweetNotFound is returned when an item is missing so handlers can
	// respond with 404.
	ErrSweetNotFound = errors.New("sweet not found")

	// ErrInsufficientStock is returned when current stock cannot cover the
	// requested purchase quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStockConflict is returned when the guarded decrement affected zero
	// rows after the pre-check passed: a concurrent purchase won the race.
	ErrStockConflict = errors.New("stock changed concurrently, purchase not applied")

	// ErrEmailExists is returned when registering an email that is taken.
	ErrEmailExists = errors.New("user with this email already exists")

	// ErrInvalidCredentials covers both unknown email and wrong password with
	// one identical message, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
