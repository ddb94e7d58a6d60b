// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"sweetshop/internal/model"
)

// DBTX is the subset of *sql.DB / *sql.Tx used by Queries.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries provides parameterized access to the users, sweets, and events tables.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const userColumns = "id, email, password_hash, name, role, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUserParams holds the fields for creating a user.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new user and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, name, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING `+userColumns,
		arg.Email, arg.PasswordHash, arg.Name, arg.Role, arg.CreatedAt, arg.UpdatedAt)
	return scanUser(row)
}

// GetUserByEmail returns the user with the given email, or sql.ErrNoRows.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetUserByID returns the user with the given id, or sql.ErrNoRows.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

const sweetColumns = "id, name, category, price, quantity, description, created_at, updated_at"

func scanSweetRow(row *sql.Row) (model.Sweet, error) {
	var s model.Sweet
	err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Quantity, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func scanSweets(rows *sql.Rows) ([]model.Sweet, error) {
	defer rows.Close()

	var sweets []model.Sweet
	for rows.Next() {
		var s model.Sweet
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Quantity, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sweets = append(sweets, s)
	}
	return sweets, rows.Err()
}

// CreateSweetParams holds the fields for creating a sweet.
type CreateSweetParams struct {
	Name        string
	Category    string
	Price       float64
	Quantity    int64
	Description sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateSweet inserts a new sweet and returns the stored row.
func (q *Queries) CreateSweet(ctx context.Context, arg CreateSweetParams) (model.Sweet, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO sweets (name, category, price, quantity, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+sweetColumns,
		arg.Name, arg.Category, arg.Price, arg.Quantity, arg.Description, arg.CreatedAt, arg.UpdatedAt)
	return scanSweetRow(row)
}

// GetSweetByID returns the sweet with the given id, or sql.ErrNoRows.
func (q *Queries) GetSweetByID(ctx context.Context, id int64) (model.Sweet, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+sweetColumns+` FROM sweets WHERE id = ?`, id)
	return scanSweetRow(row)
}

// ListSweets returns all sweets ordered by most recently created first.
func (q *Queries) ListSweets(ctx context.Context) ([]model.Sweet, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+sweetColumns+` FROM sweets ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return scanSweets(rows)
}

// SearchSweets returns sweets matching the given filters, ordered by most
// recently created first. Unset filter fields impose no constraint.
func (q *Queries) SearchSweets(ctx context.Context, filters model.SweetFilters) ([]model.Sweet, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + sweetColumns + ` FROM sweets WHERE 1=1`)

	if filters.Name != "" {
		sb.WriteString(` AND LOWER(name) LIKE '%' || LOWER(?) || '%'`)
		args = append(args, filters.Name)
	}
	if filters.Category != "" {
		sb.WriteString(` AND category = ?`)
		args = append(args, filters.Category)
	}
	if filters.MinPrice != nil {
		sb.WriteString(` AND price >= ?`)
		args = append(args, *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		sb.WriteString(` AND price <= ?`)
		args = append(args, *filters.MaxPrice)
	}

	sb.WriteString(` ORDER BY created_at DESC, id DESC`)

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	return scanSweets(rows)
}

// UpdateSweetParams holds the optional fields for a partial sweet update.
// Nil fields are left unchanged.
type UpdateSweetParams struct {
	Name        *string
	Category    *string
	Price       *float64
	Quantity    *int64
	Description *sql.NullString
	UpdatedAt   time.Time
}

// UpdateSweet applies a partial update and returns the stored row, or
// sql.ErrNoRows if the sweet does not exist.
func (q *Queries) UpdateSweet(ctx context.Context, id int64, arg UpdateSweetParams) (model.Sweet, error) {
	var (
		sets []string
		args []any
	)

	if arg.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *arg.Name)
	}
	if arg.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *arg.Category)
	}
	if arg.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *arg.Price)
	}
	if arg.Quantity != nil {
		sets = append(sets, "quantity = ?")
		args = append(args, *arg.Quantity)
	}
	if arg.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *arg.Description)
	}

	if len(sets) == 0 {
		return q.GetSweetByID(ctx, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, arg.UpdatedAt, id)

	row := q.db.QueryRowContext(ctx,
		`UPDATE sweets SET `+strings.Join(sets, ", ")+` WHERE id = ? RETURNING `+sweetColumns,
		args...)
	return scanSweetRow(row)
}

// DeleteSweet removes a sweet. Returns sql.ErrNoRows if nothing was deleted.
func (q *Queries) DeleteSweet(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sweets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// PurchaseSweet decrements stock in a single conditional statement. The
// quantity guard in the WHERE clause is the concurrency control: a concurrent
// decrement can never drive quantity negative. Returns sql.ErrNoRows when the
// item is missing or the guard rejects the decrement.
func (q *Queries) PurchaseSweet(ctx context.Context, id, quantity int64, now time.Time) (model.Sweet, error) {
	row := q.db.QueryRowContext(ctx,
		`UPDATE sweets SET quantity = quantity - ?, updated_at = ?
		 WHERE id = ? AND quantity >= ?
		 RETURNING `+sweetColumns,
		quantity, now, id, quantity)
	return scanSweetRow(row)
}

// RestockSweet increments stock unconditionally. Returns sql.ErrNoRows if the
// sweet does not exist.
func (q *Queries) RestockSweet(ctx context.Context, id, quantity int64, now time.Time) (model.Sweet, error) {
	row := q.db.QueryRowContext(ctx,
		`UPDATE sweets SET quantity = quantity + ?, updated_at = ?
		 WHERE id = ?
		 RETURNING `+sweetColumns,
		quantity, now, id)
	return scanSweetRow(row)
}

// ListLowStockSweets returns sweets at or below the given quantity threshold,
// lowest stock first.
func (q *Queries) ListLowStockSweets(ctx context.Context, threshold int64) ([]model.Sweet, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+sweetColumns+` FROM sweets WHERE quantity <= ? ORDER BY quantity ASC, id ASC`,
		threshold)
	if err != nil {
		return nil, err
	}
	return scanSweets(rows)
}

// CreateEventParams holds the fields for creating an event log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts an event log entry.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (model.Event, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO events (level, category, message, user_id, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id, level, category, message, user_id, metadata, created_at`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.CreatedAt)

	var e model.Event
	err := row.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt)
	return e, err
}

// ListRecentEvents returns the newest events up to limit.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, category, message, user_id, metadata, created_at
		 FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteEventsBefore removes events created before the cutoff. Returns the
// number of rows pruned.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
