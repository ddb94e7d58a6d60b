package model

import (
	"database/sql"
	"time"
)

// Sweet represents one inventory item: the stocked quantity of a confection
// type together with its shelf metadata.
type Sweet struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Price       float64        `json:"price"`
	Quantity    int64          `json:"quantity"`
	Description sql.NullString `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// InStock returns true if at least one unit is available.
func (s *Sweet) InStock() bool {
	return s.Quantity > 0
}

// SweetFilters holds the independently optional search predicates.
// A nil/empty field imposes no constraint.
type SweetFilters struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// IsZero returns true when no filter field is set.
func (f SweetFilters) IsZero() bool {
	return f.Name == "" && f.Category == "" && f.MinPrice == nil && f.MaxPrice == nil
}
