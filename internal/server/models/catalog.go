package models

import "time"

// CatalogEntry is a selectable asset or goal name (master data).
type CatalogEntry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}
