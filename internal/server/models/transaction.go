package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one append-only contribution to a named asset or goal.
type Transaction struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
	CreatedAt  time.Time       `json:"timestamp"`
}

// HistoryPage is one page of transactions, newest first.
type HistoryPage struct {
	Items      []Transaction `json:"items"`
	TotalCount int64         `json:"totalCount"`
	TotalPages int64         `json:"totalPages"`
	Page       int           `json:"currentPage"`
	PageSize   int           `json:"pageSize"`
}
