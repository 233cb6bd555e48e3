package transactions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, tx *models.Transaction) error
	Count(ctx context.Context, kind models.Kind) (int64, error)
	// List returns transactions of kind newest first; ties keep insertion order reversed.
	List(ctx context.Context, kind models.Kind, limit, offset int) ([]models.Transaction, error)
	// LatestTimestamp returns nil when kind has no transactions.
	LatestTimestamp(ctx context.Context, kind models.Kind) (*time.Time, error)
	Rename(ctx context.Context, kind models.Kind, from, to string) (int64, error)
	DeleteAll(ctx context.Context) error
}
