package details

import (
	"context"

	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// AddAmount creates the detail or adds amount to its cumulative amount.
	AddAmount(ctx context.Context, kind models.Kind, name string, amount decimal.Decimal) error
	ListByKind(ctx context.Context, kind models.Kind) ([]models.Detail, error)
	SetPercentage(ctx context.Context, kind models.Kind, name string, percentage decimal.Decimal) error
	// SetTarget reports false when no detail named name exists.
	SetTarget(ctx context.Context, kind models.Kind, name string, target decimal.Decimal) (bool, error)
	Rename(ctx context.Context, kind models.Kind, from, to string) error
	SumByKind(ctx context.Context) (models.Totals, error)
	DeleteAll(ctx context.Context) error
}
