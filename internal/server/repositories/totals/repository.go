package totals

import (
	"context"

	"github.com/dmitrijs2005/gopfolio/internal/server/models"
)

// Repository keeps the cached grand totals row. Details stay the source of truth.
type Repository interface {
	Get(ctx context.Context) (models.Totals, error)
	Set(ctx context.Context, totals models.Totals) error
	Reset(ctx context.Context) error
}
