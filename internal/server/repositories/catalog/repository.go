package catalog

import (
	"context"

	"github.com/dmitrijs2005/gopfolio/internal/server/models"
)

type Repository interface {
	ListActive(ctx context.Context, kind models.Kind) ([]models.CatalogEntry, error)
	Create(ctx context.Context, entry *models.CatalogEntry) error
	Get(ctx context.Context, id string) (*models.CatalogEntry, error)
	Update(ctx context.Context, entry *models.CatalogEntry) error
	Deactivate(ctx context.Context, id string) error
	DeactivateAll(ctx context.Context) error
}
