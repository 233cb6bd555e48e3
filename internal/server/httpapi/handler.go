package httpapi

import (
	"context"

	"github.com/dmitrijs2005/gopfolio/internal/logging"
	"github.com/dmitrijs2005/gopfolio/internal/server/allocation"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/dmitrijs2005/gopfolio/internal/server/services"
)

type AuthAPI interface {
	Login(ctx context.Context, username, credential string) (*services.LoginResult, error)
	Logout(ctx context.Context) error
	GetProfile(ctx context.Context, accountID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, accountID string, upd models.ProfileUpdate) (*models.Profile, error)
}

type PortfolioAPI interface {
	SubmitAllocation(ctx context.Context, sub allocation.Submission) (*services.SubmitResult, error)
	GetTotals(ctx context.Context) (models.Totals, error)
	RecomputeTotals(ctx context.Context) (models.Totals, error)
	GetDetails(ctx context.Context, kind models.Kind) ([]models.Detail, error)
	GetTransactionHistory(ctx context.Context, kind models.Kind, page, pageSize int) (*models.HistoryPage, error)
	SaveTargets(ctx context.Context, targets []services.Target) (*services.TargetsResult, error)
	ClearAllFinancialData(ctx context.Context) error
}

type CatalogAPI interface {
	ListActive(ctx context.Context, kind models.Kind) ([]models.CatalogEntry, error)
	Add(ctx context.Context, kind models.Kind, name string) (*models.CatalogEntry, error)
	Update(ctx context.Context, kind models.Kind, id, name string, isActive bool) (*models.CatalogEntry, error)
	Deactivate(ctx context.Context, kind models.Kind, id string) error
}

// Handler holds the HTTP handlers. Services are injected as interfaces.
type Handler struct {
	auth      AuthAPI
	portfolio PortfolioAPI
	catalog   CatalogAPI
	logger    logging.Logger
}

func NewHandler(a AuthAPI, p PortfolioAPI, c CatalogAPI, logger logging.Logger) *Handler {
	return &Handler{auth: a, portfolio: p, catalog: c, logger: logger.With("module", "http")}
}
