package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	// GetByUsernameForUpdate locks the row until the surrounding transaction ends.
	GetByUsernameForUpdate(ctx context.Context, username string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	UpdateLoginState(ctx context.Context, id string, failedAttempts int, lockoutUntil *time.Time) error
	UpdateProfile(ctx context.Context, account *models.Account) error
}
