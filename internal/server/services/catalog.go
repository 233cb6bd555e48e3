package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/dbx"
	"github.com/dmitrijs2005/gopfolio/internal/logging"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gopfolio/internal/timex"
	"github.com/google/uuid"
)

// CatalogService manages the names offered for selection.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         timex.Clock
	newID       func() string
	logger      logging.Logger
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *CatalogService {
	return &CatalogService{
		db:          db,
		repomanager: m,
		now:         timex.UTC,
		newID:       uuid.NewString,
		logger:      logger.With("service", "catalog"),
	}
}

func (s *CatalogService) ListActive(ctx context.Context, kind models.Kind) ([]models.CatalogEntry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrorInvalidKind, kind)
	}
	list, err := s.repomanager.Catalog(s.db).ListActive(ctx, kind)
	if err != nil {
		return nil, persistence(StepCatalog, err)
	}
	return list, nil
}

func (s *CatalogService) Add(ctx context.Context, kind models.Kind, name string) (*models.CatalogEntry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrorInvalidKind, kind)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}

	entry := &models.CatalogEntry{
		ID:        s.newID(),
		Kind:      kind,
		Name:      name,
		IsActive:  true,
		CreatedAt: s.now(),
	}

	if err := s.repomanager.Catalog(s.db).Create(ctx, entry); err != nil {
		if passThrough(err) {
			return nil, err
		}
		return nil, persistence(StepCatalog, err)
	}

	s.logger.Info(ctx, "catalog entry added", "kind", kind.String(), "name", name)
	return entry, nil
}

// Update renames or (de)activates an entry. A rename is carried over to the
// matching detail and to every transaction of that name in the same
// database transaction.
func (s *CatalogService) Update(ctx context.Context, kind models.Kind, id, name string, isActive bool) (*models.CatalogEntry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrorInvalidKind, kind)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}

	var entry *models.CatalogEntry

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Catalog(tx)

		e, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if e.Kind != kind {
			return common.ErrorNotFound
		}

		if e.Name != name {
			if err := s.repomanager.Details(tx).Rename(ctx, kind, e.Name, name); err != nil {
				return err
			}
			n, err := s.repomanager.Transactions(tx).Rename(ctx, kind, e.Name, name)
			if err != nil {
				return persistence(StepRename, err)
			}
			s.logger.Info(ctx, "catalog rename cascaded", "from", e.Name, "to", name, "transactions", n)
		}

		e.Name = name
		e.IsActive = isActive
		if err := repo.Update(ctx, e); err != nil {
			return err
		}

		entry = e
		return nil
	})
	if err != nil {
		if passThrough(err) {
			return nil, err
		}
		if errors.Is(err, dbx.ErrBeginTx) {
			err = txFailure(err)
		} else {
			err = persistence(StepRename, err)
		}
		s.logger.Error(ctx, "catalog update rolled back", "error", err)
		return nil, err
	}
	return entry, nil
}

// Deactivate soft-deletes an entry. Details and history keep the name.
func (s *CatalogService) Deactivate(ctx context.Context, kind models.Kind, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", common.ErrorInvalidKind, kind)
	}

	repo := s.repomanager.Catalog(s.db)

	e, err := repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return persistence(StepCatalog, err)
	}
	if e.Kind != kind {
		return common.ErrorNotFound
	}

	if err := repo.Deactivate(ctx, id); err != nil {
		if passThrough(err) {
			return err
		}
		return persistence(StepCatalog, err)
	}
	return nil
}
