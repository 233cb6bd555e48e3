package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/dbx"
	"github.com/dmitrijs2005/gopfolio/internal/logging"
	"github.com/dmitrijs2005/gopfolio/internal/server/allocation"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/details"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/gopfolio/internal/timex"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SubmitResult describes a committed allocation.
type SubmitResult struct {
	Totals       models.Totals
	Transactions []models.Transaction
}

// Target sets the target amount of one named detail.
type Target struct {
	Kind   models.Kind
	Name   string
	Amount decimal.Decimal
}

// TargetsResult lists the names that had no detail to attach a target to.
type TargetsResult struct {
	Updated int
	Unknown []string
}

// PortfolioService keeps details, totals and transactions reconciled.
type PortfolioService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         timex.Clock
	newID       func() string
	logger      logging.Logger
}

func NewPortfolioService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *PortfolioService {
	return &PortfolioService{
		db:          db,
		repomanager: m,
		now:         timex.UTC,
		newID:       uuid.NewString,
		logger:      logger.With("service", "portfolio"),
	}
}

// SubmitAllocation validates sub and commits detail upserts, refreshed
// percentages, the totals projection and one transaction per non-zero
// selection as a single unit.
func (s *PortfolioService) SubmitAllocation(ctx context.Context, sub allocation.Submission) (*SubmitResult, error) {
	plan, err := allocation.Build(sub)
	if err != nil {
		s.logger.Info(ctx, "allocation rejected", "error", err)
		return nil, err
	}

	result := &SubmitResult{}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		detailsRepo := s.repomanager.Details(tx)
		txRepo := s.repomanager.Transactions(tx)

		for _, kind := range models.Kinds {
			lines := plan.Lines(kind)
			if len(lines) == 0 {
				continue
			}
			for _, l := range lines {
				if err := detailsRepo.AddAmount(ctx, kind, l.Name, l.Amount); err != nil {
					return persistence(StepUpsertDetails, err)
				}
			}
			if err := s.refreshPercentages(ctx, detailsRepo, kind); err != nil {
				return err
			}
		}

		totals, err := s.saveTotals(ctx, tx)
		if err != nil {
			return err
		}
		result.Totals = totals

		for _, kind := range models.Kinds {
			lines := plan.Lines(kind)
			if len(lines) == 0 {
				continue
			}
			ts, err := s.timestamp(ctx, txRepo, kind)
			if err != nil {
				return persistence(StepInsertTransactions, err)
			}
			for _, l := range lines {
				t := models.Transaction{
					ID:         s.newID(),
					Kind:       kind,
					Name:       l.Name,
					Amount:     l.Amount,
					Percentage: l.Percentage,
					CreatedAt:  ts,
				}
				if err := txRepo.Insert(ctx, &t); err != nil {
					return persistence(StepInsertTransactions, err)
				}
				result.Transactions = append(result.Transactions, t)
			}
		}
		return nil
	})
	if err != nil {
		err = txFailure(err)
		s.logger.Error(ctx, "allocation rolled back", "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "allocation committed",
		"investments", len(plan.Invested), "goals", len(plan.Goals), "total", plan.TotalInvested.String())
	return result, nil
}

// refreshPercentages rewrites each detail's share of the kind total,
// touching only rows whose share changed.
func (s *PortfolioService) refreshPercentages(ctx context.Context, repo details.Repository, kind models.Kind) error {
	list, err := repo.ListByKind(ctx, kind)
	if err != nil {
		return persistence(StepRefreshPercentages, err)
	}

	before := make([]decimal.Decimal, len(list))
	for i, d := range list {
		before[i] = d.Percentage
	}
	allocation.RefreshShares(list)

	for i, d := range list {
		if d.Percentage.Equal(before[i]) {
			continue
		}
		if err := repo.SetPercentage(ctx, kind, d.Name, d.Percentage); err != nil {
			return persistence(StepRefreshPercentages, err)
		}
	}
	return nil
}

// saveTotals recomputes totals from details and overwrites the projection.
func (s *PortfolioService) saveTotals(ctx context.Context, tx dbx.DBTX) (models.Totals, error) {
	totals, err := s.repomanager.Details(tx).SumByKind(ctx)
	if err != nil {
		return totals, persistence(StepRecomputeTotals, err)
	}
	if err := s.repomanager.Totals(tx).Set(ctx, totals); err != nil {
		return totals, persistence(StepSaveTotals, err)
	}
	return totals, nil
}

// timestamp keeps a kind's history monotonic even if the clock steps back.
func (s *PortfolioService) timestamp(ctx context.Context, repo transactions.Repository, kind models.Kind) (time.Time, error) {
	now := s.now()
	latest, err := repo.LatestTimestamp(ctx, kind)
	if err != nil {
		return now, err
	}
	if latest != nil && latest.After(now) {
		return *latest, nil
	}
	return now, nil
}

// GetTotals sums the details of each kind.
func (s *PortfolioService) GetTotals(ctx context.Context) (models.Totals, error) {
	totals, err := s.repomanager.Details(s.db).SumByKind(ctx)
	if err != nil {
		return totals, persistence(StepRecomputeTotals, err)
	}
	return totals, nil
}

// RecomputeTotals sums the details and rewrites the stored projection.
func (s *PortfolioService) RecomputeTotals(ctx context.Context) (models.Totals, error) {
	var totals, stored models.Totals
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		stored, err = s.repomanager.Totals(tx).Get(ctx)
		if err != nil {
			return persistence(StepLoadTotals, err)
		}
		totals, err = s.saveTotals(ctx, tx)
		return err
	})
	if err != nil {
		err = txFailure(err)
		s.logger.Error(ctx, "totals not recomputed", "error", err)
		return models.Totals{}, err
	}
	if !stored.Invested.Equal(totals.Invested) || !stored.Goals.Equal(totals.Goals) {
		s.logger.Warn(ctx, "totals projection drifted",
			"stored_invested", stored.Invested.String(), "stored_goals", stored.Goals.String(),
			"invested", totals.Invested.String(), "goals", totals.Goals.String())
	}
	return totals, nil
}

// GetDetails lists the details of kind ordered by name.
func (s *PortfolioService) GetDetails(ctx context.Context, kind models.Kind) ([]models.Detail, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrorInvalidKind, kind)
	}
	list, err := s.repomanager.Details(s.db).ListByKind(ctx, kind)
	if err != nil {
		return nil, persistence(StepLoadDetails, err)
	}
	if list == nil {
		list = []models.Detail{}
	}
	return list, nil
}

// NormalizePage applies the paging defaults: page < 1 becomes 1, pageSize < 1
// becomes DefaultPageSize and pageSize is capped at MaxPageSize. page is capped
// so that the row offset (page-1)*pageSize always fits in an int.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if maxPage := math.MaxInt / pageSize; page > maxPage {
		page = maxPage
	}
	return page, pageSize
}

// GetTransactionHistory returns one page of kind's transactions, newest first.
func (s *PortfolioService) GetTransactionHistory(ctx context.Context, kind models.Kind, page, pageSize int) (*models.HistoryPage, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrorInvalidKind, kind)
	}
	page, pageSize = NormalizePage(page, pageSize)

	repo := s.repomanager.Transactions(s.db)

	count, err := repo.Count(ctx, kind)
	if err != nil {
		return nil, persistence(StepLoadHistory, err)
	}

	items, err := repo.List(ctx, kind, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, persistence(StepLoadHistory, err)
	}

	return &models.HistoryPage{
		Items:      items,
		TotalCount: count,
		TotalPages: (count + int64(pageSize) - 1) / int64(pageSize),
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// SaveTargets sets target amounts on existing details in one transaction.
// Names without a detail are skipped and reported.
func (s *PortfolioService) SaveTargets(ctx context.Context, targets []Target) (*TargetsResult, error) {
	for _, t := range targets {
		if !t.Kind.Valid() {
			return nil, fmt.Errorf("%w: %q", common.ErrorInvalidKind, t.Kind)
		}
		if t.Amount.IsNegative() || !t.Amount.Equal(t.Amount.Round(common.AmountScale)) {
			return nil, fmt.Errorf("%w: target for %q must be a non-negative amount with at most 2 decimals",
				common.ErrorValidation, t.Name)
		}
	}

	result := &TargetsResult{Unknown: []string{}}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Details(tx)
		for _, t := range targets {
			found, err := repo.SetTarget(ctx, t.Kind, t.Name, t.Amount)
			if err != nil {
				return persistence(StepSaveTargets, err)
			}
			if found {
				result.Updated++
			} else {
				result.Unknown = append(result.Unknown, t.Name)
			}
		}
		return nil
	})
	if err != nil {
		err = txFailure(err)
		s.logger.Error(ctx, "targets not saved", "error", err)
		return nil, err
	}
	return result, nil
}

// ClearAllFinancialData deletes transactions and details, retires every
// catalog entry and zeroes the totals, all or nothing.
func (s *PortfolioService) ClearAllFinancialData(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Transactions(tx).DeleteAll(ctx); err != nil {
			return persistence(StepDeleteTransactions, err)
		}
		if err := s.repomanager.Details(tx).DeleteAll(ctx); err != nil {
			return persistence(StepDeleteDetails, err)
		}
		if err := s.repomanager.Catalog(tx).DeactivateAll(ctx); err != nil {
			return persistence(StepDeactivateCatalog, err)
		}
		if err := s.repomanager.Totals(tx).Reset(ctx); err != nil {
			return persistence(StepResetTotals, err)
		}
		return nil
	})
	if err != nil {
		err = txFailure(err)
		s.logger.Error(ctx, "clear rolled back", "error", err)
		return err
	}

	s.logger.Warn(ctx, "all financial data cleared")
	return nil
}
