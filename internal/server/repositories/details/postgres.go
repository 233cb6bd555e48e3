// Package details stores the cumulative per-name snapshots of assets and goals.
package details

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/dbx"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) AddAmount(ctx context.Context, kind models.Kind, name string, amount decimal.Decimal) error {
	query := `
		INSERT INTO details (kind, name, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, name)
		DO UPDATE SET amount = details.amount + EXCLUDED.amount
	`
	if _, err := r.db.ExecContext(ctx, query, string(kind), name, amount); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByKind(ctx context.Context, kind models.Kind) ([]models.Detail, error) {
	query := `SELECT name, amount, target, percentage FROM details
		WHERE kind = $1
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Detail
	for rows.Next() {
		item := models.Detail{Kind: kind}
		if err := rows.Scan(&item.Name, &item.Amount, &item.Target, &item.Percentage); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SetPercentage(ctx context.Context, kind models.Kind, name string, percentage decimal.Decimal) error {
	query := `UPDATE details SET percentage = $3 WHERE kind = $1 AND name = $2`

	res, err := r.db.ExecContext(ctx, query, string(kind), name, percentage)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetTarget(ctx context.Context, kind models.Kind, name string, target decimal.Decimal) (bool, error) {
	query := `UPDATE details SET target = $3 WHERE kind = $1 AND name = $2`

	res, err := r.db.ExecContext(ctx, query, string(kind), name, target)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

// Rename moves the detail to a new name. A missing detail is not an error;
// a detail already holding the new name yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Rename(ctx context.Context, kind models.Kind, from, to string) error {
	query := `UPDATE details SET name = $3 WHERE kind = $1 AND name = $2`

	if _, err := r.db.ExecContext(ctx, query, string(kind), from, to); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SumByKind(ctx context.Context) (models.Totals, error) {
	query := `SELECT kind, COALESCE(SUM(amount), 0) FROM details GROUP BY kind`

	totals := models.Totals{Invested: decimal.Zero, Goals: decimal.Zero}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return totals, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind string
			sum  decimal.Decimal
		)
		if err := rows.Scan(&kind, &sum); err != nil {
			return totals, fmt.Errorf("db error: %w", err)
		}
		switch models.Kind(kind) {
		case models.KindInvestment:
			totals.Invested = sum
		case models.KindGoal:
			totals.Goals = sum
		}
	}
	if err := rows.Err(); err != nil {
		return totals, fmt.Errorf("db error: %w", err)
	}
	return totals, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM details`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
