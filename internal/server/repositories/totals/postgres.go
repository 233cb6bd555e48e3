// Package totals stores the singleton totals projection.
package totals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

// Get returns zero totals when the row has not been written yet.
func (r *PostgresRepository) Get(ctx context.Context) (models.Totals, error) {
	t := models.Totals{Invested: decimal.Zero, Goals: decimal.Zero}

	err := r.db.QueryRowContext(ctx, `SELECT total_invested, total_goals FROM totals WHERE id = 1`).
		Scan(&t.Invested, &t.Goals)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, nil
		}
		return t, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Set(ctx context.Context, totals models.Totals) error {
	query := `
		INSERT INTO totals (id, total_invested, total_goals)
		VALUES (1, $1, $2)
		ON CONFLICT (id)
		DO UPDATE SET total_invested = EXCLUDED.total_invested, total_goals = EXCLUDED.total_goals
	`
	if _, err := r.db.ExecContext(ctx, query, totals.Invested, totals.Goals); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Reset(ctx context.Context) error {
	return r.Set(ctx, models.Totals{Invested: decimal.Zero, Goals: decimal.Zero})
}
