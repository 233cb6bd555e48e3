// Package transactions stores the append-only contribution log.
package transactions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/dbx"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, kind, name, amount, percentage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		tx.ID, string(tx.Kind), tx.Name, tx.Amount, tx.Percentage, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context, kind models.Kind) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE kind = $1`, string(kind)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) List(ctx context.Context, kind models.Kind, limit, offset int) ([]models.Transaction, error) {
	query := `SELECT id, name, amount, percentage, created_at FROM transactions
		WHERE kind = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, string(kind), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Transaction, 0, limit)
	for rows.Next() {
		item := models.Transaction{Kind: kind}
		if err := rows.Scan(&item.ID, &item.Name, &item.Amount, &item.Percentage, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) LatestTimestamp(ctx context.Context, kind models.Kind) (*time.Time, error) {
	var latest sql.NullTime
	err := r.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM transactions WHERE kind = $1`, string(kind)).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	t := latest.Time
	return &t, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, kind models.Kind, from, to string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET name = $3 WHERE kind = $1 AND name = $2`, string(kind), from, to)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
