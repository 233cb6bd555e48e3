// Package catalog stores the master data: names offered for selection.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/dbx"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListActive(ctx context.Context, kind models.Kind) ([]models.CatalogEntry, error) {
	query := `SELECT id, name, created_at FROM catalog
		WHERE kind = $1 AND is_active
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.CatalogEntry{}
	for rows.Next() {
		item := models.CatalogEntry{Kind: kind, IsActive: true}
		if err := rows.Scan(&item.ID, &item.Name, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.CatalogEntry) error {
	query := `
		INSERT INTO catalog (id, kind, name, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, entry.ID, string(entry.Kind), entry.Name, entry.IsActive, entry.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.CatalogEntry, error) {
	query := `SELECT id, kind, name, is_active, created_at FROM catalog WHERE id = $1`

	var (
		e    models.CatalogEntry
		kind string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &kind, &e.Name, &e.IsActive, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	e.Kind = models.Kind(kind)
	return &e, nil
}

func (r *PostgresRepository) Update(ctx context.Context, entry *models.CatalogEntry) error {
	query := `UPDATE catalog SET name = $2, is_active = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, entry.ID, entry.Name, entry.IsActive)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE catalog SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) DeactivateAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE catalog SET is_active = FALSE WHERE is_active`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
