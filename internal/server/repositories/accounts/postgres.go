// Package accounts stores the principal account: credential, login guard
// state and profile.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/dbx"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
)

const selectColumns = `SELECT id, username, credential, failed_attempts, lockout_until,
		email, mobile, photo_key, photo_content_type, updated_at
		FROM accounts`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (username, credential)
		 VALUES ($1, $2)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query, account.Username, account.Credential).Scan(&account.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.getOne(ctx, selectColumns+` WHERE username = $1`, username)
}

func (r *PostgresRepository) GetByUsernameForUpdate(ctx context.Context, username string) (*models.Account, error) {
	return r.getOne(ctx, selectColumns+` WHERE username = $1 FOR UPDATE`, username)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	var (
		a            models.Account
		lockoutUntil sql.NullTime
		updatedAt    sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Username, &a.Credential, &a.FailedAttempts, &lockoutUntil,
		&a.Email, &a.Mobile, &a.PhotoKey, &a.PhotoContentType, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lockoutUntil.Valid {
		t := lockoutUntil.Time
		a.LockoutUntil = &t
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		a.UpdatedAt = &t
	}

	return &a, nil
}

func (r *PostgresRepository) UpdateLoginState(ctx context.Context, id string, failedAttempts int, lockoutUntil *time.Time) error {
	query :=
		`UPDATE accounts SET failed_attempts = $2, lockout_until = $3
		 WHERE id = $1
		 `

	var until sql.NullTime
	if lockoutUntil != nil {
		until = sql.NullTime{Time: *lockoutUntil, Valid: true}
	}

	return r.execOne(ctx, query, id, failedAttempts, until)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, account *models.Account) error {
	query :=
		`UPDATE accounts SET email = $2, mobile = $3, photo_key = $4, photo_content_type = $5, updated_at = $6
		 WHERE id = $1
		 `

	var updatedAt sql.NullTime
	if account.UpdatedAt != nil {
		updatedAt = sql.NullTime{Time: *account.UpdatedAt, Valid: true}
	}

	return r.execOne(ctx, query,
		account.ID, account.Email, account.Mobile, account.PhotoKey, account.PhotoContentType, updatedAt)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
