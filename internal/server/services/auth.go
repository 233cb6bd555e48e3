// Package services contains server-side business logic: the login guard
// flow and profile (AuthService), the allocation reconciler
// (PortfolioService) and master data (CatalogService).
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/dbx"
	"github.com/dmitrijs2005/gopfolio/internal/logging"
	"github.com/dmitrijs2005/gopfolio/internal/server/auth"
	"github.com/dmitrijs2005/gopfolio/internal/server/config"
	"github.com/dmitrijs2005/gopfolio/internal/server/guard"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/dmitrijs2005/gopfolio/internal/server/photos"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gopfolio/internal/timex"
)

// MaxPhotoSize caps uploaded profile photos.
const MaxPhotoSize = 5 << 20

// PhotoStore is the object storage the profile photo goes to.
type PhotoStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	AccessToken string
	Profile     models.Profile
}

type AuthService struct {
	db                  *sql.DB
	repomanager         repomanager.RepositoryManager
	verifier            auth.CredentialVerifier
	policy              guard.Policy
	principal           string
	jwtSecret           []byte
	accessTokenValidity time.Duration
	photos              PhotoStore
	now                 timex.Clock
	logger              logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	verifier auth.CredentialVerifier, photoStore PhotoStore, logger logging.Logger) *AuthService {
	return &AuthService{
		db:                  db,
		repomanager:         m,
		verifier:            verifier,
		policy:              guard.Policy{MaxAttempts: cfg.MaxFailedAttempts, BaseLockout: cfg.BaseLockout},
		principal:           cfg.Principal,
		jwtSecret:           []byte(cfg.SecretKey),
		accessTokenValidity: cfg.AccessTokenValidityDuration,
		photos:              photoStore,
		now:                 timex.UTC,
		logger:              logger.With("service", "auth"),
	}
}

// Login runs one guarded login attempt. The account row is locked for the
// read-modify-write of its failure count. Failed attempts are committed
// before the typed guard error is returned.
func (s *AuthService) Login(ctx context.Context, username, credential string) (*LoginResult, error) {
	if username != s.principal {
		return nil, common.ErrNotAuthorized
	}

	var (
		account  *models.Account
		decision guard.Decision
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		a, err := repo.GetByUsernameForUpdate(ctx, username)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrNotAuthorized
			}
			return persistence(StepLoadAccount, err)
		}

		state := guard.State{FailedAttempts: a.FailedAttempts, LockoutUntil: a.LockoutUntil}
		decision = s.policy.Evaluate(state, s.now(), func() bool {
			return s.verifier.Verify(credential, a.Credential)
		})

		if decision.Changed {
			if err := repo.UpdateLoginState(ctx, a.ID, decision.Next.FailedAttempts, decision.Next.LockoutUntil); err != nil {
				return persistence(StepSaveLoginState, err)
			}
		}

		account = a
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotAuthorized) {
			return nil, err
		}
		err = txFailure(err)
		s.logger.Error(ctx, "login state not saved", "error", err)
		return nil, err
	}

	if err := decision.Err(); err != nil {
		s.logger.Warn(ctx, "login rejected", "outcome", decision.Outcome.String(),
			"failed_attempts", decision.Next.FailedAttempts)
		return nil, err
	}

	token, err := auth.GenerateToken(account.ID, account.Username, s.jwtSecret, s.accessTokenValidity)
	if err != nil {
		s.logger.Error(ctx, "token signing failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "login ok", "account_id", account.ID)
	return &LoginResult{AccessToken: token, Profile: s.profile(ctx, account)}, nil
}

// Logout acknowledges the request. Sessions are not tracked.
func (s *AuthService) Logout(ctx context.Context) error {
	s.logger.Debug(ctx, "logout")
	return nil
}

// SeedPrincipal creates the principal account with the given credential
// unless it already exists.
func (s *AuthService) SeedPrincipal(ctx context.Context, credential string) error {
	repo := s.repomanager.Accounts(s.db)

	_, err := repo.GetByUsername(ctx, s.principal)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return persistence(StepSeedAccount, err)
	}

	stored, err := s.verifier.Hash(credential)
	if err != nil {
		return fmt.Errorf("hash credential: %w", err)
	}

	a, err := repo.Create(ctx, &models.Account{Username: s.principal, Credential: stored})
	if err != nil {
		return persistence(StepSeedAccount, err)
	}

	s.logger.Info(ctx, "principal account created", "account_id", a.ID, "username", a.Username)
	return nil
}

func (s *AuthService) GetProfile(ctx context.Context, accountID string) (*models.Profile, error) {
	a, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, persistence(StepLoadAccount, err)
	}

	p := s.profile(ctx, a)
	return &p, nil
}

// UpdateProfile saves email and mobile and, when given, uploads a new photo.
func (s *AuthService) UpdateProfile(ctx context.Context, accountID string, upd models.ProfileUpdate) (*models.Profile, error) {
	if upd.Photo != nil {
		if err := validatePhoto(upd.Photo); err != nil {
			return nil, err
		}
	}

	repo := s.repomanager.Accounts(s.db)

	a, err := repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, persistence(StepLoadAccount, err)
	}

	if upd.Photo != nil {
		key := photos.Key(a.ID)
		if err := s.photos.Put(ctx, key, upd.Photo.ContentType, upd.Photo.Data); err != nil {
			err = persistence(StepStorePhoto, err)
			s.logger.Error(ctx, "photo upload failed", "error", err)
			return nil, err
		}
		a.PhotoKey = key
		a.PhotoContentType = upd.Photo.ContentType
	}

	now := s.now()
	a.Email = strings.TrimSpace(upd.Email)
	a.Mobile = strings.TrimSpace(upd.Mobile)
	a.UpdatedAt = &now

	if err := repo.UpdateProfile(ctx, a); err != nil {
		err = persistence(StepSaveProfile, err)
		s.logger.Error(ctx, "profile not saved", "error", err)
		return nil, err
	}

	p := s.profile(ctx, a)
	return &p, nil
}

func validatePhoto(p *models.Photo) error {
	if !strings.HasPrefix(p.ContentType, "image/") {
		return fmt.Errorf("%w: photo must be an image, got %q", common.ErrorValidation, p.ContentType)
	}
	if len(p.Data) == 0 {
		return fmt.Errorf("%w: photo is empty", common.ErrorValidation)
	}
	if len(p.Data) > MaxPhotoSize {
		return fmt.Errorf("%w: photo exceeds %d bytes", common.ErrorValidation, MaxPhotoSize)
	}
	return nil
}

// profile builds the sanitized view; a failed presign only drops the URL.
func (s *AuthService) profile(ctx context.Context, a *models.Account) models.Profile {
	p := a.Profile()
	if a.PhotoKey == "" || s.photos == nil {
		return p
	}

	url, err := s.photos.PresignGet(ctx, a.PhotoKey)
	if err != nil {
		s.logger.Warn(ctx, "photo url not signed", "key", a.PhotoKey, "error", err)
		return p
	}
	p.PhotoURL = url
	return p
}
