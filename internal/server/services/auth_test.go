package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/dbx"
	"github.com/dmitrijs2005/gopfolio/internal/logging"
	"github.com/dmitrijs2005/gopfolio/internal/server/auth"
	"github.com/dmitrijs2005/gopfolio/internal/server/config"
	"github.com/dmitrijs2005/gopfolio/internal/server/guard"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var authNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testAuthConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		Principal:                   "owner",
		MaxFailedAttempts:           3,
		BaseLockout:                 30 * time.Minute,
	}
}

func newAuthFixture(t *testing.T) (*AuthService, *memStore, *fakePhotos) {
	t.Helper()
	st := newMemStore()
	st.accounts["owner"] = &models.Account{ID: "acc-owner", Username: "owner", Credential: "s3cret"}
	ph := &fakePhotos{}

	s := NewAuthService(newTxDB(t), memManager{st}, testAuthConfig(), auth.PlainVerifier{}, ph, logging.Nop{})
	s.now = fixedClock(authNow)
	return s, st, ph
}

func TestLogin_Success(t *testing.T) {
	s, st, _ := newAuthFixture(t)
	st.accounts["owner"].FailedAttempts = 2

	res, err := s.Login(context.Background(), "owner", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "owner", res.Profile.Username)

	id, err := auth.GetAccountIDFromToken(res.AccessToken, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "acc-owner", id)

	assert.Equal(t, 0, st.accounts["owner"].FailedAttempts)
	assert.Nil(t, st.accounts["owner"].LockoutUntil)
}

func TestLogin_UnknownPrincipal(t *testing.T) {
	s, st, _ := newAuthFixture(t)

	for _, name := range []string{"Owner", "someone", ""} {
		_, err := s.Login(context.Background(), name, "s3cret")
		assert.ErrorIs(t, err, common.ErrNotAuthorized, name)
	}
	assert.Zero(t, st.calls["accounts.GetByUsernameForUpdate"])
}

func TestLogin_EmptyCredentialCountsAsFailure(t *testing.T) {
	s, st, _ := newAuthFixture(t)

	_, err := s.Login(context.Background(), "owner", "")
	var invalid *guard.InvalidCredentialsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 2, invalid.AttemptsLeft)
	assert.Equal(t, 1, st.accounts["owner"].FailedAttempts)
}

func TestLogin_PrincipalWithoutAccount(t *testing.T) {
	s, st, _ := newAuthFixture(t)
	delete(st.accounts, "owner")

	_, err := s.Login(context.Background(), "owner", "s3cret")
	assert.ErrorIs(t, err, common.ErrNotAuthorized)
}

func TestLogin_ThirdFailureLocksOut(t *testing.T) {
	s, st, _ := newAuthFixture(t)
	ctx := context.Background()

	for want := 2; want >= 1; want-- {
		_, err := s.Login(ctx, "owner", "wrong")
		var ic *guard.InvalidCredentialsError
		require.ErrorAs(t, err, &ic)
		assert.Equal(t, want, ic.AttemptsLeft)
	}

	_, err := s.Login(ctx, "owner", "wrong")
	var ic *guard.InvalidCredentialsError
	require.ErrorAs(t, err, &ic)
	assert.Equal(t, 0, ic.AttemptsLeft)

	a := st.accounts["owner"]
	assert.Equal(t, 3, a.FailedAttempts)
	require.NotNil(t, a.LockoutUntil)
	assert.Equal(t, authNow.Add(30*time.Minute), *a.LockoutUntil)

	// even the right credential is refused now, and nothing changes
	_, err = s.Login(ctx, "owner", "s3cret")
	var le *guard.LockedError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 30*time.Minute, le.Remaining)
	assert.ErrorIs(t, err, common.ErrAccountLocked)
	assert.Equal(t, 3, st.accounts["owner"].FailedAttempts)
	assert.Equal(t, 3, st.calls["accounts.UpdateLoginState"])
}

func TestLogin_ExpiredLockoutResets(t *testing.T) {
	s, st, _ := newAuthFixture(t)
	past := authNow.Add(-time.Minute)
	st.accounts["owner"].FailedAttempts = 3
	st.accounts["owner"].LockoutUntil = &past

	_, err := s.Login(context.Background(), "owner", "wrong")
	var ic *guard.InvalidCredentialsError
	require.ErrorAs(t, err, &ic)
	assert.Equal(t, 2, ic.AttemptsLeft)
	assert.Equal(t, 1, st.accounts["owner"].FailedAttempts)
	assert.Nil(t, st.accounts["owner"].LockoutUntil)
}

func TestLogin_LoadError(t *testing.T) {
	s, st, _ := newAuthFixture(t)
	st.fail["accounts.GetByUsernameForUpdate"] = errBoom

	_, err := s.Login(context.Background(), "owner", "s3cret")
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StepLoadAccount, pe.Step)
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.ErrorIs(t, err, errBoom)
}

func TestLogin_SaveStateError(t *testing.T) {
	s, st, _ := newAuthFixture(t)
	st.fail["accounts.UpdateLoginState"] = errBoom

	_, err := s.Login(context.Background(), "owner", "wrong")
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StepSaveLoginState, pe.Step)
}

func TestLogin_BeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin().WillReturnError(errBoom)

	st := newMemStore()
	s := NewAuthService(db, memManager{st}, testAuthConfig(), auth.PlainVerifier{}, nil, logging.Nop{})

	_, err = s.Login(context.Background(), "owner", "x")
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StepBegin, pe.Step)
	assert.ErrorIs(t, err, dbx.ErrBeginTx)
	assert.True(t, strings.Contains(err.Error(), "begin tx"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_FailureCommitted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	st := newMemStore()
	st.accounts["owner"] = &models.Account{ID: "acc-owner", Username: "owner", Credential: "s3cret"}
	s := NewAuthService(db, memManager{st}, testAuthConfig(), auth.PlainVerifier{}, nil, logging.Nop{})

	_, err = s.Login(context.Background(), "owner", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogout(t *testing.T) {
	s, st, _ := newAuthFixture(t)
	require.NoError(t, s.Logout(context.Background()))
	assert.Empty(t, st.calls)
}

func TestSeedPrincipal(t *testing.T) {
	st := newMemStore()
	s := NewAuthService(newTxDB(t), memManager{st}, testAuthConfig(), auth.BcryptVerifier{Cost: 4}, nil, logging.Nop{})
	ctx := context.Background()

	require.NoError(t, s.SeedPrincipal(ctx, "changeme"))
	a := st.accounts["owner"]
	require.NotNil(t, a)
	assert.NotEqual(t, "changeme", a.Credential)
	assert.True(t, auth.BcryptVerifier{}.Verify("changeme", a.Credential))

	// second call keeps the existing account
	stored := a.Credential
	require.NoError(t, s.SeedPrincipal(ctx, "other"))
	assert.Equal(t, stored, st.accounts["owner"].Credential)
	assert.Equal(t, 1, st.calls["accounts.Create"])
}

func TestSeedPrincipal_LookupError(t *testing.T) {
	st := newMemStore()
	st.fail["accounts.GetByUsername"] = errBoom
	s := NewAuthService(newTxDB(t), memManager{st}, testAuthConfig(), auth.PlainVerifier{}, nil, logging.Nop{})

	err := s.SeedPrincipal(context.Background(), "x")
	assert.ErrorIs(t, err, common.ErrPersistence)
}

func TestGetProfile(t *testing.T) {
	s, st, _ := newAuthFixture(t)
	st.accounts["owner"].Email = "me@example.com"
	st.accounts["owner"].PhotoKey = "profiles/acc-owner/p1"

	p, err := s.GetProfile(context.Background(), "acc-owner")
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", p.Email)
	assert.Equal(t, "https://photos.test/profiles/acc-owner/p1", p.PhotoURL)

	_, err = s.GetProfile(context.Background(), "nobody")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetProfile_PresignFailureDropsURL(t *testing.T) {
	s, st, ph := newAuthFixture(t)
	st.accounts["owner"].PhotoKey = "profiles/acc-owner/p1"
	ph.presignErr = errBoom

	p, err := s.GetProfile(context.Background(), "acc-owner")
	require.NoError(t, err)
	assert.Empty(t, p.PhotoURL)
}

func TestUpdateProfile(t *testing.T) {
	s, st, ph := newAuthFixture(t)

	p, err := s.UpdateProfile(context.Background(), "acc-owner", models.ProfileUpdate{
		Email:  " me@example.com ",
		Mobile: "+371 2000000",
		Photo:  &models.Photo{ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	})
	require.NoError(t, err)

	a := st.accounts["owner"]
	assert.Equal(t, "me@example.com", a.Email)
	assert.Equal(t, "image/png", a.PhotoContentType)
	assert.True(t, strings.HasPrefix(a.PhotoKey, "profiles/acc-owner/"))
	require.NotNil(t, a.UpdatedAt)
	assert.Equal(t, authNow, *a.UpdatedAt)
	assert.Contains(t, ph.puts, a.PhotoKey)
	assert.Equal(t, "https://photos.test/"+a.PhotoKey, p.PhotoURL)
}

func TestUpdateProfile_RejectsPhoto(t *testing.T) {
	tests := []struct {
		name  string
		photo models.Photo
	}{
		{"not an image", models.Photo{ContentType: "application/pdf", Data: []byte("x")}},
		{"empty", models.Photo{ContentType: "image/jpeg"}},
		{"too large", models.Photo{ContentType: "image/jpeg", Data: make([]byte, MaxPhotoSize+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, st, ph := newAuthFixture(t)
			photo := tt.photo
			_, err := s.UpdateProfile(context.Background(), "acc-owner", models.ProfileUpdate{Photo: &photo})
			assert.ErrorIs(t, err, common.ErrorValidation)
			assert.Empty(t, ph.puts)
			assert.Zero(t, st.calls["accounts.UpdateProfile"])
		})
	}
}

func TestUpdateProfile_StoreFailure(t *testing.T) {
	s, st, ph := newAuthFixture(t)
	ph.putErr = errBoom

	_, err := s.UpdateProfile(context.Background(), "acc-owner", models.ProfileUpdate{
		Photo: &models.Photo{ContentType: "image/png", Data: []byte("x")},
	})
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StepStorePhoto, pe.Step)
	assert.Zero(t, st.calls["accounts.UpdateProfile"])
}

func TestPersistenceError(t *testing.T) {
	inner := &PersistenceError{Step: StepUpsertDetails, Err: errBoom}
	err := persistence(StepCommit, inner)
	assert.Same(t, inner, err)
	assert.Equal(t, "persistence failure: upsert details: boom", err.Error())
	assert.True(t, errors.Is(err, errBoom))
	assert.True(t, errors.Is(err, common.ErrPersistence))
}
