package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/dbx"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/details"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/totals"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/transactions"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var errBoom = errors.New("boom")

// newTxDB opens an empty sqlite database so dbx.WithTx has something real
// to begin and commit on. The fakes below hold the actual data.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// memStore is an in-memory stand-in for every repository. Setting
// fail[op] makes that operation return the error.
type memStore struct {
	mu sync.Mutex

	accounts map[string]*models.Account
	details  map[models.Kind]map[string]*models.Detail
	txs      []models.Transaction
	totals   models.Totals
	catalog  map[string]*models.CatalogEntry

	fail  map[string]error
	calls map[string]int

	lastOffset int
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*models.Account{},
		details: map[models.Kind]map[string]*models.Detail{
			models.KindInvestment: {},
			models.KindGoal:       {},
		},
		catalog: map[string]*models.CatalogEntry{},
		fail:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (s *memStore) hit(op string) error {
	s.calls[op]++
	return s.fail[op]
}

func (s *memStore) detailSum(kind models.Kind) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range s.details[kind] {
		sum = sum.Add(d.Amount)
	}
	return sum
}

func (s *memStore) countTx(kind models.Kind) int {
	n := 0
	for _, t := range s.txs {
		if t.Kind == kind {
			n++
		}
	}
	return n
}

type memManager struct{ s *memStore }

func (m memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m memManager) Accounts(dbx.DBTX) accounts.Repository         { return memAccounts{m.s} }
func (m memManager) Details(dbx.DBTX) details.Repository           { return memDetails{m.s} }
func (m memManager) Transactions(dbx.DBTX) transactions.Repository { return memTransactions{m.s} }
func (m memManager) Totals(dbx.DBTX) totals.Repository             { return memTotals{m.s} }
func (m memManager) Catalog(dbx.DBTX) catalog.Repository           { return memCatalog{m.s} }

// --- accounts ---

type memAccounts struct{ s *memStore }

func (r memAccounts) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("accounts.Create"); err != nil {
		return nil, err
	}
	if _, ok := r.s.accounts[a.Username]; ok {
		return nil, common.ErrorAlreadyExists
	}
	c := *a
	c.ID = "acc-" + a.Username
	r.s.accounts[a.Username] = &c
	out := c
	return &out, nil
}

func (r memAccounts) get(op, username string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit(op); err != nil {
		return nil, err
	}
	a, ok := r.s.accounts[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *a
	return &c, nil
}

func (r memAccounts) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	return r.get("accounts.GetByUsername", username)
}

func (r memAccounts) GetByUsernameForUpdate(_ context.Context, username string) (*models.Account, error) {
	return r.get("accounts.GetByUsernameForUpdate", username)
}

func (r memAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("accounts.GetByID"); err != nil {
		return nil, err
	}
	for _, a := range r.s.accounts {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memAccounts) UpdateLoginState(_ context.Context, id string, failed int, until *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("accounts.UpdateLoginState"); err != nil {
		return err
	}
	for _, a := range r.s.accounts {
		if a.ID == id {
			a.FailedAttempts = failed
			a.LockoutUntil = until
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r memAccounts) UpdateProfile(_ context.Context, upd *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("accounts.UpdateProfile"); err != nil {
		return err
	}
	for _, a := range r.s.accounts {
		if a.ID == upd.ID {
			a.Email, a.Mobile = upd.Email, upd.Mobile
			a.PhotoKey, a.PhotoContentType = upd.PhotoKey, upd.PhotoContentType
			a.UpdatedAt = upd.UpdatedAt
			return nil
		}
	}
	return common.ErrorNotFound
}

// --- details ---

type memDetails struct{ s *memStore }

func (r memDetails) AddAmount(_ context.Context, kind models.Kind, name string, amount decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("details.AddAmount"); err != nil {
		return err
	}
	d, ok := r.s.details[kind][name]
	if !ok {
		d = &models.Detail{Kind: kind, Name: name}
		r.s.details[kind][name] = d
	}
	d.Amount = d.Amount.Add(amount)
	return nil
}

func (r memDetails) ListByKind(_ context.Context, kind models.Kind) ([]models.Detail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("details.ListByKind"); err != nil {
		return nil, err
	}
	out := []models.Detail{}
	for _, d := range r.s.details[kind] {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memDetails) SetPercentage(_ context.Context, kind models.Kind, name string, p decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("details.SetPercentage"); err != nil {
		return err
	}
	d, ok := r.s.details[kind][name]
	if !ok {
		return common.ErrorNotFound
	}
	d.Percentage = p
	return nil
}

func (r memDetails) SetTarget(_ context.Context, kind models.Kind, name string, target decimal.Decimal) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("details.SetTarget"); err != nil {
		return false, err
	}
	d, ok := r.s.details[kind][name]
	if !ok {
		return false, nil
	}
	d.Target = target
	return true, nil
}

func (r memDetails) Rename(_ context.Context, kind models.Kind, from, to string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("details.Rename"); err != nil {
		return err
	}
	d, ok := r.s.details[kind][from]
	if !ok {
		return nil
	}
	if _, taken := r.s.details[kind][to]; taken {
		return common.ErrorAlreadyExists
	}
	delete(r.s.details[kind], from)
	d.Name = to
	r.s.details[kind][to] = d
	return nil
}

func (r memDetails) SumByKind(context.Context) (models.Totals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("details.SumByKind"); err != nil {
		return models.Totals{}, err
	}
	return models.Totals{
		Invested: r.s.detailSum(models.KindInvestment),
		Goals:    r.s.detailSum(models.KindGoal),
	}, nil
}

func (r memDetails) DeleteAll(context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("details.DeleteAll"); err != nil {
		return err
	}
	for k := range r.s.details {
		r.s.details[k] = map[string]*models.Detail{}
	}
	return nil
}

// --- transactions ---

type memTransactions struct{ s *memStore }

func (r memTransactions) Insert(_ context.Context, t *models.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("transactions.Insert"); err != nil {
		return err
	}
	r.s.txs = append(r.s.txs, *t)
	return nil
}

func (r memTransactions) Count(_ context.Context, kind models.Kind) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("transactions.Count"); err != nil {
		return 0, err
	}
	return int64(r.s.countTx(kind)), nil
}

func (r memTransactions) List(_ context.Context, kind models.Kind, limit, offset int) ([]models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("transactions.List"); err != nil {
		return nil, err
	}
	r.s.lastOffset = offset
	if offset < 0 {
		return nil, errors.New("OFFSET must not be negative")
	}
	// newest first, later inserts win ties
	var all []models.Transaction
	for i := len(r.s.txs) - 1; i >= 0; i-- {
		if r.s.txs[i].Kind == kind {
			all = append(all, r.s.txs[i])
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	out := []models.Transaction{}
	for i := offset; i < len(all) && len(out) < limit; i++ {
		out = append(out, all[i])
	}
	return out, nil
}

func (r memTransactions) LatestTimestamp(_ context.Context, kind models.Kind) (*time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("transactions.LatestTimestamp"); err != nil {
		return nil, err
	}
	var latest *time.Time
	for i := range r.s.txs {
		t := r.s.txs[i]
		if t.Kind == kind && (latest == nil || t.CreatedAt.After(*latest)) {
			ts := t.CreatedAt
			latest = &ts
		}
	}
	return latest, nil
}

func (r memTransactions) Rename(_ context.Context, kind models.Kind, from, to string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("transactions.Rename"); err != nil {
		return 0, err
	}
	var n int64
	for i := range r.s.txs {
		if r.s.txs[i].Kind == kind && r.s.txs[i].Name == from {
			r.s.txs[i].Name = to
			n++
		}
	}
	return n, nil
}

func (r memTransactions) DeleteAll(context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("transactions.DeleteAll"); err != nil {
		return err
	}
	r.s.txs = nil
	return nil
}

// --- totals ---

type memTotals struct{ s *memStore }

func (r memTotals) Get(context.Context) (models.Totals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("totals.Get"); err != nil {
		return models.Totals{}, err
	}
	return r.s.totals, nil
}

func (r memTotals) Set(_ context.Context, t models.Totals) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("totals.Set"); err != nil {
		return err
	}
	r.s.totals = t
	return nil
}

func (r memTotals) Reset(context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("totals.Reset"); err != nil {
		return err
	}
	r.s.totals = models.Totals{}
	return nil
}

// --- catalog ---

type memCatalog struct{ s *memStore }

func (r memCatalog) ListActive(_ context.Context, kind models.Kind) ([]models.CatalogEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("catalog.ListActive"); err != nil {
		return nil, err
	}
	out := []models.CatalogEntry{}
	for _, e := range r.s.catalog {
		if e.Kind == kind && e.IsActive {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCatalog) taken(kind models.Kind, name, exceptID string) bool {
	for _, e := range r.s.catalog {
		if e.ID != exceptID && e.Kind == kind && e.Name == name && e.IsActive {
			return true
		}
	}
	return false
}

func (r memCatalog) Create(_ context.Context, e *models.CatalogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("catalog.Create"); err != nil {
		return err
	}
	if r.taken(e.Kind, e.Name, "") {
		return common.ErrorAlreadyExists
	}
	c := *e
	r.s.catalog[e.ID] = &c
	return nil
}

func (r memCatalog) Get(_ context.Context, id string) (*models.CatalogEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("catalog.Get"); err != nil {
		return nil, err
	}
	e, ok := r.s.catalog[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *e
	return &c, nil
}

func (r memCatalog) Update(_ context.Context, e *models.CatalogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("catalog.Update"); err != nil {
		return err
	}
	cur, ok := r.s.catalog[e.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if e.IsActive && r.taken(e.Kind, e.Name, e.ID) {
		return common.ErrorAlreadyExists
	}
	cur.Name, cur.IsActive = e.Name, e.IsActive
	return nil
}

func (r memCatalog) Deactivate(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("catalog.Deactivate"); err != nil {
		return err
	}
	e, ok := r.s.catalog[id]
	if !ok {
		return common.ErrorNotFound
	}
	e.IsActive = false
	return nil
}

func (r memCatalog) DeactivateAll(context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("catalog.DeactivateAll"); err != nil {
		return err
	}
	for _, e := range r.s.catalog {
		e.IsActive = false
	}
	return nil
}

// --- photos ---

type fakePhotos struct {
	putErr     error
	presignErr error
	puts       map[string][]byte
}

func (f *fakePhotos) Put(_ context.Context, key, _ string, data []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[key] = data
	return nil
}

func (f *fakePhotos) PresignGet(_ context.Context, key string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://photos.test/" + key, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
