package services

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/tenantkeeper/internal/common"
	"github.com/dmitrijs2005/tenantkeeper/internal/dbx"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/models"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/repositories/progress"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/tenant"
)

// --- identity store ---

type fakeUsersRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.Account

	existsErr error
	findErr   error
	saveErr   error

	findAllOut []*models.Account
	findAllErr error

	saves []string
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{accounts: map[string]*models.Account{}}
}

func (f *fakeUsersRepo) put(username, password string) {
	f.accounts[username] = models.NewAccount(username, password, models.RoleUser)
}

func (f *fakeUsersRepo) Exists(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.accounts[username]
	return ok, nil
}

func (f *fakeUsersRepo) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	a, ok := f.accounts[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeUsersRepo) Save(ctx context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, a.Username)
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if prev, ok := f.accounts[a.Username]; ok {
		prev.Password, prev.Role = a.Password, a.Role
		return prev, nil
	}
	f.accounts[a.Username] = a
	return a, nil
}

func (f *fakeUsersRepo) FindAll(ctx context.Context) ([]*models.Account, error) {
	return f.findAllOut, f.findAllErr
}

func (f *fakeUsersRepo) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

// --- progress store ---

type fakeProgressRepo struct {
	mu    sync.Mutex
	err   error
	saves []string
}

func (f *fakeProgressRepo) Save(ctx context.Context, r *models.ProgressRecord) (*models.ProgressRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, r.Username)
	if f.err != nil {
		return nil, f.err
	}
	return r, nil
}

func (f *fakeProgressRepo) count(username string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.saves {
		if u == username {
			n++
		}
	}
	return n
}

// --- repository manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakeProgressRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.u }
func (m *fakeRepoManager) Progress(dbx.DBTX) progress.Repository        { return m.p }

// --- DDL executor ---

type fakeExecer struct {
	mu    sync.Mutex
	err   error
	stmts []string
}

func (f *fakeExecer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stmts = append(f.stmts, query)
	if f.err != nil {
		return nil, f.err
	}
	return driverResult{}, nil
}

func (f *fakeExecer) statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stmts...)
}

type driverResult struct{}

func (driverResult) LastInsertId() (int64, error) { return 0, nil }
func (driverResult) RowsAffected() (int64, error) { return 0, nil }

// --- migration runner ---

type fakeFactory struct {
	mu          sync.Mutex
	acquireErr  error
	migrateErr  error
	acquired    []string
	migrateRuns map[string]int
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{migrateRuns: map[string]int{}}
}

func (f *fakeFactory) ForTenant(ctx context.Context, t string) (tenant.Migrator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquired = append(f.acquired, t)
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	return &fakeMigrator{f: f, tenant: t}, nil
}

func (f *fakeFactory) acquisitions(t string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.acquired {
		if a == t {
			n++
		}
	}
	return n
}

func (f *fakeFactory) migrations(t string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.migrateRuns[t]
}

type fakeMigrator struct {
	f      *fakeFactory
	tenant string
}

func (m *fakeMigrator) Migrate(ctx context.Context) error {
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	m.f.migrateRuns[m.tenant]++
	return m.f.migrateErr
}

// --- events spy ---

type failure struct {
	username string
	stage    Stage
}

type eventsSpy struct {
	mu           sync.Mutex
	materialized map[string]int
	provisioned  map[string]int
	failed       []failure
}

func newEventsSpy() *eventsSpy {
	return &eventsSpy{materialized: map[string]int{}, provisioned: map[string]int{}}
}

func (s *eventsSpy) AccountMaterialized(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materialized[username]++
}

func (s *eventsSpy) AccountProvisioned(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provisioned[username]++
}

func (s *eventsSpy) ProvisionFailed(username string, stage Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, failure{username, stage})
}

// --- lockers ---

type failingLocker struct{ err error }

func (l failingLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return l.err
}
