// Package tenant runs the versioned tenant migrations against one account's
// schema. The service only sees the Factory/Migrator seam; goose and pgx stay
// behind it.
package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/dmitrijs2005/tenantkeeper/internal/logging"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrator applies pending migrations to a single tenant schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Factory hands out a Migrator bound to the named tenant.
type Factory interface {
	ForTenant(ctx context.Context, tenant string) (Migrator, error)
}

// FactoryFunc adapts a plain function to Factory.
type FactoryFunc func(ctx context.Context, tenant string) (Migrator, error)

func (f FactoryFunc) ForTenant(ctx context.Context, tenant string) (Migrator, error) {
	return f(ctx, tenant)
}

type upper interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
}

// newProvider is a seam for testing goose.NewProvider.
var newProvider = func(db *sql.DB, fsys fs.FS) (upper, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// openDB is a seam for testing stdlib.OpenDB.
var openDB = func(cfg *pgx.ConnConfig) *sql.DB {
	return stdlib.OpenDB(*cfg)
}

// GooseFactory opens a dedicated connection pool per tenant whose search_path
// is the tenant schema, so unqualified migration statements and the goose
// version table land inside that schema.
type GooseFactory struct {
	base    *pgx.ConnConfig
	fsys    fs.FS
	timeout time.Duration
	logger  logging.Logger
}

// NewGooseFactory parses dsn once; fsys must hold the migrations at its root.
// A zero timeout means Migrate is bounded only by the caller's context.
func NewGooseFactory(dsn string, fsys fs.FS, timeout time.Duration, logger logging.Logger) (*GooseFactory, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &GooseFactory{base: cfg, fsys: fsys, timeout: timeout, logger: logger}, nil
}

// TenantConnConfig returns a copy of base whose search_path is the quoted tenant.
func TenantConnConfig(base *pgx.ConnConfig, tenant string) *pgx.ConnConfig {
	cfg := base.Copy()
	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = map[string]string{}
	}
	cfg.RuntimeParams["search_path"] = schema.QuoteIdentifier(tenant)
	return cfg
}

func (f *GooseFactory) ForTenant(ctx context.Context, tenant string) (Migrator, error) {
	db := openDB(TenantConnConfig(f.base, tenant))

	p, err := newProvider(db, f.fsys)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("goose provider: %w", err)
	}

	return &gooseMigrator{
		tenant:  tenant,
		db:      db,
		up:      p,
		timeout: f.timeout,
		logger:  f.logger.With("tenant", tenant),
	}, nil
}

type gooseMigrator struct {
	tenant  string
	db      *sql.DB
	up      upper
	timeout time.Duration
	logger  logging.Logger
}

// Migrate applies all pending migrations and closes the tenant pool. The goose
// error is returned as is.
func (m *gooseMigrator) Migrate(ctx context.Context) error {
	defer m.db.Close()

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	results, err := m.up.Up(ctx)
	if err != nil {
		m.logger.Error(ctx, "tenant migration failed", "applied", len(results), "error", err)
		return err
	}

	m.logger.Info(ctx, "tenant migrated", "applied", len(results))
	return nil
}
