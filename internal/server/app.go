// Package server wires configuration, storage, locking, logging and metrics
// into an AccountService and runs the accounts commands against it.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/tenantkeeper/internal/logging"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/config"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/lock"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/schema"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/services"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/tenant"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// openDB is a seam for testing sql.Open.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	service  *services.AccountService
	registry *prometheus.Registry
	out      io.Writer
	closers  []func() error
}

// NewApp opens the database, applies the core migrations and wires the
// account service. Log output goes to stderr; command output to stdout.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, syncLog, err := newLogger(cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	tenantFS, err := fs.Sub(migrations.Tenant, migrations.TenantDir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	tenants, err := tenant.NewGooseFactory(cfg.DatabaseDSN, tenantFS, cfg.MigrationTimeout, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app, err := assemble(ctx, cfg, db, repomanager.NewPostgresRepositoryManager(), tenants, logger, os.Stdout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	app.closers = append(app.closers, syncLog)
	return app, nil
}

// assemble builds an App around an open database. It owns db afterwards.
func assemble(ctx context.Context, cfg *config.Config, db *sql.DB, rm repomanager.RepositoryManager,
	tenants tenant.Factory, logger logging.Logger, out io.Writer) (*App, error) {

	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("core migrations: %w", err)
	}

	app := &App{config: cfg, logger: logger, db: db, out: out, registry: prometheus.NewRegistry()}

	locker, closeLocker := newLocker(cfg, db, logger)
	if closeLocker != nil {
		app.closers = append(app.closers, closeLocker)
	}

	recorder := metrics.NewRecorder()
	if err := recorder.Register(app.registry); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	provisioner := schema.NewProvisioner(db,
		schema.WithOwner(cfg.SchemaOwner),
		schema.WithStrictIdentifiers(cfg.StrictIdentifiers),
	)

	app.service = services.NewAccountService(db, rm, provisioner, tenants,
		services.WithLocker(locker),
		services.WithEvents(recorder),
		services.WithLogger(logger),
	)
	app.closers = append(app.closers, db.Close)

	return app, nil
}

func newLogger(format string, w io.Writer) (logging.Logger, func() error, error) {
	switch format {
	case config.LogZap:
		z, err := logging.NewZapProduction()
		if err != nil {
			return nil, nil, err
		}
		// fsync on a terminal stderr fails with EINVAL; nothing is lost
		return z, func() error { _ = z.Sync(); return nil }, nil
	case config.LogText:
		return logging.NewText(w), func() error { return nil }, nil
	default:
		return logging.NewJSON(w), func() error { return nil }, nil
	}
}

// newLocker returns the configured per-username lock and an optional closer
// for the resources it holds.
func newLocker(cfg *config.Config, db *sql.DB, logger logging.Logger) (lock.Locker, func() error) {
	switch cfg.LockBackend {
	case config.LockPostgres:
		return lock.NewPostgresLocker(db, cfg.LockWait, logger), nil
	case config.LockRedis:
		client := lock.NewRedisClient(cfg.RedisAddr)
		return lock.NewRedisLocker(client, lock.WithWait(cfg.LockWait), lock.WithTTL(cfg.RedisLockTTL())), client.Close
	case config.LockNone:
		return lock.Nop{}, nil
	default:
		return lock.NewLocalLocker(cfg.LockWait), nil
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run executes one command. args[0] is the command name.
func (app *App) Run(ctx context.Context, args []string) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	return cmd(ctx, app, args[1:])
}

// Close writes the metrics textfile when configured and releases resources
// in reverse order of acquisition.
func (app *App) Close() error {
	var errs []error
	if path := app.config.MetricsTextfile; path != "" {
		if err := metrics.WriteTextfile(path, app.registry); err != nil {
			errs = append(errs, fmt.Errorf("metrics textfile: %w", err))
		}
	}
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
