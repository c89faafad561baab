// Package services contains the account workflows: authentication lookups
// and first-time provisioning of a tenant (account, progress record, schema
// and schema migrations).
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/tenantkeeper/internal/common"
	"github.com/dmitrijs2005/tenantkeeper/internal/logging"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/lock"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/models"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/tenant"
)

// SchemaCreator creates the schema named after a tenant. *schema.Provisioner
// implements it.
type SchemaCreator interface {
	CreateSchema(ctx context.Context, username string) error
}

// AccountService authenticates and provisions tenant accounts.
//
// Errors from the stores, the schema creator and the migration runner are
// returned exactly as received. The only translation is a missing account in
// Authenticate, which becomes common.ErrAccountNotFound.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	schemas     SchemaCreator
	tenants     tenant.Factory
	locker      lock.Locker
	events      Events
	logger      logging.Logger
}

// Option configures an AccountService.
type Option func(*AccountService)

// WithLocker sets the per-username lock. The default is an in-process
// lock.LocalLocker, which is only enough for a single instance.
func WithLocker(l lock.Locker) Option {
	return func(s *AccountService) { s.locker = l }
}

func WithEvents(e Events) Option {
	return func(s *AccountService) { s.events = e }
}

func WithLogger(l logging.Logger) Option {
	return func(s *AccountService) { s.logger = l }
}

// NewAccountService wires the service to its collaborators.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, schemas SchemaCreator, tenants tenant.Factory, opts ...Option) *AccountService {
	s := &AccountService{
		db:          db,
		repomanager: m,
		schemas:     schemas,
		tenants:     tenants,
		locker:      lock.NewLocalLocker(0),
		events:      nopEvents{},
		logger:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate loads the account for username and materializes it so it can
// act as an authentication principal. Unknown usernames yield
// common.ErrAccountNotFound; other lookup errors pass through.
func (s *AccountService) Authenticate(ctx context.Context, username string) (*models.Account, error) {
	account, err := s.repomanager.Users(s.db).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, err
	}
	if account == nil {
		return nil, common.ErrAccountNotFound
	}

	account.Materialize()
	s.events.AccountMaterialized(username)

	return account, nil
}

// Provision saves a USER account and, the first time username is seen,
// creates its progress record and tenant schema and migrates the schema.
func (s *AccountService) Provision(ctx context.Context, username, password string) (*ProvisionReport, error) {
	return s.ProvisionAs(ctx, username, password, models.RoleUser)
}

// ProvisionAs is Provision with an explicit role.
//
// The workflow runs under the per-username lock. For an existing username
// only the account is saved (credential and role are overwritten). The
// report is never nil; on error its Stage is the last step that succeeded.
func (s *AccountService) ProvisionAs(ctx context.Context, username, password string, role models.Role) (*ProvisionReport, error) {
	report := &ProvisionReport{}
	log := s.logger.With("username", username)

	err := s.locker.WithLock(ctx, username, func(ctx context.Context) error {
		return s.provision(ctx, report, username, password, role)
	})
	if err != nil {
		log.Error(ctx, "provisioning failed", "stage", report.Stage.String(), "new", report.New, "error", err)
		s.events.ProvisionFailed(username, report.Stage)
		return report, err
	}

	if report.New {
		log.Info(ctx, "account provisioned", "role", string(role))
		s.events.AccountProvisioned(username)
	} else {
		log.Info(ctx, "account updated", "role", string(role))
	}
	return report, nil
}

func (s *AccountService) provision(ctx context.Context, report *ProvisionReport, username, password string, role models.Role) error {
	usersRepo := s.repomanager.Users(s.db)

	exists, err := usersRepo.Exists(ctx, username)
	if err != nil {
		return err
	}
	report.New = !exists
	report.Stage = StageChecked

	account := models.NewAccount(username, password, role)
	saved, err := usersRepo.Save(ctx, account)
	if err != nil {
		return err
	}
	if saved == nil {
		saved = account
	}
	report.Account = saved
	report.Stage = StageAccountSaved

	if !report.New {
		return nil
	}

	if _, err := s.repomanager.Progress(s.db).Save(ctx, models.NewProgressRecord(username)); err != nil {
		return err
	}
	report.Stage = StageProgressSaved

	if err := s.schemas.CreateSchema(ctx, username); err != nil {
		return err
	}
	report.Stage = StageSchemaCreated
	s.logger.Debug(ctx, "tenant schema created", "username", username)

	migrator, err := s.tenants.ForTenant(ctx, username)
	if err != nil {
		return err
	}
	if err := migrator.Migrate(ctx); err != nil {
		return err
	}
	report.Stage = StageMigrated

	return nil
}

// ListAccounts returns whatever the identity store returns, unchanged.
func (s *AccountService) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	return s.repomanager.Users(s.db).FindAll(ctx)
}
