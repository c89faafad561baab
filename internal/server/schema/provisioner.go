// Package schema creates the per-tenant database schema that backs an account.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tenantkeeper/internal/common"
	"github.com/dmitrijs2005/tenantkeeper/internal/dbx"
)

// DefaultOwner is the role that owns tenant schemas unless configured otherwise.
const DefaultOwner = "dba"

// Provisioner issues CREATE SCHEMA statements. It does not check whether the
// schema already exists; callers gate on account existence instead.
type Provisioner struct {
	exec   dbx.Execer
	owner  string
	strict bool
}

type Option func(*Provisioner)

// WithOwner sets the role the schema is authorized to.
func WithOwner(role string) Option {
	return func(p *Provisioner) {
		if role != "" {
			p.owner = role
		}
	}
}

// WithStrictIdentifiers makes CreateSchema refuse usernames that cannot be
// embedded in a quoted identifier unchanged.
func WithStrictIdentifiers(strict bool) Option {
	return func(p *Provisioner) { p.strict = strict }
}

func NewProvisioner(exec dbx.Execer, opts ...Option) *Provisioner {
	p := &Provisioner{exec: exec, owner: DefaultOwner}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Statement returns the DDL for username. The name is interpolated verbatim:
// an embedded double quote is not escaped. Use strict mode or validate
// usernames upstream when they come from untrusted input.
func (p *Provisioner) Statement(username string) string {
	return fmt.Sprintf(`CREATE SCHEMA "%s" authorization %s`, username, p.owner)
}

// CreateSchema executes the DDL once. Execution errors are returned unchanged.
func (p *Provisioner) CreateSchema(ctx context.Context, username string) error {
	if p.strict {
		if err := CheckIdentifier(username); err != nil {
			return err
		}
	}
	_, err := p.exec.ExecContext(ctx, p.Statement(username))
	return err
}

// CheckIdentifier reports common.ErrUnsafeIdentifier for names that would
// break out of a double-quoted identifier or that PostgreSQL rejects.
func CheckIdentifier(name string) error {
	if strings.ContainsAny(name, "\"\x00") {
		return fmt.Errorf("%w: %q", common.ErrUnsafeIdentifier, name)
	}
	return nil
}

// QuoteIdentifier quotes name for use as a PostgreSQL identifier, doubling any
// embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
