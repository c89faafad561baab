package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/tenantkeeper/internal/common"
	"github.com/dmitrijs2005/tenantkeeper/internal/cryptox"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/models"
	"golang.org/x/term"
)

// Usage is printed by the accounts binary on a usage error.
const Usage = `usage: accounts [flags] <command> [args]

commands:
  provision [-admin] <username>   create or update an account
  authenticate <username>         check an account's password
  list                            list accounts

flags:
  -c path      JSON config file
  -d dsn       PostgreSQL DSN
  -o role      schema owner
  -S           reject unsafe schema identifiers
  -l backend   lock backend: local, postgres, redis, none
  -w dur       lock wait
  -t dur       redis lock TTL
  -r addr      redis address
  -m dur       tenant migration timeout
  -f format    log format: json, text, zap
  -x path      metrics textfile`

var (
	errUsage              = errors.New("usage error")
	errInvalidCredentials = errors.New("invalid credentials")
)

type command func(ctx context.Context, app *App, args []string) error

var commands = map[string]command{
	"provision":    runProvision,
	"authenticate": runAuthenticate,
	"list":         runList,
}

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// getPassword prints prompt to w and reads a password from the terminal
// without echo. The caller should wipe the result.
func getPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func runProvision(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("provision", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	admin := fs.Bool("admin", false, "grant the ADMIN role")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: provision takes exactly one username", errUsage)
	}
	username := fs.Arg(0)

	role := models.RoleUser
	if *admin {
		role = models.RoleAdmin
	}

	pw, err := getPassword(app.out, "Password for "+username+": ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	report, err := app.service.ProvisionAs(ctx, username, cryptox.HashPassword(pw), role)
	if err != nil {
		fmt.Fprintf(app.out, "provisioning %s stopped after stage %s\n", username, report.Stage)
		return err
	}

	if report.New {
		fmt.Fprintf(app.out, "provisioned %s (%s)\n", username, role)
	} else {
		fmt.Fprintf(app.out, "updated %s (%s)\n", username, role)
	}
	return nil
}

func runAuthenticate(ctx context.Context, app *App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: authenticate takes exactly one username", errUsage)
	}
	username := args[0]

	pw, err := getPassword(app.out, "Password for "+username+": ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	account, err := app.service.Authenticate(ctx, username)
	if err != nil {
		return err
	}

	ok, err := cryptox.VerifyPassword(account.Password, pw)
	if err != nil {
		return err
	}
	if !ok {
		return errInvalidCredentials
	}

	fmt.Fprintf(app.out, "authenticated %s [%s]\n", account.Username, strings.Join(account.Authorities(), ", "))
	return nil
}

func runList(ctx context.Context, app *App, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: list takes no arguments", errUsage)
	}

	accounts, err := app.service.ListAccounts(ctx)
	if err != nil {
		return err
	}

	for _, a := range accounts {
		fmt.Fprintf(app.out, "%s\t%s\t%s\n", a.Username, a.Role, a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// IsUsage reports whether err came from malformed command-line input.
func IsUsage(err error) bool {
	return errors.Is(err, errUsage)
}
