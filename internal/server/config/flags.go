package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/tenantkeeper/internal/flagx"
)

// BoolFlags lists the boolean flags, which never take the following argument
// as their value.
var BoolFlags = []string{"-S"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string    PostgreSQL DSN
//	-o string    schema owner role
//	-S bool      strict identifiers
//	-l string    lock backend: local, postgres, redis, none
//	-w duration  lock wait, e.g. 10s
//	-t duration  redis lock TTL
//	-r string    Redis address
//	-m duration  per-tenant migration timeout
//	-f string    log format: json, text, zap
//	-x string    metrics textfile path
//
// args is filtered with flagx.FilterArgs first, so -c and command arguments
// do not reach the flag set.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-d", "-o", "-S", "-l", "-w", "-t", "-r", "-m", "-f", "-x"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SchemaOwner, "o", config.SchemaOwner, "schema owner role")
	fs.BoolVar(&config.StrictIdentifiers, "S", config.StrictIdentifiers, "reject unsafe schema identifiers")
	fs.StringVar(&config.LockBackend, "l", config.LockBackend, "lock backend (local, postgres, redis, none)")
	fs.DurationVar(&config.LockWait, "w", config.LockWait, "lock wait")
	fs.DurationVar(&config.LockTTL, "t", config.LockTTL, "redis lock TTL")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.DurationVar(&config.MigrationTimeout, "m", config.MigrationTimeout, "tenant migration timeout")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (json, text, zap)")
	fs.StringVar(&config.MetricsTextfile, "x", config.MetricsTextfile, "metrics textfile path")

	return fs.Parse(args)
}
