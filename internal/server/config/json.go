package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/tenantkeeper/internal/flagx"
	"github.com/dmitrijs2005/tenantkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Durations use timex.Duration so
// both "30s" and integer nanoseconds are accepted.
type JsonConfig struct {
	DatabaseDSN       string         `json:"database_dsn"`
	SchemaOwner       string         `json:"schema_owner"`
	StrictIdentifiers bool           `json:"strict_identifiers"`
	LockBackend       string         `json:"lock_backend"`
	LockWait          timex.Duration `json:"lock_wait"`
	LockTTL           timex.Duration `json:"lock_ttl"`
	RedisAddr         string         `json:"redis_addr"`
	MigrationTimeout  timex.Duration `json:"migration_timeout"`
	LogFormat         string         `json:"log_format"`
	MetricsTextfile   string         `json:"metrics_textfile"`
}

// parseJson overlays the JSON file named by -c/-config onto config. Keys
// missing from the file keep their current values.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.JsonConfigFlags(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{
		DatabaseDSN:       config.DatabaseDSN,
		SchemaOwner:       config.SchemaOwner,
		StrictIdentifiers: config.StrictIdentifiers,
		LockBackend:       config.LockBackend,
		LockWait:          timex.Duration{Duration: config.LockWait},
		LockTTL:           timex.Duration{Duration: config.LockTTL},
		RedisAddr:         config.RedisAddr,
		MigrationTimeout:  timex.Duration{Duration: config.MigrationTimeout},
		LogFormat:         config.LogFormat,
		MetricsTextfile:   config.MetricsTextfile,
	}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonConfigFile, err)
	}

	config.DatabaseDSN = c.DatabaseDSN
	config.SchemaOwner = c.SchemaOwner
	config.StrictIdentifiers = c.StrictIdentifiers
	config.LockBackend = c.LockBackend
	config.LockWait = c.LockWait.Duration
	config.LockTTL = c.LockTTL.Duration
	config.RedisAddr = c.RedisAddr
	config.MigrationTimeout = c.MigrationTimeout.Duration
	config.LogFormat = c.LogFormat
	config.MetricsTextfile = c.MetricsTextfile
	return nil
}
