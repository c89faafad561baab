// Package migrations embeds the goose SQL migrations.
//
// Core migrations create the shared accounts and progress_records tables.
// Tenant migrations are applied once per account inside the account's own
// schema; their statements are unqualified and resolve through search_path.
package migrations

import "embed"

//go:embed core/*.sql
var Core embed.FS

// CoreDir is the directory inside Core holding the migrations.
const CoreDir = "core"

//go:embed tenant/*.sql
var Tenant embed.FS

// TenantDir is the directory inside Tenant holding the migrations.
const TenantDir = "tenant"
