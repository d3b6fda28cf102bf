package db

import "embed"

// MigrationFS embeds SQL migration files from internal/db/migrations (users, organizations,
// org_members, audit_log). Used by the migrate runner and cmd/migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
