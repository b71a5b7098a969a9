package db

import "embed"

// MigrationFS embeds the SQL migrations applied by cmd/migrate and by the server
// when database.auto_migrate is set.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
