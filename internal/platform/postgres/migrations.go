package postgres

import "embed"

// MigrationsFS embeds the schema migrations so deployments do not depend on
// the migration files being present on disk.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsDir is the path of the migrations inside MigrationsFS.
const MigrationsDir = "migrations"
