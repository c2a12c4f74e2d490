package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered schema of the service.
var Migrations = migrate.NewMigrations()
