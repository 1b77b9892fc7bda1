// Package migrations holds the bun migrations of the quiz schema.
// Each file registers itself; the file name is the migration name.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
