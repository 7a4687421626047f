package migrations

import (
	"embed"
	"io/fs"

	"github.com/uptrace/bun/migrate"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

// Migrations holds the schema versions, discovered from the embedded sql directory.
var Migrations = migrate.NewMigrations()

func init() {
	dir, err := fs.Sub(sqlFiles, "sql")
	if err != nil {
		panic(err)
	}
	if err := Migrations.Discover(dir); err != nil {
		panic(err)
	}
}
