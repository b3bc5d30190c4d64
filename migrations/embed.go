// Package migrations embeds the authority's SQL schema and registers it with
// the database package. Import it for side effects from the binary that opens
// the store.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.Migrations = files
	database.MigrationsDir = "."
}
