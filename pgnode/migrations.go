package pgnode

import (
	"embed"
)

// migrationTemplateFS embeds the lock table's schema migrations so the
// binary that links pgnode carries them without a separate deployment
// artifact. Each file is a text/template referencing {{.Schema}} and
// {{.LockTable}}, rendered against the Adapter's Config by
// renderMigrations before golang-migrate ever sees them — the lock table
// name isn't fixed at build time, it's whatever Config.Schema/LockTable
// the caller configured (see config.go), and Migrate must create the same
// relation TryAcquire/Release already query.
//
//go:embed migrations/*.sql
var migrationTemplateFS embed.FS
