package pgnode

import (
	"fmt"
	"regexp"

	"github.com/Dorico-Dynamics/txova-go-redlock/apperrors"
)

// identifierPattern matches a safe unquoted PostgreSQL identifier. Schema
// and table names are interpolated into SQL text (they can't be bind
// parameters), so they're validated against this pattern instead of
// trusting the caller, mirroring the config.Validate() pattern in
// go-lockbox's PostgresLockerConfig.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config holds the schema and table naming for a pgnode.Adapter. Unlike
// redisnode's single key prefix, a Postgres master node needs both a lock
// table and a separate migrations-tracking table, following go-lockbox's
// PostgresLockerConfig split between MigrationTableName and LockTableName.
type Config struct {
	Schema          string
	LockTable       string
	MigrationsTable string
}

// DefaultConfig returns a Config with sensible defaults, following
// go-lockbox's NewPostgresLockerConfig().WithDefaults() pattern.
func DefaultConfig() Config {
	return Config{
		Schema:          "public",
		LockTable:       "redlock_locks",
		MigrationsTable: "redlock_schema_migrations",
	}
}

// Validate checks the configuration is usable, rejecting schema/table
// names that aren't safe to interpolate into SQL text.
func (c Config) Validate() error {
	if !identifierPattern.MatchString(c.Schema) {
		return apperrors.Newf(apperrors.CodeInvalidArgument, "pgnode: invalid schema name %q", c.Schema)
	}
	if !identifierPattern.MatchString(c.LockTable) {
		return apperrors.Newf(apperrors.CodeInvalidArgument, "pgnode: invalid lock table name %q", c.LockTable)
	}
	if !identifierPattern.MatchString(c.MigrationsTable) {
		return apperrors.Newf(apperrors.CodeInvalidArgument, "pgnode: invalid migrations table name %q", c.MigrationsTable)
	}
	if c.LockTable == c.MigrationsTable {
		return apperrors.New(apperrors.CodeInvalidArgument, "pgnode: lock table and migrations table must differ")
	}
	return nil
}

func (c Config) qualifiedLockTable() string {
	return fmt.Sprintf("%s.%s", c.Schema, c.LockTable)
}
