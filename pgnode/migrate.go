package pgnode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"text/template"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
)

// renderMigrations renders the embedded migration templates against the
// Adapter's Config and writes them to a fresh temp directory, so Migrate
// creates exactly the relation a.config.qualifiedLockTable() names,
// whatever schema/table the caller configured via WithConfig. The caller
// must remove the returned directory once golang-migrate is done with it.
func (a *Adapter) renderMigrations() (dir string, cleanup func(), err error) {
	entries, err := migrationTemplateFS.ReadDir("migrations")
	if err != nil {
		return "", nil, fmt.Errorf("pgnode: reading migration templates: %w", err)
	}

	dir, err = os.MkdirTemp("", "pgnode-migrations-*")
	if err != nil {
		return "", nil, fmt.Errorf("pgnode: creating migration render dir: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	data := struct {
		Schema    string
		LockTable string
	}{Schema: a.config.Schema, LockTable: a.config.LockTable}

	for _, entry := range entries {
		raw, err := migrationTemplateFS.ReadFile(path.Join("migrations", entry.Name()))
		if err != nil {
			cleanup()
			return "", nil, fmt.Errorf("pgnode: reading migration template %s: %w", entry.Name(), err)
		}
		tmpl, err := template.New(entry.Name()).Parse(string(raw))
		if err != nil {
			cleanup()
			return "", nil, fmt.Errorf("pgnode: parsing migration template %s: %w", entry.Name(), err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			cleanup()
			return "", nil, fmt.Errorf("pgnode: rendering migration template %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Name()), buf.Bytes(), 0o600); err != nil {
			cleanup()
			return "", nil, fmt.Errorf("pgnode: writing rendered migration %s: %w", entry.Name(), err)
		}
	}
	return dir, cleanup, nil
}

// Migrate applies the embedded schema (the lock table and its expiry
// index) to the database, grounded in the teacher's postgres.Migrator:
// an iofs source driver over the rendered SQL files, a pgx/v5 database
// driver adapted from the pool via stdlib.OpenDBFromPool, wired together
// with migrate.NewWithInstance. The migrations-tracking table name comes
// from Config.MigrationsTable so more than one Adapter can share a
// database without colliding on "schema_migrations"; the lock table
// itself is rendered from a.config.Schema/LockTable so it always matches
// what TryAcquire/Release query.
func (a *Adapter) Migrate(ctx context.Context) error {
	dir, cleanup, err := a.renderMigrations()
	if err != nil {
		return err
	}
	defer cleanup()

	sourceDriver, err := iofs.New(os.DirFS(dir), ".")
	if err != nil {
		return fmt.Errorf("pgnode: creating migration source: %w", err)
	}

	db := stdlib.OpenDBFromPool(a.pool)
	dbDriver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{
		MigrationsTable: a.config.MigrationsTable,
	})
	if err != nil {
		return fmt.Errorf("pgnode: creating database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "pgx5", dbDriver)
	if err != nil {
		return fmt.Errorf("pgnode: creating migrate instance: %w", err)
	}
	defer m.Close()

	start := time.Now()
	a.logger.Info("pgnode: applying schema migrations", "table", a.config.MigrationsTable)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			a.logger.Info("pgnode: no pending migrations")
			return nil
		}
		return fmt.Errorf("pgnode: running up migrations: %w", err)
	}

	a.logger.Info("pgnode: migrations applied", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
