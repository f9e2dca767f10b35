package schedule

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the pgx5:// scheme
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration for the notification_schedule
// table and its trigger to connString (a standard postgres:// DSN, same
// one passed to NewPostgresStore). It is idempotent: running it again
// against an already-migrated database is a no-op.
func Migrate(connString string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	// golang-migrate's pgx/v5 driver is registered under the pgx5 scheme;
	// pgxpool accepts postgres:// directly, so only the migrator needs the
	// rewritten scheme.
	migrateDSN := connString
	if i := strings.Index(migrateDSN, "://"); i >= 0 {
		migrateDSN = "pgx5" + migrateDSN[i:]
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateDSN)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
