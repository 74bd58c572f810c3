package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/stackmesh/template-agent/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	migrationOnce sync.Once
	migrationErr  error
)

// ResetMigrationsForTest resets the migration singleton. Test code only.
func ResetMigrationsForTest() {
	migrationOnce = sync.Once{}
	migrationErr = nil
}

// Setup runs the idempotent schema migrations (create-if-missing for the
// checkpoints and kv_store tables). Safe to call from every session; the work
// happens once per process and concurrent instances are serialized through a
// PostgreSQL advisory lock. The stdlib bridge over the pool is opened and
// closed inside the once-guard, so repeated calls allocate nothing.
func (s *PostgresSaver) Setup(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("store: setup requires a pooled connection")
	}
	migrationOnce.Do(func() {
		db := stdlib.OpenDBFromPool(s.pool)
		defer func() {
			// Closing the bridge does not close the pool.
			if err := db.Close(); err != nil {
				logger.FromContext(ctx).Error("failed to close migration connection", "error", err)
			}
		}()
		migrationErr = runEmbeddedMigrations(ctx, db)
	})
	return migrationErr
}

func runEmbeddedMigrations(ctx context.Context, db *sql.DB) error {
	const lockID = 8151

	if _, err := db.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if _, unlockErr := db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", lockID); unlockErr != nil {
			logger.FromContext(ctx).Error("failed to release migration lock", "error", unlockErr)
		}
	}()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
