package agent

import (
	"context"

	"github.com/stackmesh/template-agent/engine/core"
	"github.com/stackmesh/template-agent/engine/infra/store"
	"github.com/stackmesh/template-agent/pkg/config"
	"github.com/stackmesh/template-agent/pkg/logger"
)

// InitializeDatabase runs the idempotent schema setup once before serving.
// It is skipped entirely in in-memory mode. Unlike per-request acquisitions,
// this path fails loudly: any connection or setup error is wrapped into a
// configuration-initialization error for the caller to treat as fatal.
func InitializeDatabase(ctx context.Context, cfg *config.Config) error {
	log := logger.FromContext(ctx)
	if cfg.Server.UseInMemorySaver {
		log.Info("in-memory store selected, skipping database schema setup")
		return nil
	}

	saver, err := connectStore(ctx, cfg.DatabaseURI())
	if err != nil {
		return core.NewError(err, core.ErrCodeConfigInit, map[string]any{
			"database_host": cfg.Database.Host,
			"database_name": cfg.Database.DBName,
		})
	}
	defer releaseSaver(ctx, saver, log)

	setup, ok := saver.(store.SchemaSetup)
	if !ok {
		log.Warn("store backend does not expose schema setup, skipping",
			"store_type", "postgres")
		return nil
	}
	if err := setup.Setup(ctx); err != nil {
		return core.NewError(err, core.ErrCodeConfigInit, map[string]any{
			"database_host": cfg.Database.Host,
			"database_name": cfg.Database.DBName,
		})
	}
	log.Info("database schema ready",
		"database_host", cfg.Database.Host,
		"database_name", cfg.Database.DBName)
	return nil
}
