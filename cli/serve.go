package cli

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/stackmesh/template-agent/engine/agent"
	"github.com/stackmesh/template-agent/engine/infra/server"
	"github.com/stackmesh/template-agent/pkg/config"
	"github.com/stackmesh/template-agent/pkg/googleauth"
	"github.com/stackmesh/template-agent/pkg/logger"
)

func ServeCmd() *cobra.Command {
	var logJSON bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the agent HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, logJSON)
		},
	}
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")
	return cmd
}

func runServe(cmd *cobra.Command, logJSON bool) error {
	ctx := cmd.Context()

	// A missing .env file is expected outside local development.
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger.SetupLogger(cfg.Server.LogLevel, logJSON)
	log := logger.GetDefault()
	ctx = logger.ContextWithLogger(ctx, log)

	googleauth.Initialize(ctx, cfg)

	if err := agent.InitializeDatabase(ctx, cfg); err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	return server.NewServer(cfg).Run(ctx)
}
