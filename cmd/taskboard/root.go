package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opentrusty/taskboard/internal/config"
	"github.com/opentrusty/taskboard/internal/observability/logger"
	"github.com/opentrusty/taskboard/internal/store/postgres"
	"github.com/spf13/cobra"
)

// app carries state shared by subcommands once the root pre-run has loaded
// configuration.
type app struct {
	envFile string
	cfg     *config.Config
	log     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Taskboard - project and task tracker with role-based access control",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.envFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.InitLogger(logger.Config{
				Level:       cfg.Observability.LogLevel,
				Format:      cfg.Observability.LogFormat,
				ServiceName: cfg.Observability.ServiceName,
				OTELEnabled: cfg.Observability.OTELEnabled,
			})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "optional dotenv file loaded before the environment")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newSetRoleCmd(a),
	)
	return root
}

func (a *app) openDB(ctx context.Context) (*postgres.DB, error) {
	db, err := postgres.New(ctx, postgres.Config{
		DSN:             a.cfg.Database.DSN(),
		MaxConns:        a.cfg.Database.MaxOpenConns,
		MinConns:        a.cfg.Database.MaxIdleConns,
		MaxConnLifetime: a.cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
