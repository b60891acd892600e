package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/gymlog/internal/config"
	"github.com/2beens/gymlog/internal/db"
	"github.com/2beens/gymlog/internal/logging"
)

type rootOptions struct {
	env        string
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "gymlog-admin",
		Short: "Maintenance tasks for the gymlog database",
		Long: `Maintenance tasks for the gymlog database.

Examples:
  gymlog-admin schema
  gymlog-admin import-legacy --dir ./data --owner-email mario@example.com
  gymlog-admin claim --email mario@example.com`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(opts.envFile); err != nil {
				log.Debugf("dotenv file [%s] not loaded: %s", opts.envFile, err)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.env, "env", "development", "environment [prod | production | dev | development]")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "./config.toml", "path for the TOML config file")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "optional dotenv file with secrets")

	rootCmd.AddCommand(
		newSchemaCmd(opts),
		newImportLegacyCmd(opts),
		newClaimCmd(opts),
	)

	return rootCmd
}

// connect loads the config, sets up logging to stdout and opens the db pool.
func (o *rootOptions) connect(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load(o.env, o.configPath)
	if err != nil {
		return nil, err
	}

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     cfg.PostgresUser,
		DBPassword: os.Getenv("GYMLOG_DB_PASSWORD"),
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return dbPool, nil
}
