package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aura-webinar/workshops/config"
	"github.com/aura-webinar/workshops/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending PostgreSQL migrations",
	Long: `Apply the embedded schema migrations to the database in DATABASE_URL (or DB_*).
Use this when the server runs with DB_AUTO_MIGRATE=false.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Storage.Backend != config.BackendPostgres {
			return fmt.Errorf("migrate needs STORAGE_BACKEND=postgres, got %q", cfg.Storage.Backend)
		}
		ctx := cmd.Context()
		pool, err := database.NewPostgresPool(ctx, cfg.Storage.Postgres.DSN(), database.PoolOptions{MaxConns: 2}, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
