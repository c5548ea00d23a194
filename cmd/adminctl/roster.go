package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aura-webinar/workshops/internal/admin"
	"github.com/aura-webinar/workshops/internal/storage/backends"
)

var rosterCmd = &cobra.Command{
	Use:   "roster [event-id]",
	Short: "Write an event's registrations as CSV to stdout",
	Long: `Read every registration for an event from the configured STORAGE_BACKEND
and print it as CSV, newest first. Defaults to CURRENT_EVENT_ID.

Examples:
  adminctl roster > roster.csv
  STORAGE_BACKEND=sqlite SQLITE_PATH=workshops.db adminctl roster youthai-explorer-2025-nov`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		id := cfg.Event.CurrentID
		if len(args) == 1 {
			id = args[0]
		}

		ctx := cmd.Context()
		backend, err := backends.Open(ctx, cfg.Storage, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		recs, err := backend.Port.GetRegistrations(ctx, id)
		if err != nil {
			return fmt.Errorf("list registrations: %w", err)
		}
		return admin.WriteRoster(cmd.OutOrStdout(), recs)
	},
}

func init() {
	rootCmd.AddCommand(rosterCmd)
}
