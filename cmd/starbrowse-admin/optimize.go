package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"starbrowse/internal/database"
	"starbrowse/internal/logging"
	"starbrowse/internal/notify"
)

func newOptimizeCmd() *cobra.Command {
	var (
		dbPath       string
		settingsFile string
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Rebuild the search index and compact the database in place",
		Long: `Optimize rebuilds the full-text search index from the images table and
runs VACUUM to compact the database file. Unlike repair, this works in
place and does not create a backup; use it for routine upkeep.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveDatabasePath(dbPath, settingsFile)
			if err != nil {
				return err
			}

			db, err := database.New(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					logging.Warn("failed to close database: %v", err)
				}
			}()

			logging.Info("Rebuilding full-text search index...")
			if err := db.RebuildFTS(); err != nil {
				notify.HandleError(nil, nil, "search index rebuild", err)
				return err
			}

			logging.Info("Compacting database...")
			if err := db.Vacuum(); err != nil {
				notify.HandleError(nil, nil, "database compaction", err)
				return err
			}

			fmt.Println("Optimization complete.")
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db-path", "", "Path to the database file")
	cmd.Flags().StringVar(&settingsFile, "settings", "", "Path to settings.json (default: ./settings.json)")

	return cmd
}
