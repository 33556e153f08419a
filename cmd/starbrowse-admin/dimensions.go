package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"starbrowse/internal/database"
	"starbrowse/internal/dimensions"
	"starbrowse/internal/logging"
	"starbrowse/internal/notify"
)

func newDimensionsCmd() *cobra.Command {
	var (
		dbPath       string
		settingsFile string
		maxImages    int
	)

	cmd := &cobra.Command{
		Use:   "dimensions",
		Short: "Backfill pixel dimensions for images missing them",
		Long: `Dimensions reads the width and height of every cataloged image that is
missing them and writes the values back in batches. Files that no longer
exist on disk are skipped; files that cannot be decoded count as failed.`,
		Example: `  # Backfill everything
  starbrowse-admin dimensions

  # Process at most 1000 images against an explicit database
  starbrowse-admin dimensions --db-path /data/image_database.db --max-images 1000`,
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

			result, err := dimensions.Run(cmd.Context(), db, maxImages)
			if err != nil {
				notify.HandleError(nil, nil, "dimension update", err)
				return err
			}

			fmt.Println()
			fmt.Println("Dimension update completed.")
			fmt.Printf("  Candidates: %d\n", result.Total)
			fmt.Printf("  Updated:    %d\n", result.Updated)
			fmt.Printf("  Failed:     %d\n", result.Failed)
			fmt.Printf("  Skipped:    %d\n", result.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db-path", "", "Path to the database file")
	cmd.Flags().StringVar(&settingsFile, "settings", "", "Path to settings.json (default: ./settings.json)")
	cmd.Flags().IntVar(&maxImages, "max-images", 0, "Maximum number of images to process (0 = all)")

	return cmd
}
