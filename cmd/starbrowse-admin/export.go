package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"starbrowse/internal/database"
	"starbrowse/internal/export"
	"starbrowse/internal/logging"
	"starbrowse/internal/notify"
)

func newExportCmd() *cobra.Command {
	var (
		dbPath       string
		settingsFile string
		output       string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog to a Parquet or JSON Lines file",
		Long: `Export writes every cataloged image, joined with its folder path, to a
single file for use in external analysis tools. The format is inferred
from the output file extension unless --format is given.`,
		Example: `  # Export to Parquet
  starbrowse-admin export --output catalog.parquet

  # Export to JSON Lines
  starbrowse-admin export --output catalog.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveDatabasePath(dbPath, settingsFile)
			if err != nil {
				return err
			}

			formatName := format
			if formatName == "" {
				formatName = filepath.Ext(output)
			}
			f, err := export.ParseFormat(formatName)
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

			records, err := export.Collect(cmd.Context(), db)
			if err != nil {
				notify.HandleError(nil, nil, "catalog export", err)
				return err
			}

			if err := export.WriteFile(output, f, records); err != nil {
				notify.HandleError(nil, nil, "catalog export", err)
				return err
			}

			fmt.Printf("Exported %d records to %s\n", len(records), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db-path", "", "Path to the database file")
	cmd.Flags().StringVar(&settingsFile, "settings", "", "Path to settings.json (default: ./settings.json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: parquet or jsonl (default: from extension)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
