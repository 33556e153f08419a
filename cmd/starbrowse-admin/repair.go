package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"starbrowse/internal/logging"
	"starbrowse/internal/notify"
	"starbrowse/internal/repair"
)

func newRepairCmd() *cobra.Command {
	var (
		dbPath       string
		settingsFile string
		yes          bool
		logFile      string
	)

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Rebuild the catalog database into a fresh, optimized copy",
		Long: `Repair rebuilds the catalog database from scratch: it backs up the
original file, copies every row into a fresh schema in batches, rebuilds
the full-text search index, applies performance pragmas, and verifies the
result before atomically replacing the original.

The original database is never modified until the new copy passes both an
integrity check and a live update round-trip.`,
		Example: `  # Repair the database from settings.json
  starbrowse-admin repair

  # Repair an explicit file without prompting
  starbrowse-admin repair --db-path /data/image_database.db --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveDatabasePath(dbPath, settingsFile)
			if err != nil {
				return err
			}

			if logFile == "" {
				logFile = fmt.Sprintf("db_repair_%s.log", time.Now().Format("20060102_150405"))
			}
			closeLog, err := logging.TeeToFile(logFile)
			if err != nil {
				logging.Warn("could not open log file %s: %v", logFile, err)
			} else {
				defer closeLog()
			}

			if !yes && term.IsTerminal(int(os.Stdin.Fd())) {
				fmt.Printf("This will rebuild the database at %s.\n", path)
				fmt.Println("A backup is created first, but any open connections must be closed.")
				if !notify.Confirm(os.Stdin, os.Stdout, "Continue?") {
					fmt.Println("Repair cancelled.")
					return nil
				}
			}

			result, err := repair.Run(path, nil)
			if err != nil {
				notify.HandleError(nil, nil, "database repair", err)
				return err
			}

			fmt.Println()
			fmt.Println("Repair completed successfully.")
			fmt.Printf("  Folders copied: %d\n", result.FoldersCopied)
			fmt.Printf("  Images copied:  %d (%d batches)\n", result.ImagesCopied, result.ImageBatches)
			fmt.Printf("  Backup:         %s\n", result.BackupPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db-path", "", "Path to the database file")
	cmd.Flags().StringVar(&settingsFile, "settings", "", "Path to settings.json (default: ./settings.json)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write a copy of the repair log to this file")

	return cmd
}
