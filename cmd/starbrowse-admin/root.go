package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"starbrowse/internal/settings"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "starbrowse-admin",
		Short: "Maintenance tools for the StarBrowse image catalog",
		Long: `starbrowse-admin bundles the offline maintenance tools for the image
catalog database: full database repair, pixel dimension backfill, and
catalog export for external analysis.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newRepairCmd())
	cmd.AddCommand(newDimensionsCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newOptimizeCmd())

	return cmd
}

// resolveDatabasePath finds the catalog database: an explicit flag wins,
// then the settings file, then an interactive prompt when stdin is a
// terminal.
func resolveDatabasePath(flagValue, settingsFile string) (string, error) {
	path := settings.DatabasePathFrom(flagValue, settingsFile)
	if path == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print("Enter the path to the database file: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("no database path given")
		}
		path = strings.TrimSpace(line)
	}
	if path == "" {
		return "", fmt.Errorf("no database path configured: pass --db-path or set database_path in %s", settings.DefaultFile)
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("database file not found at %s", path)
	}
	return path, nil
}
