// Package settings reads the application's settings.json file, which the
// maintenance commands use to locate the catalog database when no explicit
// path is given.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"starbrowse/internal/logging"
)

// DefaultFile is the settings file name searched for in the working
// directory.
const DefaultFile = "settings.json"

// Settings holds the subset of application settings the tools care about.
type Settings struct {
	DatabasePath      string `mapstructure:"database_path"`
	ThumbnailDir      string `mapstructure:"thumbnail_dir"`
	ScanIntervalMin   int    `mapstructure:"background_interval_minutes"`
	BackgroundEnabled bool   `mapstructure:"enable_background_scanning"`
}

// Load parses the settings file at path. A relative database path is
// resolved against the settings file's directory.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("background_interval_minutes", 30)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	if s.DatabasePath != "" && !filepath.IsAbs(s.DatabasePath) {
		base := filepath.Dir(path)
		s.DatabasePath = filepath.Join(base, s.DatabasePath)
	}

	return &s, nil
}

// DatabasePathFrom resolves the catalog database path for maintenance
// commands: an explicit flag value wins, then the database_path key of
// settingsFile (DefaultFile when empty). Returns an empty string when
// nothing is configured.
func DatabasePathFrom(flagValue, settingsFile string) string {
	if flagValue != "" {
		return flagValue
	}

	if settingsFile == "" {
		settingsFile = DefaultFile
	}
	if _, err := os.Stat(settingsFile); err != nil {
		logging.Debug("settings file %s not found", settingsFile)
		return ""
	}

	s, err := Load(settingsFile)
	if err != nil {
		logging.Warn("could not read %s: %v", settingsFile, err)
		return ""
	}
	return s.DatabasePath
}
