package startup

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", "true", false, true},
		{"one", "1", false, true},
		{"yes", "yes", false, true},
		{"false", "false", true, false},
		{"zero", "0", true, false},
		{"empty uses default", "", true, true},
		{"garbage uses default", "banana", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL_VAR", tt.value)
			if got := getEnvBool("TEST_BOOL_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "/photos", []string{"/photos"}},
		{"multiple with spaces", "/a, /b ,/c", []string{"/a", "/b", "/c"}},
		{"trailing comma", "/a,", []string{"/a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitList(tt.value); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitList(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dataDir := t.TempDir()
	cacheDir := t.TempDir()

	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("CACHE_DIR", cacheDir)
	t.Setenv("PORT", "9999")
	t.Setenv("SCAN_INTERVAL", "5m")
	t.Setenv("SCAN_ENABLED", "false")
	t.Setenv("WATCH_FOLDERS", "/photos/a,/photos/b")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.Port != "9999" {
		t.Errorf("Port = %q, want 9999", config.Port)
	}
	if config.ScanInterval != 5*time.Minute {
		t.Errorf("ScanInterval = %v, want 5m", config.ScanInterval)
	}
	if config.ScanEnabled {
		t.Error("ScanEnabled = true, want false")
	}
	if len(config.WatchFolders) != 2 {
		t.Errorf("WatchFolders = %v, want 2 entries", config.WatchFolders)
	}
	if config.DatabasePath != filepath.Join(dataDir, "image_database.db") {
		t.Errorf("DatabasePath = %q", config.DatabasePath)
	}
	if !config.ThumbnailsEnabled {
		t.Error("ThumbnailsEnabled = false with a writable cache dir")
	}
}

func TestLoadConfigInvalidInterval(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("SCAN_INTERVAL", "not-a-duration")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.ScanInterval != 30*time.Minute {
		t.Errorf("ScanInterval = %v, want 30m default on parse failure", config.ScanInterval)
	}
}
