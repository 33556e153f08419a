// Package startup handles daemon initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig];
// a .env file in the working directory is honored when present. The
// following environment variables are supported:
//
//   - DATA_DIR: Directory holding the catalog database (default: /data)
//   - CACHE_DIR: Directory for generated thumbnails (default: /cache)
//   - DATABASE_PATH: Explicit database file path, overriding DATA_DIR and
//     any settings.json in the working directory
//   - THUMBNAIL_DIR: Explicit thumbnail directory, overriding CACHE_DIR
//   - PORT: HTTP server port (default: 8080)
//   - SCAN_INTERVAL: Background scan interval as Go duration (default: 30m)
//   - SCAN_ENABLED: Enable or disable background scanning (default: true)
//   - METRICS_ENABLED: Enable or disable the /metrics endpoint (default: true)
//   - WATCH_FOLDERS: Comma-separated list of folders to register at startup
//   - WORKER_COUNT: Worker pool size for media processing
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
package startup
