package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"starbrowse/internal/database"
	"starbrowse/internal/handlers"
	"starbrowse/internal/logging"
	"starbrowse/internal/media"
	"starbrowse/internal/notify"
	"starbrowse/internal/scanner"
	"starbrowse/internal/startup"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("failed to close database: %v", err)
		}
	}()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Register folders passed via WATCH_FOLDERS
	for _, path := range config.WatchFolders {
		if _, err := db.AddFolder(context.Background(), path); err != nil {
			logging.Warn("failed to register folder %s: %v", path, err)
		}
	}

	// Refresh the connection gauge periodically
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		for range ticker.C {
			db.UpdateConnMetrics()
		}
	}()

	// Notification hub and status line stand in for the UI surfaces
	hub := notify.NewHub()
	status := notify.NewStatusLine()
	hub.AddListener(func(e notify.Event) {
		if e.Severity == notify.SeverityError {
			status.Set(e.Message, e.Severity, notify.DefaultStatusTimeout)
		}
	})

	// Initialize background scanner
	thumbDir := config.ThumbnailDir
	if !config.ThumbnailsEnabled {
		thumbDir = ""
	}
	thumbs := media.NewThumbnailer(thumbDir)
	fs := scanner.NewFilesystemScanner(db, thumbs, 0)
	sc := scanner.New(db, hub, fs, scanner.Settings{
		Enabled:  config.ScanEnabled,
		Interval: config.ScanInterval,
	})

	startup.LogScannerInit(config.ScanEnabled, config.ScanInterval)
	sc.Start()
	if config.ScanEnabled {
		startup.LogScannerStarted()
	}

	// Setup router
	h := handlers.New(db, hub, status, sc)
	router := h.Router(config.MetricsEnabled)
	startup.LogHTTPRoutes(router)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, sc)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func handleShutdown(srv *http.Server, sc *scanner.Scanner) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sc.Stop() {
		startup.LogShutdownStepComplete("Background scanner stopped")
	} else {
		logging.Warn("  Background scanner still stopping")
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("  HTTP server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
