package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbrowse_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starbrowse_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starbrowse_db_rows_affected",
			Help:    "Rows affected per write operation",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starbrowse_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"}, // "commit", "rollback"
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "starbrowse_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Background scanner metrics
var (
	ScannerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starbrowse_scanner_runs_total",
			Help: "Total number of background scan passes",
		},
	)

	ScannerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "starbrowse_scanner_running",
			Help: "Whether a scan pass is currently running (1 = running, 0 = idle)",
		},
	)

	ScannerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "starbrowse_scanner_last_run_timestamp",
			Help: "Timestamp of the last completed scan pass",
		},
	)

	ScannerImagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starbrowse_scanner_images_processed_total",
			Help: "Total number of new images added by the background scanner",
		},
	)

	ScannerFoldersScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starbrowse_scanner_folders_scanned_total",
			Help: "Total number of folders scanned by the background scanner",
		},
	)

	ScannerFoldersSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbrowse_scanner_folders_skipped_total",
			Help: "Folders skipped during scan passes",
		},
		[]string{"reason"}, // "missing", "recent"
	)

	ScannerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starbrowse_scanner_errors_total",
			Help: "Total number of background scanner errors",
		},
	)
)

// Maintenance metrics
var (
	DimensionUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbrowse_dimension_updates_total",
			Help: "Image dimension backfill outcomes",
		},
		[]string{"outcome"}, // "updated", "failed", "skipped"
	)

	RepairBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starbrowse_repair_batches_total",
			Help: "Total number of row batches copied during database repair",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbrowse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "starbrowse_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starbrowse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Notification metrics
var (
	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbrowse_notifications_published_total",
			Help: "Notification events published to the hub",
		},
		[]string{"severity"},
	)

	NotificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starbrowse_notifications_dropped_total",
			Help: "Notification events dropped because a subscriber buffer was full",
		},
	)
)
