package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"starbrowse/internal/logging"
	"starbrowse/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Schema is the canonical catalog schema. It is applied on startup and used
// verbatim by the repair utility when building a fresh database file.
const Schema = `
	CREATE TABLE IF NOT EXISTS folders (
		folder_id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT UNIQUE NOT NULL,
		enabled INTEGER DEFAULT 1,
		last_scan_time TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS images (
		image_id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder_id INTEGER,
		filename TEXT NOT NULL,
		full_path TEXT UNIQUE NOT NULL,
		file_size INTEGER,
		file_hash TEXT,
		creation_date TIMESTAMP,
		last_modified_date TIMESTAMP,
		thumbnail_path TEXT,
		ai_description TEXT,
		user_description TEXT,
		last_scanned TIMESTAMP,
		FOREIGN KEY (folder_id) REFERENCES folders (folder_id)
	);

	CREATE INDEX IF NOT EXISTS idx_images_full_path ON images (full_path);
	CREATE INDEX IF NOT EXISTS idx_images_ai_description ON images (ai_description);
	CREATE INDEX IF NOT EXISTS idx_images_user_description ON images (user_description);
	CREATE INDEX IF NOT EXISTS idx_images_folder_id ON images (folder_id);
	CREATE INDEX IF NOT EXISTS idx_images_last_modified ON images (last_modified_date DESC);
	CREATE INDEX IF NOT EXISTS idx_images_search_modified ON images (ai_description, last_modified_date DESC);
`

// FTSSchema creates the full-text search shadow table over the description
// columns and the triggers that keep it consistent with the images table.
const FTSSchema = `
	CREATE VIRTUAL TABLE IF NOT EXISTS image_fts USING fts5(
		ai_description,
		user_description,
		content='images',
		content_rowid='image_id'
	);

	CREATE TRIGGER IF NOT EXISTS images_fts_insert AFTER INSERT ON images BEGIN
		INSERT INTO image_fts(rowid, ai_description, user_description)
		VALUES (new.image_id, new.ai_description, new.user_description);
	END;

	CREATE TRIGGER IF NOT EXISTS images_fts_delete AFTER DELETE ON images BEGIN
		INSERT INTO image_fts(image_fts, rowid, ai_description, user_description)
		VALUES ('delete', old.image_id, old.ai_description, old.user_description);
	END;

	CREATE TRIGGER IF NOT EXISTS images_fts_update AFTER UPDATE ON images BEGIN
		INSERT INTO image_fts(image_fts, rowid, ai_description, user_description)
		VALUES ('delete', old.image_id, old.ai_description, old.user_description);
		INSERT INTO image_fts(rowid, ai_description, user_description)
		VALUES (new.image_id, new.ai_description, new.user_description);
	END;
`

// Database manages all catalog storage operations. It is safe for use from
// multiple goroutines; the background scanner and the HTTP surface share a
// single instance.
type Database struct {
	db      *sql.DB
	dbPath  string
	mu      sync.RWMutex
	txStart time.Time
}

// New opens (creating if necessary) the catalog database at dbPath and
// applies the schema and pending migrations. The parent directory must
// already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Debug("Opening catalog database: %s", dbPath)

	// busy_timeout helps prevent "database is locked" errors when the
	// scanner and a maintenance command touch the file at the same time
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Catalog database ready at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, Schema); err != nil {
		return err
	}
	if _, err := d.db.ExecContext(ctx, FTSSchema); err != nil {
		return err
	}
	return d.runMigrations(ctx)
}

// runMigrations applies database schema migrations.
func (d *Database) runMigrations(ctx context.Context) error {
	// Migration 1: width/height columns were added after the initial
	// release; older databases lack them.
	for _, column := range []string{"width", "height"} {
		exists, err := d.columnExists(ctx, "images", column)
		if err != nil {
			return fmt.Errorf("failed to check for %s column: %w", column, err)
		}
		if exists {
			continue
		}

		logging.Info("Migrating database: adding %s column to images table", column)
		if _, err := d.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE images ADD COLUMN %s INTEGER", column)); err != nil {
			return fmt.Errorf("failed to add %s column: %w", column, err)
		}
	}

	return nil
}

func (d *Database) columnExists(ctx context.Context, table, column string) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info(?)
		WHERE name = ?
	`, table, column).Scan(&exists)
	return exists, err
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// BeginBatch starts a transaction for batch operations. The caller is
// responsible for calling EndBatch when done.
func (d *Database) BeginBatch() (*sql.Tx, error) {
	d.mu.Lock()
	txStart := time.Now()

	// Transaction lifetime is managed by EndBatch, not a context timeout.
	tx, err := d.db.BeginTx(context.Background(), nil)
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}

	d.txStart = txStart
	return tx, nil
}

// EndBatch commits the transaction, or rolls it back if err is non-nil.
func (d *Database) EndBatch(tx *sql.Tx, err error) error {
	duration := time.Since(d.txStart).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		rbErr := tx.Rollback()
		if rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return tx.Commit()
}

// RebuildFTS rebuilds the full-text search index from the images table.
func (d *Database) RebuildFTS() error {
	start := time.Now()
	var err error
	defer func() { recordQuery("rebuild_fts", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "INSERT INTO image_fts(image_fts) VALUES('rebuild')")
	return err
}

// Vacuum optimizes the database.
func (d *Database) Vacuum() error {
	start := time.Now()
	var err error
	defer func() { recordQuery("vacuum", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "VACUUM")
	return err
}

// UpdateConnMetrics updates database connection gauges.
func (d *Database) UpdateConnMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// recordQuery records database query metrics.
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
