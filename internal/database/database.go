package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"shareplay/internal/logging"
	"shareplay/internal/metrics"
)

const defaultTimeout = 5 * time.Second

// Database wraps the SQLite store plus the in-memory duration snapshot.
type Database struct {
	db     *sql.DB
	dbPath string

	durMu     sync.RWMutex
	durations map[string]float64
}

// New opens (creating if necessary) the SQLite database at dbPath,
// initializes the schema, and loads the duration snapshot.
func New(ctx context.Context, dbPath string) (*Database, error) {
	// WAL keeps readers unblocked while probe batches write durations.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		diagnosePermissions(dbPath)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// The write load is light (probe batches and the occasional password
	// change), so a small pool is plenty.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:        db,
		dbPath:    dbPath,
		durations: make(map[string]float64),
	}

	if err := d.initialize(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := d.loadDurations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load durations: %w", err)
	}

	logging.Info("Database ready at %s (%d cached durations)", dbPath, d.CountDurations())
	return d, nil
}

// initialize creates the schema. Safe to run on every startup.
func (d *Database) initialize(ctx context.Context) error {
	start := time.Now()

	schema := `
	CREATE TABLE IF NOT EXISTS durations (
		key        TEXT PRIMARY KEY,
		seconds    REAL NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	);

	CREATE TABLE IF NOT EXISTS access (
		id            INTEGER PRIMARY KEY CHECK (id = 1),
		password_hash TEXT NOT NULL,
		created_at    INTEGER NOT NULL DEFAULT (strftime('%s','now')),
		updated_at    INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	);
	`

	initCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(initCtx, schema)
	recordQuery("initialize_schema", start, err)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the on-disk path of the database file.
func (d *Database) Path() string {
	return d.dbPath
}

// recordQuery records Prometheus metrics for a database operation.
func recordQuery(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// UpdateMetrics refreshes the connection and file-size gauges. Called
// periodically by the stats collector.
func (d *Database) UpdateMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))

	for _, file := range []struct{ label, path string }{
		{"main", d.dbPath},
		{"wal", d.dbPath + "-wal"},
		{"shm", d.dbPath + "-shm"},
	} {
		var size int64
		if info, err := os.Stat(file.path); err == nil {
			size = info.Size()
		}
		metrics.DBSizeBytes.WithLabelValues(file.label).Set(float64(size))
	}
}

// diagnosePermissions logs directory and file permission details when the
// database cannot be opened. SQLite needs write access to the directory
// for its WAL and SHM sidecar files, which trips up read-only mounts.
func diagnosePermissions(dbPath string) {
	dir := filepath.Dir(dbPath)

	if info, err := os.Stat(dir); err != nil {
		logging.Error("Database directory %s is not accessible: %v", dir, err)
	} else {
		logging.Error("Database directory %s permissions: %v", dir, info.Mode().Perm())
	}

	if info, err := os.Stat(dbPath); err == nil {
		logging.Error("Database file %s permissions: %v", dbPath, info.Mode().Perm())
	}

	probe := filepath.Join(dir, ".shareplay-write-test")
	if f, err := os.Create(probe); err != nil {
		logging.Error("Database directory %s is not writable: %v (SQLite needs to create WAL/SHM files)", dir, err)
	} else {
		f.Close()
		os.Remove(probe)
	}
}
