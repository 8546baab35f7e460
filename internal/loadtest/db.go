package loadtest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the SQLite connection holding load-test samples.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates a database connection at the specified path.
//
// The database is opened with WAL mode for concurrent reads. If it does not
// exist it is created along with the schema. The caller MUST call Close()
// when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// initSchema creates the sample and run tables if they do not exist.
func (db *DB) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS response_times (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			query_name TEXT NOT NULL,
			response_time_ms REAL NOT NULL,
			status_code INTEGER,
			success INTEGER NOT NULL,
			error_message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_query_name ON response_times(query_name)`,
		`CREATE INDEX IF NOT EXISTS idx_timestamp ON response_times(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_run_id ON response_times(run_id)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			start_time TEXT NOT NULL,
			end_time TEXT,
			status TEXT NOT NULL,
			config_snapshot TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// StartRun records the start of a run with a snapshot of its configuration.
func (db *DB) StartRun(runID, configSnapshot string) error {
	start := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.conn.Exec(
		`INSERT INTO runs (run_id, start_time, status, config_snapshot) VALUES (?, ?, ?, ?)`,
		runID, start, "running", configSnapshot,
	)
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// EndRun records the end of a run with the given status.
func (db *DB) EndRun(runID, status string) error {
	end := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.conn.Exec(
		`UPDATE runs SET end_time = ?, status = ? WHERE run_id = ?`,
		end, status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to record run end: %w", err)
	}
	return nil
}

// RawDB returns the underlying sql.DB connection.
func (db *DB) RawDB() *sql.DB {
	return db.conn
}

// Close performs a WAL checkpoint and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	_, _ = db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	err := db.conn.Close()
	db.conn = nil
	return err
}
