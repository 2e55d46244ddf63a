package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quote-bridge/src/logger"
	"quote-bridge/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteJournal is the default diagnostics journal, one file on disk.
type SQLiteJournal struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
	now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewSQLiteJournal(cfg *models.MConfig, log *logger.Logger) (*SQLiteJournal, error) {
	return &SQLiteJournal{
		Config: cfg,
		Logger: log,
		now:    time.Now,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) Initialize() error {
	dsn := d.Config.Storage.DBPath
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	// One connection serializes the supervisor's concurrent writers; the busy
	// timeout covers other processes holding the file.
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		d.Logger.Warning("Failed to set busy timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) createTables() error {
	// SQLite types: INTEGER for unix millis, TEXT for strings
	query := `
		CREATE TABLE IF NOT EXISTS log_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			source TEXT,
			log_type TEXT NOT NULL,
			clock TEXT,
			message TEXT NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create log_entries: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS worker_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			kind TEXT NOT NULL,
			pid INTEGER,
			exit_code INTEGER,
			message TEXT
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create worker_events: %w", err)
	}

	if _, err := d.DB.Exec("CREATE INDEX IF NOT EXISTS idx_log_entries_created ON log_entries (created_at)"); err != nil {
		return fmt.Errorf("failed to index log_entries: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) RecordLog(entry models.MLogEntry) error {
	_, err := d.DB.Exec(
		"INSERT INTO log_entries (created_at, source, log_type, clock, message) VALUES (?, ?, ?, ?, ?)",
		d.now().UnixMilli(), entry.Source, string(entry.Type), entry.Timestamp, entry.Message,
	)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) RecordLifecycle(event models.MLifecycleEvent) error {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = d.now()
	}
	_, err := d.DB.Exec(
		"INSERT INTO worker_events (created_at, kind, pid, exit_code, message) VALUES (?, ?, ?, ?, ?)",
		createdAt.UnixMilli(), string(event.Kind), event.Pid, event.ExitCode, event.Message,
	)
	if err != nil {
		return fmt.Errorf("insert worker event: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) RecentLifecycle(limit int) ([]models.MLifecycleEvent, error) {
	rows, err := d.DB.Query(
		"SELECT created_at, kind, pid, exit_code, message FROM worker_events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLifecycle(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	if retentionDays <= 0 {
		return nil
	}
	cutoff := d.now().UTC().AddDate(0, 0, -retentionDays).UnixMilli()

	d.Logger.Info("Cleaning up journal rows older than %d days", retentionDays)

	for _, table := range []string{"log_entries", "worker_events"} {
		if _, err := d.DB.Exec(fmt.Sprintf("DELETE FROM %s WHERE created_at < ?", table), cutoff); err != nil {
			return fmt.Errorf("cleanup %s: %w", table, err)
		}
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
