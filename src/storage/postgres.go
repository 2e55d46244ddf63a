package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quote-bridge/src/logger"
	"quote-bridge/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresJournal struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
	now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewPostgresJournal(cfg *models.MConfig, log *logger.Logger) (*PostgresJournal, error) {
	// Schema is named after the executable
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}

	return &PostgresJournal{
		Config: cfg,
		Schema: schemaName(exe),
		Logger: log,
		now:    time.Now,
	}, nil
}

func schemaName(exe string) string {
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ReplaceAll(name, `"`, "")
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("Postgres journal initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) table(name string) string {
	return fmt.Sprintf(`"%s".%s`, d.Schema, name)
}

func (d *PostgresJournal) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			source TEXT,
			log_type TEXT NOT NULL,
			clock TEXT,
			message TEXT NOT NULL
		);
	`, d.table("log_entries"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create log_entries: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			kind TEXT NOT NULL,
			pid INTEGER,
			exit_code INTEGER,
			message TEXT
		);
	`, d.table("worker_events"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create worker_events: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) RecordLog(entry models.MLogEntry) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (created_at, source, log_type, clock, message) VALUES ($1, $2, $3, $4, $5)",
		d.table("log_entries"),
	)
	if _, err := d.DB.Exec(query, d.now().UTC(), entry.Source, string(entry.Type), entry.Timestamp, entry.Message); err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) RecordLifecycle(event models.MLifecycleEvent) error {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = d.now()
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (created_at, kind, pid, exit_code, message) VALUES ($1, $2, $3, $4, $5)",
		d.table("worker_events"),
	)
	if _, err := d.DB.Exec(query, createdAt.UTC(), string(event.Kind), event.Pid, event.ExitCode, event.Message); err != nil {
		return fmt.Errorf("insert worker event: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) RecentLifecycle(limit int) ([]models.MLifecycleEvent, error) {
	query := fmt.Sprintf(
		"SELECT (EXTRACT(EPOCH FROM created_at) * 1000)::BIGINT, kind, pid, exit_code, message FROM %s ORDER BY id DESC LIMIT $1",
		d.table("worker_events"),
	)
	rows, err := d.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLifecycle(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	if retentionDays <= 0 {
		return nil
	}
	cutoff := d.now().UTC().AddDate(0, 0, -retentionDays)

	d.Logger.Info("Cleaning up journal rows older than %d days", retentionDays)

	for _, name := range []string{"log_entries", "worker_events"} {
		query := fmt.Sprintf("DELETE FROM %s WHERE created_at < $1", d.table(name))
		if _, err := d.DB.Exec(query, cutoff); err != nil {
			return fmt.Errorf("cleanup %s: %w", name, err)
		}
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
