// Package storage keeps the supervisor's diagnostics journal: relayed log
// entries and worker lifecycle events. Quotes are never stored.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"quote-bridge/src/interfaces"
	"quote-bridge/src/logger"
	"quote-bridge/src/models"
)

// NewJournal builds the journal selected by storage.db_type. It returns
// nil for "none".
func NewJournal(cfg *models.MConfig, log *logger.Logger) (interfaces.IJournal, error) {
	switch cfg.Storage.DBType {
	case "none":
		return nil, nil
	case "postgres":
		db, err := NewPostgresJournal(cfg, log)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "sqlite", "":
		db, err := NewSQLiteJournal(cfg, log)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown db_type %q", cfg.Storage.DBType)
	}
}

// scanLifecycle reads (created_at millis, kind, pid, exit_code, message) rows.
func scanLifecycle(rows *sql.Rows) ([]models.MLifecycleEvent, error) {
	var out []models.MLifecycleEvent
	for rows.Next() {
		var (
			createdAt int64
			kind      string
			pid       sql.NullInt64
			exitCode  sql.NullInt64
			message   sql.NullString
		)
		if err := rows.Scan(&createdAt, &kind, &pid, &exitCode, &message); err != nil {
			return nil, err
		}
		out = append(out, models.MLifecycleEvent{
			Kind:      models.LifecycleKind(kind),
			Pid:       int(pid.Int64),
			ExitCode:  int(exitCode.Int64),
			Message:   message.String,
			CreatedAt: time.UnixMilli(createdAt),
		})
	}
	return out, rows.Err()
}
