// ABOUTME: Database operations for sync_state and sync_runs tables
// ABOUTME: Manages sync status and run history for external services
package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/harperreed/salesdesk/models"
)

// GetSyncState retrieves the sync state for a service. Returns nil when the
// service has never synced.
func GetSyncState(db *sql.DB, service string) (*models.SyncState, error) {
	var state models.SyncState
	var lastSyncTime sql.NullTime
	var errorMessage sql.NullString

	err := db.QueryRow(`
		SELECT service, last_sync_time, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE service = ?
	`, service).Scan(
		&state.Service,
		&lastSyncTime,
		&state.Status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	if errorMessage.Valid {
		state.ErrorMessage = errorMessage.String
	}

	return &state, nil
}

// UpdateSyncStatus updates the sync status for a service.
func UpdateSyncStatus(db *sql.DB, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// MarkSyncCompleted sets the service idle and stamps the last sync time.
func MarkSyncCompleted(db *sql.DB, service string) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (service, last_sync_time, status, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = CURRENT_TIMESTAMP,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, service)

	if err != nil {
		return fmt.Errorf("failed to mark sync completed: %w", err)
	}

	return nil
}

// RecordSyncRun stores one completed backfill or sync run. Assigns the run id
// if unset.
func RecordSyncRun(db *sql.DB, run *models.SyncRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	_, err := db.Exec(`
		INSERT INTO sync_runs (id, service, kind, window_from, window_to, new_calls, updated_calls, total_calls, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID.String(), run.Service, run.Kind, run.WindowFrom, run.WindowTo,
		run.NewCalls, run.UpdatedCalls, run.TotalCalls, run.StartedAt, run.FinishedAt)

	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}

	return nil
}

// ListSyncRuns returns the most recent runs for a service, newest first.
func ListSyncRuns(db *sql.DB, service string, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.Query(`
		SELECT id, service, kind, window_from, window_to, new_calls, updated_calls, total_calls, started_at, finished_at
		FROM sync_runs
		WHERE service = ?
		ORDER BY finished_at DESC
		LIMIT ?
	`, service, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		var run models.SyncRun
		var id string
		if err := rows.Scan(&id, &run.Service, &run.Kind, &run.WindowFrom, &run.WindowTo,
			&run.NewCalls, &run.UpdatedCalls, &run.TotalCalls, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		run.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid sync run id %q: %w", id, err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
