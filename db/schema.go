// ABOUTME: Database schema definitions for the operational store
// ABOUTME: Transcript cache, sync state, and sync run history tables
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
	call_id TEXT PRIMARY KEY,
	transcript TEXT NOT NULL,
	summary TEXT,
	content_hash TEXT NOT NULL,
	fetched_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transcripts_fetched_at ON transcripts(fetched_at);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	service TEXT NOT NULL,
	kind TEXT NOT NULL CHECK(kind IN ('backfill', 'sync')),
	window_from DATETIME NOT NULL,
	window_to DATETIME NOT NULL,
	new_calls INTEGER NOT NULL,
	updated_calls INTEGER NOT NULL,
	total_calls INTEGER NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_service ON sync_runs(service, finished_at DESC);
`

// InitSchema creates all tables and indexes if they don't exist.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
