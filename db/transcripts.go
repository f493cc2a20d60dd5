// ABOUTME: Transcript cache database operations
// ABOUTME: Stores fetched call transcripts by call id with content hashes
package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/harperreed/salesdesk/models"
)

// CachedTranscript is a transcript held in the local cache, with the content
// hash and fetch time used for staleness decisions.
type CachedTranscript struct {
	models.Transcript
	ContentHash string    `json:"content_hash"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// HashTranscript returns the content hash used to detect transcript changes.
func HashTranscript(t models.Transcript) string {
	sum := sha256.Sum256([]byte(t.Transcript + "\x00" + t.Summary))
	return hex.EncodeToString(sum[:])
}

// UpsertTranscript stores a transcript, replacing any cached copy for the
// same call id.
func UpsertTranscript(db *sql.DB, t models.Transcript) error {
	if t.CallID == "" {
		return fmt.Errorf("transcript call id is required")
	}

	_, err := db.Exec(`
		INSERT INTO transcripts (call_id, transcript, summary, content_hash, fetched_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(call_id) DO UPDATE SET
			transcript = excluded.transcript,
			summary = excluded.summary,
			content_hash = excluded.content_hash,
			fetched_at = CURRENT_TIMESTAMP
	`, t.CallID, t.Transcript, t.Summary, HashTranscript(t))

	if err != nil {
		return fmt.Errorf("failed to store transcript: %w", err)
	}

	return nil
}

// GetTranscript retrieves a cached transcript by call id. Returns nil when
// the call has no cached transcript.
func GetTranscript(db *sql.DB, callID string) (*CachedTranscript, error) {
	var ct CachedTranscript
	var summary sql.NullString

	err := db.QueryRow(`
		SELECT call_id, transcript, summary, content_hash, fetched_at
		FROM transcripts
		WHERE call_id = ?
	`, callID).Scan(&ct.CallID, &ct.Transcript.Transcript, &summary, &ct.ContentHash, &ct.FetchedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}

	if summary.Valid {
		ct.Summary = summary.String
	}

	return &ct, nil
}
