// ABOUTME: Data models for the Gong call cache and sync pipeline
// ABOUTME: Defines CallRecord, CacheIndex, SyncResult, and raw provider payload shapes
package models

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current CacheIndex schema version. Bumped when the
// CallRecord shape changes; readers treat missing fields as absent.
const SchemaVersion = 1

// CallRecord is one call as known to the cache. ID is the merge key and is
// unique within an index.
type CallRecord struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Scheduled time.Time  `json:"scheduled"`
	Started   *time.Time `json:"started,omitempty"`

	DurationSeconds int    `json:"durationSeconds"`
	PrimaryUserID   string `json:"primaryUserId,omitempty"`
	Direction       string `json:"direction,omitempty"`
	System          string `json:"system,omitempty"`
	Scope           string `json:"scope,omitempty"`
	Language        string `json:"language,omitempty"`
	URL             string `json:"url,omitempty"`

	// Enriched metadata, derived once at ingestion
	CompanyNames      []string   `json:"companyNames"`
	ParticipantEmails []string   `json:"participantEmails,omitempty"`
	LastEnrichedAt    *time.Time `json:"lastEnrichedAt,omitempty"`
}

// CacheIndex is the persisted cache document. Record order is not
// semantically significant; consumers sort by Scheduled when order matters.
type CacheIndex struct {
	Calls      []CallRecord `json:"calls"`
	LastSyncAt time.Time    `json:"lastSyncAt"`
	TotalCalls int          `json:"totalCalls"`
	Version    int          `json:"version"`
}

// SyncResult summarizes one backfill or sync run. Returned to the caller and
// logged, never persisted into the index itself.
type SyncResult struct {
	NewCalls     int       `json:"newCalls"`
	UpdatedCalls int       `json:"updatedCalls"`
	TotalCalls   int       `json:"totalCalls"`
	SyncedAt     time.Time `json:"syncedAt"`
}

// CacheStats describes the cache for operators. Empty is true when the cache
// holds no calls, in which case the date range fields are zero.
type CacheStats struct {
	TotalCalls      int       `json:"totalCalls"`
	UniqueCompanies int       `json:"uniqueCompanies"`
	LastSyncAt      time.Time `json:"lastSyncAt"`
	OldestCall      time.Time `json:"oldestCall"`
	NewestCall      time.Time `json:"newestCall"`
	Empty           bool      `json:"empty"`
}

// RawCall is a call as the provider returns it. Every field is optional;
// normalization into a CallRecord happens once, at ingestion.
type RawCall struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Subject       string     `json:"subject"`
	Scheduled     *time.Time `json:"scheduled"`
	Started       *time.Time `json:"started"`
	StartTime     *time.Time `json:"startTime"`
	Duration      int        `json:"duration"`
	PrimaryUserID string     `json:"primaryUserId"`
	Direction     string     `json:"direction"`
	System        string     `json:"system"`
	Scope         string     `json:"scope"`
	Language      string     `json:"language"`
	URL           string     `json:"url"`
	Parties       []Party    `json:"parties"`
}

// Party is one participant on a raw provider call.
type Party struct {
	Name         string `json:"name"`
	EmailAddress string `json:"emailAddress"`
	Affiliation  string `json:"affiliation"`
}

// Transcript is a call transcript as returned by the provider.
type Transcript struct {
	CallID     string `json:"callId"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary,omitempty"`
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

// SyncState represents the sync state row for a service.
type SyncState struct {
	Service      string     `json:"service"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SyncRun is one completed backfill or incremental sync, recorded for
// operator history.
type SyncRun struct {
	ID           uuid.UUID `json:"id"`
	Service      string    `json:"service"`
	Kind         string    `json:"kind"` // "backfill" or "sync"
	WindowFrom   time.Time `json:"window_from"`
	WindowTo     time.Time `json:"window_to"`
	NewCalls     int       `json:"new_calls"`
	UpdatedCalls int       `json:"updated_calls"`
	TotalCalls   int       `json:"total_calls"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}
