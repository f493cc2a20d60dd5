// ABOUTME: Tests for the operational store
// ABOUTME: Covers sync state transitions, run history, and the transcript cache
package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/salesdesk/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	require.NoError(t, InitSchema(database))

	t.Cleanup(func() { database.Close() })
	return database
}

func TestSyncStateLifecycle(t *testing.T) {
	database := setupTestDB(t)

	// Unknown service has no state
	state, err := GetSyncState(database, "gong")
	require.NoError(t, err)
	assert.Nil(t, state)

	// Start syncing
	require.NoError(t, UpdateSyncStatus(database, "gong", models.SyncStatusSyncing, nil))
	state, err = GetSyncState(database, "gong")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.SyncStatusSyncing, state.Status)
	assert.Nil(t, state.LastSyncTime)

	// Fail with message
	msg := "rate limited"
	require.NoError(t, UpdateSyncStatus(database, "gong", models.SyncStatusError, &msg))
	state, err = GetSyncState(database, "gong")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, state.Status)
	assert.Equal(t, "rate limited", state.ErrorMessage)

	// Complete clears the error and stamps the time
	require.NoError(t, MarkSyncCompleted(database, "gong"))
	state, err = GetSyncState(database, "gong")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusIdle, state.Status)
	assert.Empty(t, state.ErrorMessage)
	assert.NotNil(t, state.LastSyncTime)
}

func TestRecordAndListSyncRuns(t *testing.T) {
	database := setupTestDB(t)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := &models.SyncRun{
			Service:      "gong",
			Kind:         "backfill",
			WindowFrom:   base.AddDate(0, -6, 0),
			WindowTo:     base,
			NewCalls:     10 * (i + 1),
			UpdatedCalls: i,
			TotalCalls:   100,
			StartedAt:    base.Add(time.Duration(i) * time.Hour),
			FinishedAt:   base.Add(time.Duration(i)*time.Hour + time.Minute),
		}
		require.NoError(t, RecordSyncRun(database, run))
		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", run.ID.String())
	}

	runs, err := ListSyncRuns(database, "gong", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first
	assert.Equal(t, 30, runs[0].NewCalls)
	assert.Equal(t, 20, runs[1].NewCalls)

	// Other services are not included
	other, err := ListSyncRuns(database, "salesforce", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestTranscriptCache(t *testing.T) {
	database := setupTestDB(t)

	// Cache miss
	cached, err := GetTranscript(database, "call-1")
	require.NoError(t, err)
	assert.Nil(t, cached)

	tr := models.Transcript{
		CallID:     "call-1",
		Transcript: "Speaker 1: Hello",
		Summary:    "Intro call",
	}
	require.NoError(t, UpsertTranscript(database, tr))

	cached, err = GetTranscript(database, "call-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Speaker 1: Hello", cached.Transcript.Transcript)
	assert.Equal(t, "Intro call", cached.Summary)
	assert.Equal(t, HashTranscript(tr), cached.ContentHash)
	assert.False(t, cached.FetchedAt.IsZero())

	// Replacing changes the content hash
	updated := models.Transcript{CallID: "call-1", Transcript: "Speaker 1: Hello again"}
	require.NoError(t, UpsertTranscript(database, updated))

	cached, err = GetTranscript(database, "call-1")
	require.NoError(t, err)
	assert.Equal(t, HashTranscript(updated), cached.ContentHash)
	assert.NotEqual(t, HashTranscript(tr), cached.ContentHash)
}

func TestUpsertTranscriptRequiresCallID(t *testing.T) {
	database := setupTestDB(t)

	err := UpsertTranscript(database, models.Transcript{Transcript: "orphan"})
	assert.Error(t, err)
}
