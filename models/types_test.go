// ABOUTME: Tests for call cache data models
// ABOUTME: Validates the persisted index field names and optional-field handling
package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestCacheIndexFieldNames(t *testing.T) {
	index := CacheIndex{
		Calls: []CallRecord{{
			ID:           "c1",
			Title:        "Canva <> Sourcegraph",
			Scheduled:    time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
			CompanyNames: []string{"canva"},
		}},
		LastSyncAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		TotalCalls: 1,
		Version:    SchemaVersion,
	}

	data, err := json.Marshal(index)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	// The cache file is a wire contract; these names must not drift.
	for _, key := range []string{`"calls"`, `"lastSyncAt"`, `"totalCalls"`, `"version"`, `"companyNames"`, `"scheduled"`, `"durationSeconds"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected key %s in serialized index", key)
		}
	}
}

func TestCallRecordOptionalFieldsOmitted(t *testing.T) {
	record := CallRecord{
		ID:        "c1",
		Title:     "Untitled Call",
		Scheduled: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	for _, key := range []string{`"started"`, `"participantEmails"`, `"lastEnrichedAt"`, `"direction"`, `"url"`} {
		if strings.Contains(string(data), key) {
			t.Errorf("unset field %s should be omitted", key)
		}
	}
}

func TestRawCallToleratesMissingFields(t *testing.T) {
	var raw RawCall
	if err := json.Unmarshal([]byte(`{"id":"c1"}`), &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if raw.ID != "c1" {
		t.Errorf("id = %q, want c1", raw.ID)
	}
	if raw.Scheduled != nil || raw.Started != nil || raw.StartTime != nil {
		t.Error("absent timestamps should stay nil")
	}
}

func TestSyncStateDefaults(t *testing.T) {
	state := &SyncState{
		Service: "gong",
		Status:  SyncStatusIdle,
	}

	if state.Status != SyncStatusIdle {
		t.Errorf("expected idle status, got %s", state.Status)
	}
}
