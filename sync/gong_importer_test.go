// ABOUTME: Tests for the Gong importer page loop and incremental sync
// ABOUTME: Uses a fake provider to exercise pagination, idempotence, and failure paths
package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harperreed/salesdesk/cache"
	"github.com/harperreed/salesdesk/enrich"
	"github.com/harperreed/salesdesk/gong"
	"github.com/harperreed/salesdesk/models"
)

// fakeLister serves canned pages keyed by cursor and records every request.
type fakeLister struct {
	pages    map[string]*gong.ListCallsResponse
	requests []gong.ListCallsRequest
	failOn   string // cursor value that triggers an error
}

func (f *fakeLister) ListCalls(_ context.Context, req gong.ListCallsRequest) (*gong.ListCallsResponse, error) {
	f.requests = append(f.requests, req)
	if f.failOn != "" && req.Cursor == f.failOn {
		return nil, errors.New("provider unavailable")
	}
	resp, ok := f.pages[req.Cursor]
	if !ok {
		return nil, fmt.Errorf("unexpected cursor %q", req.Cursor)
	}
	return resp, nil
}

func rawCall(id, title string, scheduled time.Time) models.RawCall {
	return models.RawCall{ID: id, Title: title, Scheduled: &scheduled}
}

func newTestImporter(t *testing.T, provider CallLister) (*Importer, *cache.Store) {
	t.Helper()
	store := cache.NewStore(t.TempDir())
	im := NewImporter(nil, provider, store, enrich.New(enrich.DefaultConfig()))
	im.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return im, store
}

func TestBackfillPaginatesAndMerges(t *testing.T) {
	sched := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{pages: map[string]*gong.ListCallsResponse{
		"": {
			Calls:      []models.RawCall{rawCall("c1", "Canva <> Sourcegraph", sched), rawCall("c2", "Tesla / Sourcegraph Connect", sched)},
			NextCursor: "page-2",
		},
		"page-2": {
			Calls: []models.RawCall{rawCall("c3", "Stripe x Sourcegraph", sched)},
		},
	}}

	im, store := newTestImporter(t, lister)
	result, err := im.Backfill(context.Background(), BackfillOptions{Months: 3, Delay: time.Millisecond})
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}

	if result.NewCalls != 3 || result.UpdatedCalls != 0 {
		t.Errorf("expected 3 new / 0 updated, got %d / %d", result.NewCalls, result.UpdatedCalls)
	}
	if result.TotalCalls != 3 {
		t.Errorf("expected 3 total calls, got %d", result.TotalCalls)
	}
	if len(lister.requests) != 2 {
		t.Fatalf("expected 2 page requests, got %d", len(lister.requests))
	}
	if lister.requests[1].Cursor != "page-2" {
		t.Errorf("second request should carry cursor page-2, got %q", lister.requests[1].Cursor)
	}

	index, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if index.TotalCalls != 3 {
		t.Errorf("persisted index should have 3 calls, got %d", index.TotalCalls)
	}
	if index.LastSyncAt.IsZero() || index.LastSyncAt.Unix() == 0 {
		t.Error("LastSyncAt should be set after a completed backfill")
	}

	// Enrichment happened at ingestion
	for _, call := range index.Calls {
		if call.ID == "c1" && (len(call.CompanyNames) != 1 || call.CompanyNames[0] != "canva") {
			t.Errorf("c1 company names = %v, want [canva]", call.CompanyNames)
		}
	}
}

func TestBackfillWindowMonths(t *testing.T) {
	sched := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{pages: map[string]*gong.ListCallsResponse{
		"": {Calls: []models.RawCall{rawCall("c1", "Acme sync", sched)}},
	}}

	im, _ := newTestImporter(t, lister)
	if _, err := im.Backfill(context.Background(), BackfillOptions{Months: 3, Delay: time.Millisecond}); err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}

	req := lister.requests[0]
	wantFrom := im.now().AddDate(0, -3, 0)
	if !req.FromDateTime.Equal(wantFrom) {
		t.Errorf("window from = %v, want %v", req.FromDateTime, wantFrom)
	}
	if !req.ToDateTime.Equal(im.now()) {
		t.Errorf("window to = %v, want %v", req.ToDateTime, im.now())
	}
}

func TestBackfillIsIdempotent(t *testing.T) {
	sched := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{pages: map[string]*gong.ListCallsResponse{
		"": {Calls: []models.RawCall{rawCall("c1", "Canva <> Sourcegraph", sched), rawCall("c2", "Grab weekly", sched)}},
	}}

	im, store := newTestImporter(t, lister)
	if _, err := im.Backfill(context.Background(), BackfillOptions{Delay: time.Millisecond}); err != nil {
		t.Fatalf("first backfill failed: %v", err)
	}

	result, err := im.Backfill(context.Background(), BackfillOptions{Delay: time.Millisecond})
	if err != nil {
		t.Fatalf("second backfill failed: %v", err)
	}
	if result.NewCalls != 0 || result.UpdatedCalls != 2 {
		t.Errorf("second backfill expected 0 new / 2 updated, got %d / %d", result.NewCalls, result.UpdatedCalls)
	}

	index, _ := store.Load()
	if index.TotalCalls != 2 {
		t.Errorf("cache should still have 2 calls, got %d", index.TotalCalls)
	}
}

func TestBackfillSkipsCallsWithoutID(t *testing.T) {
	sched := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{pages: map[string]*gong.ListCallsResponse{
		"": {Calls: []models.RawCall{
			rawCall("c1", "Canva <> Sourcegraph", sched),
			{Title: "nameless call"},
		}},
	}}

	im, store := newTestImporter(t, lister)
	result, err := im.Backfill(context.Background(), BackfillOptions{Delay: time.Millisecond})
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}
	if result.NewCalls != 1 {
		t.Errorf("expected 1 new call, got %d", result.NewCalls)
	}

	index, _ := store.Load()
	if len(index.Calls) != 1 {
		t.Errorf("expected 1 cached call, got %d", len(index.Calls))
	}
}

func TestNormalizeCallFallbacks(t *testing.T) {
	im, _ := newTestImporter(t, &fakeLister{})
	started := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)

	// Subject used when title missing
	record, ok := im.normalizeCall(models.RawCall{ID: "c1", Subject: "Canva <> Sourcegraph", Started: &started})
	if !ok {
		t.Fatal("expected record")
	}
	if record.Title != "Canva <> Sourcegraph" {
		t.Errorf("title = %q, want subject fallback", record.Title)
	}
	if !record.Scheduled.Equal(started) {
		t.Errorf("scheduled = %v, want started fallback %v", record.Scheduled, started)
	}
	if len(record.CompanyNames) != 1 || record.CompanyNames[0] != "canva" {
		t.Errorf("company names = %v, want [canva]", record.CompanyNames)
	}

	// No title at all: placeholder title, no companies extracted from it
	record, ok = im.normalizeCall(models.RawCall{ID: "c2"})
	if !ok {
		t.Fatal("expected record")
	}
	if record.Title != "Untitled Call" {
		t.Errorf("title = %q, want placeholder", record.Title)
	}
	if len(record.CompanyNames) != 0 {
		t.Errorf("placeholder title should yield no companies, got %v", record.CompanyNames)
	}
	if !record.Scheduled.Equal(im.now()) {
		t.Errorf("scheduled = %v, want now fallback", record.Scheduled)
	}

	// Negative duration clamped
	record, _ = im.normalizeCall(models.RawCall{ID: "c3", Title: "Acme call", Duration: -5})
	if record.DurationSeconds != 0 {
		t.Errorf("duration = %d, want 0", record.DurationSeconds)
	}
}

func TestBackfillPageCeiling(t *testing.T) {
	// Every page points at itself: the cursor never terminates.
	pages := map[string]*gong.ListCallsResponse{
		"": {NextCursor: "loop"},
	}
	pages["loop"] = &gong.ListCallsResponse{NextCursor: "loop"}
	lister := &fakeLister{pages: pages}

	im, _ := newTestImporter(t, lister)
	_, err := im.Backfill(context.Background(), BackfillOptions{Delay: time.Millisecond})
	if err == nil {
		t.Fatal("expected pagination runaway error")
	}
	if len(lister.requests) != maxPages {
		t.Errorf("expected exactly %d requests before bailing, got %d", maxPages, len(lister.requests))
	}
}

func TestBackfillFailureKeepsSavedPages(t *testing.T) {
	sched := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{
		pages: map[string]*gong.ListCallsResponse{
			"": {Calls: []models.RawCall{rawCall("c1", "Canva <> Sourcegraph", sched)}, NextCursor: "page-2"},
		},
		failOn: "page-2",
	}

	im, store := newTestImporter(t, lister)
	_, err := im.Backfill(context.Background(), BackfillOptions{Delay: time.Millisecond})
	if err == nil {
		t.Fatal("expected page failure")
	}

	// Page one was saved before the failing request
	index, loadErr := store.Load()
	if loadErr != nil {
		t.Fatalf("Load failed: %v", loadErr)
	}
	if index.TotalCalls != 1 {
		t.Errorf("expected 1 call saved from the successful page, got %d", index.TotalCalls)
	}
	// But LastSyncAt was not advanced
	if index.LastSyncAt.Unix() != 0 {
		t.Errorf("LastSyncAt should remain epoch after a failed run, got %v", index.LastSyncAt)
	}
}

func TestSyncUsesOverlapWindow(t *testing.T) {
	sched := time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{pages: map[string]*gong.ListCallsResponse{
		"": {Calls: []models.RawCall{rawCall("c9", "Acme check-in", sched)}},
	}}

	im, store := newTestImporter(t, lister)

	lastSync := time.Date(2025, 5, 28, 0, 0, 0, 0, time.UTC)
	index, _ := store.Load()
	index.LastSyncAt = lastSync
	if err := store.Save(index); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := im.Sync(context.Background()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	wantFrom := lastSync.Add(-5 * time.Minute)
	if !lister.requests[0].FromDateTime.Equal(wantFrom) {
		t.Errorf("sync from = %v, want %v (last sync minus overlap)", lister.requests[0].FromDateTime, wantFrom)
	}
}

func TestSyncOnFreshCacheFallsBackToDefaultWindow(t *testing.T) {
	sched := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{pages: map[string]*gong.ListCallsResponse{
		"": {Calls: []models.RawCall{rawCall("c1", "Acme call", sched)}},
	}}

	im, _ := newTestImporter(t, lister)
	if _, err := im.Sync(context.Background()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	wantFrom := im.now().AddDate(0, -defaultBackfillMonths, 0)
	if !lister.requests[0].FromDateTime.Equal(wantFrom) {
		t.Errorf("fresh-cache sync from = %v, want default window %v", lister.requests[0].FromDateTime, wantFrom)
	}
}

func TestCancelledContextStopsBetweenPages(t *testing.T) {
	sched := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{pages: map[string]*gong.ListCallsResponse{
		"":       {Calls: []models.RawCall{rawCall("c1", "Acme call", sched)}, NextCursor: "page-2"},
		"page-2": {Calls: []models.RawCall{rawCall("c2", "Canva call", sched)}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	im, _ := newTestImporter(t, lister)
	_, err := im.Backfill(ctx, BackfillOptions{Delay: time.Second})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(lister.requests) != 1 {
		t.Errorf("expected to stop after first page, got %d requests", len(lister.requests))
	}
}
