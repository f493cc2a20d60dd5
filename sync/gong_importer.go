// ABOUTME: Gong call importer with cursor pagination and rate-limit pacing
// ABOUTME: Backfills a historical window or incrementally syncs since the last run
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/salesdesk/cache"
	"github.com/harperreed/salesdesk/db"
	"github.com/harperreed/salesdesk/enrich"
	"github.com/harperreed/salesdesk/gong"
	"github.com/harperreed/salesdesk/models"
)

const (
	gongService = "gong"

	// Hard ceiling on pages per run, guarding against a provider that
	// never terminates its cursor.
	maxPages = 50

	// Conservative pause between page requests to respect provider rate
	// limits. Requests are strictly sequential, never concurrent.
	defaultPageDelay = 2 * time.Second

	// Overlap applied to incremental syncs to avoid missing calls recorded
	// around the previous sync boundary.
	syncOverlap = 5 * time.Minute

	defaultBackfillMonths = 6
)

// CallLister is the slice of the provider client the importer needs. It must
// page idempotently: repeating a request with the same cursor is safe.
type CallLister interface {
	ListCalls(ctx context.Context, req gong.ListCallsRequest) (*gong.ListCallsResponse, error)
}

// Importer brings the local call cache up to date with the provider.
type Importer struct {
	provider  CallLister
	store     *cache.Store
	extractor *enrich.Extractor
	database  *sql.DB // optional; sync state and run history when present
	now       func() time.Time
}

// NewImporter creates an importer. database may be nil, in which case sync
// state bookkeeping is skipped.
func NewImporter(database *sql.DB, provider CallLister, store *cache.Store, extractor *enrich.Extractor) *Importer {
	if extractor == nil {
		extractor = enrich.New(enrich.DefaultConfig())
	}
	return &Importer{
		provider:  provider,
		store:     store,
		extractor: extractor,
		database:  database,
		now:       time.Now,
	}
}

// BackfillOptions configures a historical backfill. Zero values select the
// defaults (6 months, 2s between pages).
type BackfillOptions struct {
	Months int
	Delay  time.Duration
}

// Backfill fetches all calls in the last N months and merges them into the
// cache. Progress is saved incrementally after every page, so a mid-run
// failure keeps everything fetched so far; a retry only has to cover the
// remaining window. Running backfill twice over overlapping windows never
// duplicates records.
func (im *Importer) Backfill(ctx context.Context, opts BackfillOptions) (*models.SyncResult, error) {
	months := opts.Months
	if months <= 0 {
		months = defaultBackfillMonths
	}

	to := im.now()
	from := to.AddDate(0, -months, 0)

	fmt.Printf("Backfilling Gong calls (last %d months)...\n", months)
	return im.run(ctx, "backfill", from, to, opts.Delay)
}

// Sync incrementally fetches calls since the last successful sync, with a
// small overlap to avoid boundary misses. A never-synced cache falls back to
// the default backfill window.
func (im *Importer) Sync(ctx context.Context) (*models.SyncResult, error) {
	index, err := im.store.Load()
	if err != nil {
		return nil, err
	}

	to := im.now()
	from := index.LastSyncAt.Add(-syncOverlap)
	if index.LastSyncAt.Before(time.Unix(1, 0)) {
		fmt.Println("No previous sync found, fetching default window...")
		from = to.AddDate(0, -defaultBackfillMonths, 0)
	} else {
		fmt.Printf("Syncing Gong calls since %s...\n", from.UTC().Format(time.RFC3339))
	}

	return im.run(ctx, "sync", from, to, 0)
}

// run drives the page loop for a window. The provider is polled strictly
// sequentially with a blocking delay between pages; each page is enriched,
// upserted, and saved before the next request.
func (im *Importer) run(ctx context.Context, kind string, from, to time.Time, delay time.Duration) (*models.SyncResult, error) {
	if delay <= 0 {
		delay = defaultPageDelay
	}

	startedAt := im.now()
	im.setStatus(models.SyncStatusSyncing, nil)

	index, err := im.store.Load()
	if err != nil {
		im.setError(err)
		return nil, err
	}

	var totalNew, totalUpdated, totalFetched int
	skipCounts := make(map[string]int)

	cursor := ""
	for page := 1; ; page++ {
		if page > maxPages {
			err := fmt.Errorf("pagination runaway: provider cursor did not terminate within %d pages", maxPages)
			im.setError(err)
			return nil, err
		}

		resp, err := im.provider.ListCalls(ctx, gong.ListCallsRequest{
			FromDateTime: from,
			ToDateTime:   to,
			Cursor:       cursor,
		})
		if err != nil {
			pageErr := fmt.Errorf("failed to fetch page %d: %w", page, err)
			im.setError(pageErr)
			return nil, pageErr
		}

		totalFetched += len(resp.Calls)
		fmt.Printf("  → Fetched %d calls (page %d)\n", len(resp.Calls), page)

		records := make([]models.CallRecord, 0, len(resp.Calls))
		for _, raw := range resp.Calls {
			record, ok := im.normalizeCall(raw)
			if !ok {
				skipCounts["missing id"]++
				continue
			}
			records = append(records, record)
		}

		newCount, updatedCount := im.store.Upsert(index, records)
		totalNew += newCount
		totalUpdated += updatedCount

		// Incremental save: progress made so far survives a later page
		// failure. LastSyncAt is only advanced on full completion.
		if err := im.store.Save(index); err != nil {
			im.setError(err)
			return nil, err
		}

		cursor = resp.NextCursor
		if cursor == "" {
			break
		}

		if err := sleep(ctx, delay); err != nil {
			im.setError(err)
			return nil, err
		}
	}

	syncedAt := im.now()
	index.LastSyncAt = syncedAt
	if err := im.store.Save(index); err != nil {
		im.setError(err)
		return nil, err
	}

	result := &models.SyncResult{
		NewCalls:     totalNew,
		UpdatedCalls: totalUpdated,
		TotalCalls:   index.TotalCalls,
		SyncedAt:     syncedAt,
	}

	im.recordRun(kind, from, to, startedAt, result)

	fmt.Printf("\n✓ Fetched %d calls\n", totalFetched)
	for reason, count := range skipCounts {
		fmt.Printf("  ✓ Skipped %d call%s (%s)\n", count, pluralize(count), reason)
	}
	fmt.Printf("✓ %d new, %d updated, %d total in cache\n", totalNew, totalUpdated, result.TotalCalls)

	return result, nil
}

// normalizeCall converts a raw provider call into a cache record, applying
// enrichment. All "is this field present" handling happens here, once.
// Returns false for records missing an id, which cannot be merged.
func (im *Importer) normalizeCall(raw models.RawCall) (models.CallRecord, bool) {
	if raw.ID == "" {
		return models.CallRecord{}, false
	}

	rawTitle := raw.Title
	if rawTitle == "" {
		rawTitle = raw.Subject
	}
	title := rawTitle
	if title == "" {
		title = "Untitled Call"
	}

	scheduled := im.now()
	switch {
	case raw.Scheduled != nil:
		scheduled = *raw.Scheduled
	case raw.Started != nil:
		scheduled = *raw.Started
	case raw.StartTime != nil:
		scheduled = *raw.StartTime
	}

	duration := raw.Duration
	if duration < 0 {
		duration = 0
	}

	enrichedAt := im.now()
	return models.CallRecord{
		ID:                raw.ID,
		Title:             title,
		Scheduled:         scheduled,
		Started:           raw.Started,
		DurationSeconds:   duration,
		PrimaryUserID:     raw.PrimaryUserID,
		Direction:         raw.Direction,
		System:            raw.System,
		Scope:             raw.Scope,
		Language:          raw.Language,
		URL:               raw.URL,
		CompanyNames:      im.extractor.CompanyNames(rawTitle),
		ParticipantEmails: im.extractor.ParticipantEmails(raw.Parties),
		LastEnrichedAt:    &enrichedAt,
	}, true
}

func (im *Importer) setStatus(status string, errorMsg *string) {
	if im.database == nil {
		return
	}
	if err := db.UpdateSyncStatus(im.database, gongService, status, errorMsg); err != nil {
		fmt.Printf("Warning: failed to update sync status: %v\n", err)
	}
}

func (im *Importer) setError(cause error) {
	if im.database == nil {
		return
	}
	msg := cause.Error()
	_ = db.UpdateSyncStatus(im.database, gongService, models.SyncStatusError, &msg)
}

func (im *Importer) recordRun(kind string, from, to, startedAt time.Time, result *models.SyncResult) {
	if im.database == nil {
		return
	}
	if err := db.MarkSyncCompleted(im.database, gongService); err != nil {
		fmt.Printf("Warning: failed to mark sync completed: %v\n", err)
	}
	run := &models.SyncRun{
		Service:      gongService,
		Kind:         kind,
		WindowFrom:   from,
		WindowTo:     to,
		NewCalls:     result.NewCalls,
		UpdatedCalls: result.UpdatedCalls,
		TotalCalls:   result.TotalCalls,
		StartedAt:    startedAt,
		FinishedAt:   result.SyncedAt,
	}
	if err := db.RecordSyncRun(im.database, run); err != nil {
		fmt.Printf("Warning: failed to record sync run: %v\n", err)
	}
}

// sleep blocks for d, returning early if ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pluralize returns "s" if count != 1, otherwise ""
func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
