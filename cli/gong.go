// ABOUTME: Gong cache CLI commands
// ABOUTME: Human-friendly commands for backfill, sync, stats, and call lookup
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harperreed/salesdesk/cache"
	"github.com/harperreed/salesdesk/db"
	"github.com/harperreed/salesdesk/enrich"
	"github.com/harperreed/salesdesk/gong"
	"github.com/harperreed/salesdesk/sync"
)

func newImporter(database *sql.DB, store *cache.Store) (*sync.Importer, error) {
	config, err := gong.LoadConfig()
	if err != nil {
		return nil, err
	}
	return sync.NewImporter(database, gong.NewClient(config), store, nil), nil
}

// BackfillCommand fetches months of call history into the cache.
func BackfillCommand(database *sql.DB, store *cache.Store, args []string) error {
	fs := flag.NewFlagSet("backfill", flag.ExitOnError)
	months := fs.Int("months", 6, "Months of history to fetch")
	delayMS := fs.Int("delay-ms", 2000, "Delay between page requests in milliseconds")
	_ = fs.Parse(args)

	importer, err := newImporter(database, store)
	if err != nil {
		return err
	}

	_, err = importer.Backfill(context.Background(), sync.BackfillOptions{
		Months: *months,
		Delay:  time.Duration(*delayMS) * time.Millisecond,
	})
	return err
}

// SyncCommand incrementally fetches calls since the last sync.
func SyncCommand(database *sql.DB, store *cache.Store, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	_ = fs.Parse(args)

	importer, err := newImporter(database, store)
	if err != nil {
		return err
	}

	_, err = importer.Sync(context.Background())
	return err
}

// StatsCommand prints cache stats and recent sync history.
func StatsCommand(database *sql.DB, store *cache.Store, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	account := fs.String("account", "", "Also show how many cached calls match this account")
	_ = fs.Parse(args)

	index, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load call cache: %w", err)
	}

	stats := cache.Stats(index)
	if stats.Empty {
		fmt.Println("Call cache is empty. Run 'salesdesk gong backfill' to populate it.")
		return nil
	}

	fmt.Printf("Total calls:      %d\n", stats.TotalCalls)
	fmt.Printf("Unique companies: %d\n", stats.UniqueCompanies)
	fmt.Printf("Date range:       %s to %s\n",
		stats.OldestCall.UTC().Format("2006-01-02"),
		stats.NewestCall.UTC().Format("2006-01-02"))
	if stats.LastSyncAt.Unix() > 0 {
		fmt.Printf("Last sync:        %s\n", stats.LastSyncAt.UTC().Format(time.RFC3339))
	}

	if *account != "" {
		matched := cache.CallsForAccount(index, *account, cache.QueryOptions{})
		fmt.Printf("Calls matching %q: %d\n", *account, len(matched))
	}

	if database != nil {
		runs, err := db.ListSyncRuns(database, "gong", 5)
		if err != nil {
			return fmt.Errorf("failed to list sync runs: %w", err)
		}
		if len(runs) > 0 {
			fmt.Println("\nRecent sync runs:")
			for _, run := range runs {
				fmt.Printf("  %s  %-8s  %d new, %d updated\n",
					run.FinishedAt.UTC().Format("2006-01-02 15:04"), run.Kind, run.NewCalls, run.UpdatedCalls)
			}
		}
	}

	return nil
}

// CallsCommand lists cached calls for an account.
func CallsCommand(store *cache.Store, args []string) error {
	fs := flag.NewFlagSet("calls", flag.ExitOnError)
	account := fs.String("account", "", "Account name to search for (required unless --domain is set)")
	domain := fs.String("domain", "", "Also match participants by email domain")
	limit := fs.Int("limit", 25, "Max results")
	_ = fs.Parse(args)

	if *account == "" && *domain == "" {
		return fmt.Errorf("--account or --domain is required")
	}

	index, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load call cache: %w", err)
	}

	calls := cache.CallsForAccount(index, *account, cache.QueryOptions{
		MaxResults: *limit,
		Domain:     *domain,
	})

	if len(calls) == 0 {
		fmt.Println("No matching calls found.")
		return nil
	}

	extractor := enrich.New(enrich.DefaultConfig())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTITLE\tCOMPANIES\tDOMAINS")
	for _, call := range calls {
		domains := extractor.ExternalDomains(call.ParticipantEmails)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			call.Scheduled.UTC().Format("2006-01-02"),
			truncateTitle(call.Title, 48),
			strings.Join(call.CompanyNames, ", "),
			strings.Join(domains, ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d call%s shown\n", len(calls), plural(len(calls)))
	return nil
}

func truncateTitle(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
